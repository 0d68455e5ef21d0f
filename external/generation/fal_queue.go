package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/foxseedlab/fanreel/internal/generation"
)

const errorBodyLimit = 512

type FalQueueConfig struct {
	QueueURL     string
	Key          string
	PollInterval time.Duration
}

// FalQueueBackend speaks the fal.ai queue protocol: submit a request, poll its
// status URL until COMPLETED, then fetch the response URL.
type FalQueueBackend struct {
	queueURL     string
	key          string
	pollInterval time.Duration
	client       *http.Client
}

type falSubmitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type falStatusResponse struct {
	Status        string `json:"status"`
	QueuePosition int    `json:"queue_position"`
	ResponseURL   string `json:"response_url"`
	Logs          []struct {
		Message string `json:"message"`
	} `json:"logs"`
}

func NewFalQueueBackend(cfg FalQueueConfig) *FalQueueBackend {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &FalQueueBackend{
		queueURL:     strings.TrimRight(cfg.QueueURL, "/"),
		key:          cfg.Key,
		pollInterval: interval,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

func (b *FalQueueBackend) Run(ctx context.Context, model string, input generation.Input, onUpdate generation.ProgressFunc) (json.RawMessage, error) {
	submitted, err := b.submit(ctx, model, input)
	if err != nil {
		return nil, err
	}
	slog.Info("fal request submitted", "model", model, "request_id", submitted.RequestID)

	responseURL, err := b.waitCompleted(ctx, submitted, onUpdate)
	if err != nil {
		return nil, err
	}

	body, err := b.get(ctx, "result", responseURL)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Download fetches a generated asset from its result URL.
func (b *FalQueueBackend) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download generated asset: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return nil, "", fmt.Errorf("failed to download generated asset: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download generated asset: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (b *FalQueueBackend) submit(ctx context.Context, model string, input generation.Input) (*falSubmitResponse, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.queueURL+"/"+strings.TrimLeft(model, "/"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := b.do(req, "submit")
	if err != nil {
		return nil, err
	}
	var out falSubmitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode fal submit response: %w", err)
	}
	if out.StatusURL == "" || out.ResponseURL == "" {
		return nil, fmt.Errorf("fal submit response is missing queue urls (request %q)", out.RequestID)
	}
	return &out, nil
}

func (b *FalQueueBackend) waitCompleted(ctx context.Context, submitted *falSubmitResponse, onUpdate generation.ProgressFunc) (string, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		status, err := b.status(ctx, submitted.StatusURL)
		if err != nil {
			return "", err
		}
		update := generation.QueueUpdate{
			Status:        generation.QueueStatus(status.Status),
			QueuePosition: status.QueuePosition,
		}
		for _, l := range status.Logs {
			update.Logs = append(update.Logs, l.Message)
		}
		if onUpdate != nil {
			onUpdate(update)
		}
		if update.Status == generation.QueueStatusCompleted {
			if status.ResponseURL != "" {
				return status.ResponseURL, nil
			}
			return submitted.ResponseURL, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (b *FalQueueBackend) status(ctx context.Context, statusURL string) (*falStatusResponse, error) {
	sep := "?"
	if strings.Contains(statusURL, "?") {
		sep = "&"
	}
	body, err := b.get(ctx, "status", statusURL+sep+"logs=1")
	if err != nil {
		return nil, err
	}
	var out falStatusResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode fal status response: %w", err)
	}
	return &out, nil
}

func (b *FalQueueBackend) get(ctx context.Context, op, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return b.do(req, op)
}

func (b *FalQueueBackend) do(req *http.Request, op string) ([]byte, error) {
	req.Header.Set("Authorization", "Key "+b.key)
	req.Header.Set("Accept", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fal %s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fal %s: read body: %w", op, err)
	}
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return nil, statusError(op, resp.StatusCode, body)
	}
	return body, nil
}

// statusError words the failure so that retry classification can tell client
// errors (bad request, unauthorized, forbidden, invalid input) from the rest.
func statusError(op string, code int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > errorBodyLimit {
		detail = detail[:errorBodyLimit]
	}
	text := http.StatusText(code)
	if code == http.StatusUnprocessableEntity {
		text = "invalid input"
	}
	return fmt.Errorf("fal %s returned %d %s: %s", op, code, text, detail)
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
