package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

type Models struct {
	CompositeImage string
	ReferenceVideo string
}

type imageOutput struct {
	Images []struct {
		URL         string `json:"url"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ContentType string `json:"content_type"`
	} `json:"images"`
}

type videoOutput struct {
	Video *struct {
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
		FileName    string `json:"file_name"`
		FileSize    int64  `json:"file_size"`
	} `json:"video"`
}

type BackendGateway struct {
	backend Backend
	models  Models
}

func NewGateway(backend Backend, models Models) *BackendGateway {
	return &BackendGateway{backend: backend, models: models}
}

// Submit runs a job and returns the URL of its first output. A job that
// reports success without any output fails with ErrNoOutput.
func (g *BackendGateway) Submit(ctx context.Context, kind JobKind, input Input, onProgress ProgressFunc) (string, error) {
	model, err := g.model(kind)
	if err != nil {
		return "", err
	}
	forward := func(u QueueUpdate) {
		slog.Debug("generation queue update", "kind", kind, "status", u.Status, "queue_position", u.QueuePosition)
		if onProgress != nil {
			onProgress(u)
		}
	}

	raw, err := g.backend.Run(ctx, model, input, forward)
	if err != nil {
		slog.Error("generation job failed", "kind", kind, "model", model, "error", err)
		return "", err
	}

	url, err := resultURL(kind, raw)
	if err != nil {
		slog.Error("generation job returned no usable output", "kind", kind, "model", model, "error", err)
		return "", err
	}
	return url, nil
}

func (g *BackendGateway) Download(ctx context.Context, url string) ([]byte, string, error) {
	return g.backend.Download(ctx, url)
}

func (g *BackendGateway) model(kind JobKind) (string, error) {
	switch kind {
	case JobCompositeImage:
		return g.models.CompositeImage, nil
	case JobReferenceVideo:
		return g.models.ReferenceVideo, nil
	default:
		return "", fmt.Errorf("invalid input: unknown job kind %q", kind)
	}
}

func resultURL(kind JobKind, raw json.RawMessage) (string, error) {
	switch kind {
	case JobCompositeImage:
		var out imageOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return "", fmt.Errorf("decode image result: %w", err)
		}
		if len(out.Images) == 0 || out.Images[0].URL == "" {
			return "", fmt.Errorf("%w: no images generated", ErrNoOutput)
		}
		return out.Images[0].URL, nil
	default:
		var out videoOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return "", fmt.Errorf("decode video result: %w", err)
		}
		if out.Video == nil || out.Video.URL == "" {
			return "", fmt.Errorf("%w: no video generated", ErrNoOutput)
		}
		return out.Video.URL, nil
	}
}
