package generation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type mockBackend struct {
	result    string
	err       error
	updates   []QueueUpdate
	gotModel  string
	gotInput  Input
	downloads []string
}

func (m *mockBackend) Run(_ context.Context, model string, input Input, onUpdate ProgressFunc) (json.RawMessage, error) {
	m.gotModel = model
	m.gotInput = input
	for _, u := range m.updates {
		onUpdate(u)
	}
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(m.result), nil
}

func (m *mockBackend) Download(_ context.Context, url string) ([]byte, string, error) {
	m.downloads = append(m.downloads, url)
	return []byte("bytes"), "image/png", nil
}

func newTestGateway(b Backend) *BackendGateway {
	return NewGateway(b, Models{CompositeImage: "fal-ai/flux/dev", ReferenceVideo: "fal-ai/kling-video"})
}

func TestSubmit_CompositeImageReturnsFirstURL(t *testing.T) {
	b := &mockBackend{result: `{"images":[{"url":"https://cdn/a.png"},{"url":"https://cdn/b.png"}]}`}
	url, err := newTestGateway(b).Submit(context.Background(), JobCompositeImage, Input{Prompt: "p"}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if url != "https://cdn/a.png" {
		t.Fatalf("unexpected url: %s", url)
	}
	if b.gotModel != "fal-ai/flux/dev" {
		t.Fatalf("unexpected model: %s", b.gotModel)
	}
}

func TestSubmit_EmptyImageListIsFailure(t *testing.T) {
	b := &mockBackend{result: `{"images":[]}`}
	_, err := newTestGateway(b).Submit(context.Background(), JobCompositeImage, Input{Prompt: "p"}, nil)
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
}

func TestSubmit_MissingVideoIsFailure(t *testing.T) {
	b := &mockBackend{result: `{}`}
	_, err := newTestGateway(b).Submit(context.Background(), JobReferenceVideo, Input{Prompt: "p"}, nil)
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
}

func TestSubmit_VideoReturnsURLAndForwardsProgress(t *testing.T) {
	b := &mockBackend{
		result: `{"video":{"url":"https://cdn/v.mp4","content_type":"video/mp4"}}`,
		updates: []QueueUpdate{
			{Status: QueueStatusInQueue, QueuePosition: 2},
			{Status: QueueStatusInProgress},
		},
	}
	var seen []QueueStatus
	url, err := newTestGateway(b).Submit(context.Background(), JobReferenceVideo, Input{Prompt: "p"}, func(u QueueUpdate) {
		seen = append(seen, u.Status)
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if url != "https://cdn/v.mp4" {
		t.Fatalf("unexpected url: %s", url)
	}
	if len(seen) != 2 || seen[1] != QueueStatusInProgress {
		t.Fatalf("unexpected forwarded updates: %v", seen)
	}
	if b.gotModel != "fal-ai/kling-video" {
		t.Fatalf("unexpected model: %s", b.gotModel)
	}
}

func TestSubmit_BackendErrorPropagates(t *testing.T) {
	want := errors.New("upstream 500")
	b := &mockBackend{err: want}
	_, err := newTestGateway(b).Submit(context.Background(), JobCompositeImage, Input{Prompt: "p"}, nil)
	if !errors.Is(err, want) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestSubmit_UnknownKindIsInvalidInput(t *testing.T) {
	b := &mockBackend{}
	_, err := newTestGateway(b).Submit(context.Background(), JobKind("audio"), Input{}, nil)
	if err == nil {
		t.Fatal("expected error for unknown job kind")
	}
	if b.gotModel != "" {
		t.Fatal("backend must not be called for unknown job kind")
	}
}
