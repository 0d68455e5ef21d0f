package generation

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrNoOutput = errors.New("generation produced no output")

type JobKind string

const (
	JobCompositeImage JobKind = "composite_image"
	JobReferenceVideo JobKind = "reference_video"
)

type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Input carries the fields used by either job kind; zero values are omitted
// from the request.
type Input struct {
	Prompt              string     `json:"prompt"`
	ImageURL            string     `json:"image_url,omitempty"`
	ImageSize           *ImageSize `json:"image_size,omitempty"`
	NumInferenceSteps   int        `json:"num_inference_steps,omitempty"`
	GuidanceScale       float64    `json:"guidance_scale,omitempty"`
	NumImages           int        `json:"num_images,omitempty"`
	EnableSafetyChecker bool       `json:"enable_safety_checker,omitempty"`
	Duration            string     `json:"duration,omitempty"`
	NegativePrompt      string     `json:"negative_prompt,omitempty"`
}

type QueueStatus string

const (
	QueueStatusInQueue    QueueStatus = "IN_QUEUE"
	QueueStatusInProgress QueueStatus = "IN_PROGRESS"
	QueueStatusCompleted  QueueStatus = "COMPLETED"
)

type QueueUpdate struct {
	Status        QueueStatus
	QueuePosition int
	Logs          []string
}

type ProgressFunc func(QueueUpdate)

// Backend runs one asynchronous job on a generation service and blocks until
// it reaches a terminal state, returning the raw result document.
type Backend interface {
	Run(ctx context.Context, model string, input Input, onUpdate ProgressFunc) (json.RawMessage, error)
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// Gateway is the uniform contract the pipeline uses for generation jobs.
type Gateway interface {
	Submit(ctx context.Context, kind JobKind, input Input, onProgress ProgressFunc) (string, error)
	Download(ctx context.Context, url string) ([]byte, string, error)
}
