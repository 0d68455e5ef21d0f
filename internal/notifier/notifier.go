package notifier

import (
	"context"
	"errors"
)

type AssetLinks struct {
	Selfie string `json:"selfie,omitempty"`
	Pose1  string `json:"pose1,omitempty"`
	Pose2  string `json:"pose2,omitempty"`
	Video  string `json:"video,omitempty"`
}

// SessionOutcomePayload is the JSON document posted when a session reaches a
// terminal state.
type SessionOutcomePayload struct {
	Event              string     `json:"event"`
	SessionID          string     `json:"session_id"`
	TeamID             string     `json:"team_id"`
	PlayerIDs          []string   `json:"player_ids"`
	Status             string     `json:"status"`
	Progress           int        `json:"progress"`
	Assets             AssetLinks `json:"assets"`
	Error              string     `json:"error,omitempty"`
	LastSuccessfulStep string     `json:"last_successful_step,omitempty"`
	CreatedAt          string     `json:"created_at"`
	FinishedAt         string     `json:"finished_at"`
	DurationSeconds    int64      `json:"duration_seconds"`
}

type Sender interface {
	SendSessionOutcome(ctx context.Context, payload SessionOutcomePayload) error
}

// Fanout delivers to every sender and joins their errors.
type Fanout []Sender

func (f Fanout) SendSessionOutcome(ctx context.Context, payload SessionOutcomePayload) error {
	var errs []error
	for _, s := range f {
		if err := s.SendSessionOutcome(ctx, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
