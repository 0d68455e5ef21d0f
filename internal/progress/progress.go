package progress

import (
	"context"
	"log/slog"
	"time"

	"github.com/foxseedlab/fanreel/internal/session"
)

const (
	DefaultPollInterval = time.Second
	DefaultMaxWait      = 60 * time.Second
)

type EventType string

const (
	EventConnected EventType = "connected"
	EventProgress  EventType = "progress"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

const (
	waitingStatus       = "waiting"
	waitingMessage      = "Waiting for session to initialize..."
	reconnectingMessage = "Reconnecting..."
	notFoundError       = "Session not found after timeout"
)

// Event is one frame of a progress stream. Fields irrelevant to the event
// type are omitted from the JSON encoding.
type Event struct {
	Type     EventType       `json:"type"`
	Status   string          `json:"status,omitempty"`
	Progress *int            `json:"progress,omitempty"`
	Message  string          `json:"message,omitempty"`
	Assets   session.Assets  `json:"assets,omitempty"`
	Error    string          `json:"error,omitempty"`
	Session  *session.Record `json:"session,omitempty"`
}

type Reader interface {
	Get(ctx context.Context, sessionID string) (*session.Record, error)
}

// EmitFunc delivers an event to the subscriber. A returned error ends the
// stream.
type EmitFunc func(Event) error

type Broadcaster struct {
	reader       Reader
	pollInterval time.Duration
	maxWait      time.Duration
}

func NewBroadcaster(reader Reader, pollInterval, maxWait time.Duration) *Broadcaster {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Broadcaster{reader: reader, pollInterval: pollInterval, maxWait: maxWait}
}

// Stream polls the session until it reaches a terminal status. Cancelling ctx
// or a failing emit ends it early. A missing record is reported as waiting until
// maxWait has passed since the stream opened, then the stream ends with an
// error event.
func (b *Broadcaster) Stream(ctx context.Context, sessionID string, emit EmitFunc) error {
	if err := emit(Event{Type: EventConnected}); err != nil {
		return err
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	start := time.Now()
	for {
		rec, err := b.reader.Get(ctx, sessionID)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			slog.Warn("progress poll failed", "session_id", sessionID, "error", err)
			if err := emit(waitingEvent(reconnectingMessage)); err != nil {
				return err
			}
		case rec == nil:
			if time.Since(start) >= b.maxWait {
				return emit(Event{Type: EventError, Error: notFoundError})
			}
			if err := emit(waitingEvent(waitingMessage)); err != nil {
				return err
			}
		default:
			if err := emit(progressEvent(rec)); err != nil {
				return err
			}
			if rec.Status.Terminal() {
				return emit(Event{Type: EventDone, Session: rec})
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func waitingEvent(message string) Event {
	zero := 0
	return Event{Type: EventProgress, Status: waitingStatus, Progress: &zero, Message: message}
}

func progressEvent(rec *session.Record) Event {
	p := rec.Progress
	return Event{
		Type:     EventProgress,
		Status:   string(rec.Status),
		Progress: &p,
		Assets:   rec.Assets,
		Error:    rec.Error,
	}
}
