package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	sessionsPrefix   = "sessions/"
	DefaultRetention = 7 * 24 * time.Hour
)

type Summary struct {
	SessionID string
	CreatedAt time.Time
	Status    Status
}

type ClearResult struct {
	DeletedCount int
	Errors       []string
}

// ListSessions reads every stored metadata object. Unreadable ones are skipped.
func (s *Store) ListSessions(ctx context.Context) ([]Summary, error) {
	objects, err := s.objects.List(ctx, sessionsPrefix)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []Summary
	for _, o := range objects {
		if !strings.HasSuffix(o.Path, "metadata.json") {
			continue
		}
		body, contentType, err := s.objects.Fetch(ctx, o.URL)
		if err != nil || !strings.Contains(contentType, metadataContentType) {
			slog.Error("failed to read session metadata", "path", o.Path, "content_type", contentType, "error", err)
			continue
		}
		var rec Record
		if err := json.Unmarshal(body, &rec); err != nil {
			slog.Error("failed to decode session metadata", "path", o.Path, "error", err)
			continue
		}
		out = append(out, Summary{SessionID: rec.SessionID, CreatedAt: rec.CreatedAt, Status: rec.Status})
	}
	return out, nil
}

// ClearAll deletes every object under sessions/. Per-object failures are
// collected and do not stop the sweep.
func (s *Store) ClearAll(ctx context.Context) (ClearResult, error) {
	objects, err := s.objects.List(ctx, sessionsPrefix)
	if err != nil {
		return ClearResult{}, fmt.Errorf("list sessions: %w", err)
	}
	slog.Info("clearing session objects", "count", len(objects))
	var res ClearResult
	for _, o := range objects {
		if err := s.objects.Delete(ctx, o.URL); err != nil {
			msg := fmt.Sprintf("failed to delete %s: %v", o.Path, err)
			slog.Error("failed to delete session object", "path", o.Path, "error", err)
			res.Errors = append(res.Errors, msg)
			continue
		}
		res.DeletedCount++
	}
	s.urls.reset()
	return res, nil
}

// Cleanup is the retention sweep: objects uploaded before now-retention are
// deleted. It returns how many were removed.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	objects, err := s.objects.List(ctx, sessionsPrefix)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	cutoff := s.now().Add(-retention)
	deleted := 0
	for _, o := range objects {
		if !o.UploadedAt.Before(cutoff) {
			continue
		}
		if err := s.objects.Delete(ctx, o.URL); err != nil {
			slog.Error("failed to delete expired session object", "path", o.Path, "error", err)
			continue
		}
		deleted++
	}
	slog.Info("session retention sweep finished", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

func (c *urlCache) reset() {
	c.mu.Lock()
	c.urls = make(map[string]string)
	c.mu.Unlock()
}
