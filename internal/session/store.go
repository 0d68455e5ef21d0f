package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/fanreel/internal/objectstore"
)

const metadataContentType = "application/json"

type CreateInput struct {
	TeamID    string
	PlayerIDs []string
	UserID    string
	SessionID string
}

// Store persists Records as JSON objects at sessions/<id>/metadata.json.
//
// Updates are read-merge-write without compare-and-swap: two concurrent Update
// calls for one session race and the last writer wins in full. Pipeline stages
// for a session are expected to run one at a time.
type Store struct {
	objects objectstore.Store
	urls    *urlCache
	now     func() time.Time
}

func NewStore(objects objectstore.Store) *Store {
	return &Store{
		objects: objects,
		urls:    newURLCache(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create is create-if-absent: an existing record at the id is returned as is.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Record, error) {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = RandomID(s.now())
	}

	existing, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		slog.Debug("session already exists; returning stored record", "session_id", sessionID)
		return existing, nil
	}

	rec := newRecord(sessionID, in.TeamID, in.PlayerIDs, s.now())
	rec.UserID = in.UserID
	if err := s.write(ctx, rec); err != nil {
		return nil, err
	}
	slog.Info("session created", "session_id", sessionID, "team_id", rec.TeamID)
	return rec, nil
}

// Get returns nil without error when no readable record exists. Errors are
// returned only for transport failures against the object store.
func (s *Store) Get(ctx context.Context, sessionID string) (*Record, error) {
	if url, ok := s.urls.get(sessionID); ok {
		rec, err := s.fetchRecord(ctx, url)
		if err == nil && rec != nil {
			return rec, nil
		}
		slog.Debug("cached session url is stale; rediscovering", "session_id", sessionID, "url", url, "error", err)
		s.urls.purge(sessionID, url)
	}

	path := metadataPath(sessionID)
	objects, err := s.objects.List(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("discover session %s: %w", sessionID, err)
	}
	obj, ok := exactPath(objects, path)
	if !ok {
		slog.Debug("session not found", "session_id", sessionID)
		return nil, nil
	}
	s.urls.set(sessionID, obj.URL)

	rec, err := s.fetchRecord(ctx, obj.URL)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch session %s: %w", sessionID, err)
	}
	return rec, nil
}

// Update merges u into the stored record. A missing record is synthesized with
// status pending, seeded with any teamId/playerIds in u, so updates that arrive
// before creation are not lost.
func (s *Store) Update(ctx context.Context, sessionID string, u Update) error {
	current, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if current == nil {
		slog.Info("session not found; creating from update", "session_id", sessionID)
		teamID := "unknown"
		if u.TeamID != nil {
			teamID = *u.TeamID
		}
		current = newRecord(sessionID, teamID, u.PlayerIDs, s.now())
	}

	merged := merge(*current, u, s.now())
	return s.write(ctx, &merged)
}

// UploadAsset stores an asset at its deterministic path and returns the public
// URL. It does not touch the session record.
func (s *Store) UploadAsset(ctx context.Context, sessionID string, kind AssetKind, body []byte, contentType string) (string, error) {
	url, err := s.objects.Put(ctx, AssetPath(sessionID, kind, contentType), body, contentType)
	if err != nil {
		return "", fmt.Errorf("upload %s asset for session %s: %w", kind, sessionID, err)
	}
	return url, nil
}

// CachedURL exposes the process-local metadata location, if known.
func (s *Store) CachedURL(sessionID string) (string, bool) {
	return s.urls.get(sessionID)
}

func (s *Store) write(ctx context.Context, rec *Record) error {
	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", rec.SessionID, err)
	}
	url, err := s.objects.Put(ctx, metadataPath(rec.SessionID), body, metadataContentType)
	if err != nil {
		return fmt.Errorf("write session %s: %w", rec.SessionID, err)
	}
	s.urls.set(rec.SessionID, url)
	return nil
}

// fetchRecord returns (nil, nil) for content that is not a JSON record. That
// content is logged and otherwise treated as absent.
func (s *Store) fetchRecord(ctx context.Context, url string) (*Record, error) {
	body, contentType, err := s.objects.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(contentType, metadataContentType) {
		slog.Error("invalid content type for session metadata", "url", url, "content_type", contentType, "body_prefix", prefix(body, 200))
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		slog.Error("corrupt session metadata", "url", url, "error", err)
		return nil, nil
	}
	if rec.Assets == nil {
		rec.Assets = Assets{}
	}
	return &rec, nil
}

func exactPath(objects []objectstore.Object, path string) (objectstore.Object, bool) {
	for _, o := range objects {
		if o.Path == path {
			return o, true
		}
	}
	return objectstore.Object{}, false
}

func prefix(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

// urlCache remembers where a session's metadata lives within this process. It
// is never authoritative; every hit is revalidated by fetching the URL.
type urlCache struct {
	mu   sync.RWMutex
	urls map[string]string
}

func newURLCache() *urlCache {
	return &urlCache{urls: make(map[string]string)}
}

func (c *urlCache) get(sessionID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	url, ok := c.urls[sessionID]
	return url, ok
}

func (c *urlCache) set(sessionID, url string) {
	c.mu.Lock()
	c.urls[sessionID] = url
	c.mu.Unlock()
}

// purge drops the entry only if it still points at url, so a concurrent write
// that cached a fresher location is kept.
func (c *urlCache) purge(sessionID, url string) {
	c.mu.Lock()
	if c.urls[sessionID] == url {
		delete(c.urls, sessionID)
	}
	c.mu.Unlock()
}
