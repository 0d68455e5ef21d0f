package objectstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/fanreel/internal/objectstore"
)

type memoryObject struct {
	body        []byte
	contentType string
	uploadedAt  time.Time
}

// MemoryStore keeps objects in process memory. It backs development runs and
// tests; nothing survives a restart.
type MemoryStore struct {
	urls publicURLs
	now  func() time.Time

	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		urls:    newPublicURLs(baseURL),
		now:     func() time.Time { return time.Now().UTC() },
		objects: make(map[string]memoryObject),
	}
}

func (s *MemoryStore) Put(_ context.Context, path string, body []byte, contentType string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("object path is empty")
	}
	s.mu.Lock()
	s.objects[path] = memoryObject{
		body:        append([]byte(nil), body...),
		contentType: contentType,
		uploadedAt:  s.now(),
	}
	s.mu.Unlock()
	return s.urls.urlFor(path), nil
}

func (s *MemoryStore) Get(_ context.Context, path string) ([]byte, objectstore.Object, error) {
	s.mu.RLock()
	o, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		return nil, objectstore.Object{}, fmt.Errorf("%w: %s", objectstore.ErrNotFound, path)
	}
	return append([]byte(nil), o.body...), s.describe(path, o), nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]objectstore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]objectstore.Object, 0)
	for path, o := range s.objects {
		if strings.HasPrefix(path, prefix) {
			out = append(out, s.describe(path, o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, url string) error {
	path, err := s.urls.pathFor(url)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	path, err := s.urls.pathFor(url)
	if err != nil {
		return nil, "", err
	}
	body, obj, err := s.Get(ctx, path)
	if err != nil {
		return nil, "", err
	}
	return body, obj.ContentType, nil
}

func (s *MemoryStore) describe(path string, o memoryObject) objectstore.Object {
	return objectstore.Object{
		Path:        path,
		URL:         s.urls.urlFor(path),
		ContentType: o.contentType,
		Size:        int64(len(o.body)),
		UploadedAt:  o.uploadedAt,
	}
}
