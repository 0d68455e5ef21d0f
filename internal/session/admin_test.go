package session

import (
	"context"
	"testing"
	"time"
)

func TestListSessions_SkipsUnreadable(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjects()
	s := NewStore(objects)
	_, _ = s.Create(ctx, CreateInput{TeamID: "t", SessionID: "a"})
	_, _ = s.Create(ctx, CreateInput{TeamID: "t", SessionID: "b"})
	objects.putAt("sessions/c/metadata.json", []byte("oops"), "text/plain", time.Now())
	objects.putAt("sessions/a/selfie.png", []byte("png"), "image/png", time.Now())

	summaries, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 readable sessions, got %+v", summaries)
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjects()
	s := NewStore(objects)
	_, _ = s.Create(ctx, CreateInput{TeamID: "t", SessionID: "a"})
	_, _ = s.UploadAsset(ctx, "a", AssetSelfie, []byte("png"), "image/png")
	objects.putAt("other/keep.txt", []byte("x"), "text/plain", time.Now())

	res, err := s.ClearAll(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if res.DeletedCount != 2 || len(res.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := s.CachedURL("a"); ok {
		t.Fatal("expected url cache reset")
	}
	if rec, _ := s.Get(ctx, "a"); rec != nil {
		t.Fatalf("expected session gone, got %+v", rec)
	}
	if _, _, err := objects.Get(ctx, "other/keep.txt"); err != nil {
		t.Fatal("objects outside sessions/ must be kept")
	}
}

func TestCleanup_DeletesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjects()
	s := NewStore(objects)
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	objects.putAt("sessions/old/metadata.json", []byte("{}"), "application/json", now.Add(-8*24*time.Hour))
	objects.putAt("sessions/new/metadata.json", []byte("{}"), "application/json", now.Add(-time.Hour))

	deleted, err := s.Cleanup(ctx, 0)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 || len(objects.deleted) != 1 || objects.deleted[0] != "sessions/old/metadata.json" {
		t.Fatalf("unexpected deletions: %d %v", deleted, objects.deleted)
	}
}
