package objectstore

import (
	"context"
	"errors"
	"testing"

	"github.com/foxseedlab/fanreel/internal/objectstore"
)

func TestMemoryStore_PutFetchDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://localhost:8080/")

	url, err := s.Put(ctx, "sessions/abc/metadata.json", []byte(`{"sessionId":"abc"}`), "application/json")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "http://localhost:8080/blobs/sessions/abc/metadata.json" {
		t.Fatalf("unexpected url: %s", url)
	}

	body, ct, err := s.Fetch(ctx, url)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != `{"sessionId":"abc"}` || ct != "application/json" {
		t.Fatalf("unexpected fetch: %q %s", body, ct)
	}

	if err := s.Delete(ctx, url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := s.Fetch(ctx, url); !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMemoryStore_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://localhost:8080")
	first, _ := s.Put(ctx, "sessions/abc/video.mp4", []byte("v1"), "video/mp4")
	second, _ := s.Put(ctx, "sessions/abc/video.mp4", []byte("v2"), "video/mp4")
	if first != second {
		t.Fatalf("expected stable url, got %s and %s", first, second)
	}
	body, obj, err := s.Get(ctx, "sessions/abc/video.mp4")
	if err != nil || string(body) != "v2" || obj.Size != 2 {
		t.Fatalf("unexpected object: %q %+v %v", body, obj, err)
	}
}

func TestMemoryStore_ListByPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://localhost:8080")
	for _, p := range []string{"sessions/b/metadata.json", "sessions/a/metadata.json", "sessions/ab/metadata.json", "other/x"} {
		if _, err := s.Put(ctx, p, []byte("x"), "text/plain"); err != nil {
			t.Fatalf("put %s: %v", p, err)
		}
	}
	got, err := s.List(ctx, "sessions/a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Path != "sessions/a/metadata.json" || got[1].Path != "sessions/ab/metadata.json" {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if got[0].UploadedAt.IsZero() {
		t.Fatal("expected upload time")
	}
}

func TestMemoryStore_ForeignURL(t *testing.T) {
	s := NewMemoryStore("http://localhost:8080")
	if _, _, err := s.Fetch(context.Background(), "https://elsewhere.test/blobs/x"); !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("expected not found for foreign url, got %v", err)
	}
}

func TestLikePrefix(t *testing.T) {
	cases := map[string]string{
		"sessions/abc/metadata.json": "sessions/abc/metadata.json%",
		"sessions/a_b%":              `sessions/a\_b\%%`,
		`back\slash`:                 `back\\slash%`,
	}
	for in, want := range cases {
		if got := likePrefix(in); got != want {
			t.Fatalf("likePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
