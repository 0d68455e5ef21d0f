package pipeline

import (
	"errors"
	"testing"
)

func TestParseDataURL(t *testing.T) {
	body, ct, err := parseDataURL("data:image/jpeg;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "hello" || ct != "image/jpeg" {
		t.Fatalf("unexpected result: %q %q", body, ct)
	}
}

func TestParseDataURL_DefaultsContentType(t *testing.T) {
	_, ct, err := parseDataURL("data:;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
}

func TestParseDataURL_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"https://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,aGVsbG8=",
		"data:image/png;base64,!!!",
		"data:image/png;base64,",
	} {
		if _, _, err := parseDataURL(in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected invalid input for %q, got %v", in, err)
		}
	}
}
