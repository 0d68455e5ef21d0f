package progress

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/fanreel/internal/session"
)

type scriptedReader struct {
	mu      sync.Mutex
	results []readResult
	calls   int
	delay   time.Duration
}

type readResult struct {
	rec *session.Record
	err error
}

func (r *scriptedReader) Get(_ context.Context, _ string) (*session.Record, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	r.calls++
	if i >= len(r.results) {
		i = len(r.results) - 1
	}
	return r.results[i].rec, r.results[i].err
}

func collect(events *[]Event) EmitFunc {
	return func(e Event) error {
		*events = append(*events, e)
		return nil
	}
}

func rec(status session.Status, progress int) *session.Record {
	return &session.Record{SessionID: "s1", Status: status, Progress: progress, Assets: session.Assets{}}
}

func TestStream_TerminalSessionEmitsProgressThenDone(t *testing.T) {
	reader := &scriptedReader{results: []readResult{{rec: rec(session.StatusComplete, 100)}}}
	b := NewBroadcaster(reader, time.Millisecond, time.Second)

	var events []Event
	if err := b.Stream(context.Background(), "s1", collect(&events)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	if events[0].Type != EventConnected {
		t.Fatalf("expected connected first, got %s", events[0].Type)
	}
	if events[1].Type != EventProgress || events[1].Status != "complete" || *events[1].Progress != 100 {
		t.Fatalf("unexpected progress event: %+v", events[1])
	}
	if events[2].Type != EventDone || events[2].Session == nil || events[2].Session.SessionID != "s1" {
		t.Fatalf("unexpected done event: %+v", events[2])
	}
	if reader.calls != 1 {
		t.Fatalf("expected polling to stop after done, got %d reads", reader.calls)
	}
}

func TestStream_WaitsThenFollowsSession(t *testing.T) {
	reader := &scriptedReader{results: []readResult{
		{rec: nil},
		{rec: rec(session.StatusGeneratingPose1, 20)},
		{rec: rec(session.StatusError, 20)},
	}}
	b := NewBroadcaster(reader, time.Millisecond, time.Second)

	var events []Event
	if err := b.Stream(context.Background(), "s1", collect(&events)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, string(e.Type)+":"+e.Status)
	}
	want := "connected: progress:waiting progress:generating_pose1 progress:error done:"
	if got := strings.Join(types, " "); got != want {
		t.Fatalf("unexpected sequence:\n got %s\nwant %s", got, want)
	}
	if events[1].Message != "Waiting for session to initialize..." || *events[1].Progress != 0 {
		t.Fatalf("unexpected waiting event: %+v", events[1])
	}
}

func TestStream_TimesOutWhenSessionNeverAppears(t *testing.T) {
	reader := &scriptedReader{results: []readResult{{rec: nil}}}
	b := NewBroadcaster(reader, time.Millisecond, 20*time.Millisecond)

	var events []Event
	if err := b.Stream(context.Background(), "missing", collect(&events)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := events[len(events)-1]
	if last.Type != EventError || last.Error != "Session not found after timeout" {
		t.Fatalf("unexpected final event: %+v", last)
	}
	for _, e := range events[1 : len(events)-1] {
		if e.Status != "waiting" {
			t.Fatalf("expected only waiting events before the error, got %+v", e)
		}
	}
	if len(events) < 3 {
		t.Fatalf("expected at least one waiting event, got %+v", events)
	}
}

func TestStream_TimeoutIsMeasuredInWallClockTime(t *testing.T) {
	reader := &scriptedReader{results: []readResult{{rec: nil}}, delay: 30 * time.Millisecond}
	b := NewBroadcaster(reader, time.Millisecond, 100*time.Millisecond)

	var events []Event
	started := time.Now()
	if err := b.Stream(context.Background(), "missing", collect(&events)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One read may still be in flight when the deadline passes.
	if elapsed := time.Since(started); elapsed > 250*time.Millisecond {
		t.Fatalf("stream ran for %s with a 100ms wait", elapsed)
	}
	if last := events[len(events)-1]; last.Type != EventError {
		t.Fatalf("expected timeout error, got %+v", last)
	}
}

func TestStream_VanishedSessionIsReportedAndTimesOut(t *testing.T) {
	reader := &scriptedReader{results: []readResult{
		{rec: rec(session.StatusGeneratingPose1, 20)},
		{rec: nil},
	}}
	b := NewBroadcaster(reader, time.Millisecond, 20*time.Millisecond)

	var events []Event
	done := make(chan error, 1)
	go func() { done <- b.Stream(context.Background(), "s1", collect(&events)) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the session disappeared")
	}
	if events[1].Status != "generating_pose1" {
		t.Fatalf("expected the session to be reported first, got %+v", events[1])
	}
	if events[2].Status != "waiting" {
		t.Fatalf("expected waiting once the session is gone, got %+v", events[2])
	}
	if last := events[len(events)-1]; last.Type != EventError || last.Error != "Session not found after timeout" {
		t.Fatalf("unexpected final event: %+v", last)
	}
}

func TestStream_ReadErrorEmitsReconnecting(t *testing.T) {
	reader := &scriptedReader{results: []readResult{
		{err: errors.New("store unavailable")},
		{rec: rec(session.StatusComplete, 100)},
	}}
	b := NewBroadcaster(reader, time.Millisecond, time.Second)

	var events []Event
	if err := b.Stream(context.Background(), "s1", collect(&events)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[1].Message != "Reconnecting..." || events[1].Status != "waiting" || events[1].Progress == nil || *events[1].Progress != 0 {
		t.Fatalf("expected reconnecting event, got %+v", events[1])
	}
	if events[len(events)-1].Type != EventDone {
		t.Fatalf("expected stream to recover and finish, got %+v", events[len(events)-1])
	}
}

func TestStream_StopsOnCancel(t *testing.T) {
	reader := &scriptedReader{results: []readResult{{rec: rec(session.StatusGeneratingVideo, 70)}}}
	b := NewBroadcaster(reader, time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	err := b.Stream(ctx, "s1", func(e Event) error {
		count++
		if count == 3 {
			cancel()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count < 3 {
		t.Fatalf("expected at least 3 events before cancel, got %d", count)
	}
}

func TestStream_EmitErrorEndsStream(t *testing.T) {
	reader := &scriptedReader{results: []readResult{{rec: rec(session.StatusGeneratingVideo, 70)}}}
	b := NewBroadcaster(reader, time.Millisecond, time.Second)

	writeErr := errors.New("client gone")
	err := b.Stream(context.Background(), "s1", func(e Event) error {
		if e.Type == EventProgress {
			return writeErr
		}
		return nil
	})
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected emit error, got %v", err)
	}
}

func TestSSEWriter_FramesEvents(t *testing.T) {
	rr := httptest.NewRecorder()
	w, err := NewSSEWriter(rr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Emit(Event{Type: EventConnected}); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if err := w.Emit(waitingEvent(waitingMessage)); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	want := `data: {"type":"connected"}` + "\n\n" +
		`data: {"type":"progress","status":"waiting","progress":0,"message":"Waiting for session to initialize..."}` + "\n\n"
	if rr.Body.String() != want {
		t.Fatalf("unexpected body:\n%q", rr.Body.String())
	}
}
