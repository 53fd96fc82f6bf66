package activation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// captureSink records delivered events in memory.
type captureSink struct {
	mu     sync.Mutex
	events []*Event
	err    error
	closed bool
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Deliver(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func testEvent(id string) *Event {
	return &Event{
		Timestamp:  time.Now().UTC(),
		AnalysisID: id,
		Score:      0.42,
		Status:     "Warning - Possible Manipulation",
	}
}

func TestEmitterDelivers(t *testing.T) {
	sink := &captureSink{}
	em := NewEmitter(EmitterConfig{QueueSize: 8, Workers: 1}, []Sink{sink})

	for i := 0; i < 5; i++ {
		em.Emit(context.Background(), testEvent("a"))
	}
	em.Close(context.Background())

	if got := sink.count(); got != 5 {
		t.Fatalf("delivered %d events, want 5", got)
	}
	if !sink.closed {
		t.Fatal("sink not closed")
	}

	m := em.MetricsSnapshot()
	if m.Enqueued() != 5 || m.Dropped() != 0 {
		t.Fatalf("counters = (%d enqueued, %d dropped)", m.Enqueued(), m.Dropped())
	}
	if m.SinkSuccess("capture") != 5 {
		t.Fatalf("sink successes = %d", m.SinkSuccess("capture"))
	}
}

func TestEmitterDropsWhenFull(t *testing.T) {
	// Block the single worker so the queue backs up.
	release := make(chan struct{})
	blocking := &blockingSink{release: release}
	em := NewEmitter(EmitterConfig{QueueSize: 1, Workers: 1, ShutdownTimeout: time.Second}, []Sink{blocking})

	// First event occupies the worker, second fills the queue, the rest drop.
	for i := 0; i < 10; i++ {
		em.Emit(context.Background(), testEvent("b"))
	}
	close(release)
	em.Close(context.Background())

	m := em.MetricsSnapshot()
	if m.Dropped() == 0 {
		t.Fatal("expected dropped events with a full queue")
	}
	if m.Enqueued()+m.Dropped() != 10 {
		t.Fatalf("enqueued %d + dropped %d != 10", m.Enqueued(), m.Dropped())
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Name() string { return "blocking" }
func (s *blockingSink) Deliver(_ context.Context, _ *Event) error {
	<-s.release
	return nil
}
func (s *blockingSink) Close(context.Context) error { return nil }

func TestEmitterCountsSinkFailures(t *testing.T) {
	sink := &captureSink{err: errors.New("boom")}
	em := NewEmitter(EmitterConfig{QueueSize: 4, Workers: 1}, []Sink{sink})

	em.Emit(context.Background(), testEvent("c"))
	em.Close(context.Background())

	m := em.MetricsSnapshot()
	if m.SinkFailure("capture") != 1 {
		t.Fatalf("sink failures = %d, want 1", m.SinkFailure("capture"))
	}
}

func TestEmitAfterClose(t *testing.T) {
	sink := &captureSink{}
	em := NewEmitter(EmitterConfig{}, []Sink{sink})
	em.Close(context.Background())

	em.Emit(context.Background(), testEvent("d"))
	m := em.MetricsSnapshot()
	if m.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", m.Dropped())
	}

	// A second close is a no-op.
	em.Close(context.Background())
}

func TestNilEmitterIsSafe(t *testing.T) {
	var em *Emitter
	em.Emit(context.Background(), testEvent("e"))
	em.Close(context.Background())
}
