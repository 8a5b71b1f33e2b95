package system

import (
	"context"
	"errors"
	"testing"
)

type recordedService struct {
	name     string
	startErr error
	events   *[]string
}

func (s recordedService) Name() string { return s.name }

func (s recordedService) Start(_ context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	*s.events = append(*s.events, "start:"+s.name)
	return nil
}

func (s recordedService) Stop(_ context.Context) error {
	*s.events = append(*s.events, "stop:"+s.name)
	return nil
}

func TestManagerStartStopOrder(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	var events []string

	for _, name := range []string{"store", "sweeper", "server"} {
		if err := m.Register(recordedService{name: name, events: &events}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{
		"start:store", "start:sweeper", "start:server",
		"stop:server", "stop:sweeper", "stop:store",
	}
	if len(events) != len(want) {
		t.Fatalf("events %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event[%d] = %s, want %s", i, events[i], want[i])
		}
	}
}

func TestManagerStartFailureUnwinds(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	var events []string

	boom := errors.New("boom")
	_ = m.Register(recordedService{name: "first", events: &events})
	_ = m.Register(recordedService{name: "second", startErr: boom, events: &events})

	if err := m.Start(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected start failure, got %v", err)
	}
	// The already-started service must have been stopped.
	if len(events) != 2 || events[1] != "stop:first" {
		t.Fatalf("events %v, want unwind of first", events)
	}

	// The manager is reusable after a failed start.
	if err := m.Register(recordedService{name: "third", events: &events}); err != nil {
		t.Fatalf("register after failed start: %v", err)
	}
}

func TestManagerRejectsDuplicates(t *testing.T) {
	m := NewManager()
	var events []string

	if err := m.Register(recordedService{name: "dup", events: &events}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(recordedService{name: "dup", events: &events}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if err := m.Register(nil); err == nil {
		t.Fatal("expected nil service to be rejected")
	}
}
