package alarm

import (
	"testing"
	"time"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if _, err := engine.ScheduleAt(now.Add(80*time.Millisecond), Payload{TaskID: "later"}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if _, err := engine.ScheduleAt(now.Add(20*time.Millisecond), Payload{TaskID: "sooner"}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitEvent(t, engine.C(), time.Second)
	second := waitEvent(t, engine.C(), time.Second)
	if first.Payload.TaskID != "sooner" || second.Payload.TaskID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.Payload.TaskID, second.Payload.TaskID)
	}
}

func TestCancelledTriggerNeverFires(t *testing.T) {
	engine := NewEngine(4)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	cancelled, err := engine.ScheduleAt(now.Add(30*time.Millisecond), Payload{TaskID: "cancelled"})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := engine.ScheduleAt(now.Add(60*time.Millisecond), Payload{TaskID: "kept"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	engine.Cancel(cancelled)

	ev := waitEvent(t, engine.C(), time.Second)
	if ev.Payload.TaskID != "kept" {
		t.Fatalf("cancelled trigger fired: %s", ev.Payload.TaskID)
	}
}

func TestCancelIsIdempotentAndTolerant(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	handle, err := engine.ScheduleAt(time.Now().Add(time.Hour), Payload{TaskID: "t1"})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	// Unknown, repeated, and empty handles must all be tolerated.
	engine.Cancel("no-such-handle")
	engine.Cancel(handle)
	engine.Cancel(handle)
	engine.Cancel("")

	if got := engine.Armed(); got != 0 {
		t.Fatalf("expected 0 armed triggers, got %d", got)
	}
}

func TestArmedCountsPendingTriggers(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	far := time.Now().Add(time.Hour)
	h1, _ := engine.ScheduleAt(far, Payload{TaskID: "t1"})
	if _, err := engine.ScheduleAt(far.Add(time.Minute), Payload{TaskID: "t2"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got := engine.Armed(); got != 2 {
		t.Fatalf("expected 2 armed, got %d", got)
	}
	engine.Cancel(h1)
	if got := engine.Armed(); got != 1 {
		t.Fatalf("expected 1 armed after cancel, got %d", got)
	}
}

func TestScheduleValidatesTriggerTime(t *testing.T) {
	engine := NewEngine(1)
	if _, err := engine.ScheduleAt(time.Time{}, Payload{TaskID: "bad"}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func TestScheduleAfterStopFails(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	engine.Stop()
	if _, err := engine.ScheduleAt(time.Now().Add(time.Minute), Payload{}); err != ErrEngineStopped {
		t.Fatalf("expected ErrEngineStopped, got %v", err)
	}
}

func waitEvent(t *testing.T, ch <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}
