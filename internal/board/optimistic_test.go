package board

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type recordingUpdater struct {
	calls []string
	err   error

	// observe runs inside UpdateTaskStatus so tests can see the overlay
	// state at the moment the request goes out.
	observe func()
}

func (u *recordingUpdater) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	u.calls = append(u.calls, fmt.Sprintf("%s:%s", taskID, status))
	if u.observe != nil {
		u.observe()
	}
	return u.err
}

func newTestController(updater TaskUpdater) (*CompletionController, *int) {
	refetches := 0
	controller := NewCompletionController(updater, func(context.Context) { refetches++ })
	controller.logf = func(string, ...any) {}
	return controller, &refetches
}

func TestToggleFlipsBeforeRequest(t *testing.T) {
	sub := ViewTask{ID: "sub1", Status: StatusPlanned}

	updater := &recordingUpdater{}
	controller, refetches := newTestController(updater)
	updater.observe = func() {
		if !controller.Done(sub) {
			t.Fatalf("expected overlay flipped before the request was issued")
		}
	}

	controller.Toggle(context.Background(), sub)

	if len(updater.calls) != 1 || updater.calls[0] != "sub1:COMPLETED" {
		t.Fatalf("unexpected mutation calls: %v", updater.calls)
	}
	if *refetches != 1 {
		t.Fatalf("expected one refetch after success, got %d", *refetches)
	}
	if !controller.Done(sub) {
		t.Fatalf("expected subtask done after toggle")
	}
	if controller.EffectiveStatus(sub) != StatusDone {
		t.Fatalf("expected effective status done")
	}
}

func TestToggleUncompletesToInProgress(t *testing.T) {
	// The toggle is binary: un-completing always lands on in-progress,
	// never back on planned or review.
	sub := ViewTask{ID: "sub1", Status: StatusDone}

	updater := &recordingUpdater{}
	controller, _ := newTestController(updater)

	controller.Toggle(context.Background(), sub)
	if updater.calls[0] != "sub1:IN_PROGRESS" {
		t.Fatalf("unexpected mutation: %v", updater.calls)
	}
	if controller.Done(sub) {
		t.Fatalf("expected subtask no longer done")
	}
	if controller.EffectiveStatus(sub) != StatusInProgress {
		t.Fatalf("expected effective status in-progress, got %s", controller.EffectiveStatus(sub))
	}
}

func TestToggleRollsBackOnFailure(t *testing.T) {
	sub := ViewTask{ID: "sub1", Status: StatusPlanned}

	updater := &recordingUpdater{err: errors.New("boom")}
	controller, refetches := newTestController(updater)

	logged := ""
	controller.logf = func(format string, args ...any) {
		logged = fmt.Sprintf(format, args...)
	}

	controller.Toggle(context.Background(), sub)

	if controller.Done(sub) {
		t.Fatalf("expected overlay restored after failure")
	}
	if controller.EffectiveStatus(sub) != StatusPlanned {
		t.Fatalf("expected persisted status untouched, got %s", controller.EffectiveStatus(sub))
	}
	if *refetches != 0 {
		t.Fatalf("expected no refetch after failure")
	}
	if logged != "update task sub1: boom" {
		t.Fatalf("unexpected log line: %q", logged)
	}
}

func TestFailedToggleRestoresPriorOverlay(t *testing.T) {
	sub := ViewTask{ID: "sub1", Status: StatusPlanned}

	updater := &recordingUpdater{}
	controller, _ := newTestController(updater)

	// First toggle succeeds and leaves an overlay entry.
	controller.Toggle(context.Background(), sub)
	if !controller.Done(sub) {
		t.Fatalf("expected done after first toggle")
	}

	// Second toggle fails; the rollback must land on the first toggle's
	// value, not on the persisted status.
	updater.err = errors.New("boom")
	controller.Toggle(context.Background(), sub)
	if !controller.Done(sub) {
		t.Fatalf("expected rollback to the prior overlay value")
	}
}

func TestRepeatedTogglesAreLastWriteWins(t *testing.T) {
	sub := ViewTask{ID: "sub1", Status: StatusPlanned}

	updater := &recordingUpdater{}
	controller, _ := newTestController(updater)

	controller.Toggle(context.Background(), sub)
	controller.Toggle(context.Background(), sub)
	controller.Toggle(context.Background(), sub)

	want := []string{"sub1:COMPLETED", "sub1:IN_PROGRESS", "sub1:COMPLETED"}
	if len(updater.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), updater.calls)
	}
	for i := range want {
		if updater.calls[i] != want[i] {
			t.Fatalf("call %d: expected %s, got %s", i, want[i], updater.calls[i])
		}
	}
	if !controller.Done(sub) {
		t.Fatalf("expected done after an odd number of toggles")
	}
}

func TestOverlayDrivesSubtaskProgress(t *testing.T) {
	parent := ViewTask{
		ID: "parent",
		Subtasks: []ViewTask{
			{ID: "sub1", Status: StatusDone},
			{ID: "sub2", Status: StatusPlanned},
		},
	}

	updater := &recordingUpdater{}
	controller, _ := newTestController(updater)

	if got := SubtaskProgress(parent, controller.Done); got != 0.5 {
		t.Fatalf("expected 0.5 before toggle, got %v", got)
	}

	controller.Toggle(context.Background(), parent.Subtasks[1])
	if got := SubtaskProgress(parent, controller.Done); got != 1.0 {
		t.Fatalf("expected 1.0 after toggle, got %v", got)
	}
}

func TestEffectiveStatusWithoutOverlay(t *testing.T) {
	controller, _ := newTestController(&recordingUpdater{})

	for _, status := range []Status{StatusPlanned, StatusInProgress, StatusReview, StatusDone} {
		task := ViewTask{ID: "t", Status: status}
		if got := controller.EffectiveStatus(task); got != status {
			t.Fatalf("status %s: expected passthrough, got %s", status, got)
		}
	}
}
