package board

import (
	"context"
	"log"
	"sync"

	"github.com/rowanvell/lexboard/internal/model"
)

// TaskUpdater issues the UpdateTask mutation carrying a new raw status.
type TaskUpdater interface {
	UpdateTaskStatus(ctx context.Context, taskID, status string) error
}

// CompletionController applies subtask completion toggles optimistically:
// the local overlay flips before the mutation is issued, a successful
// mutation triggers a refetch and leaves the overlay to reconcile against
// the next snapshot, and a failed mutation restores the overlay exactly to
// its pre-toggle value. Failures are logged, never surfaced; there is no
// retry and no coalescing, so rapid repeated toggles on one task resolve
// last-write-wins.
type CompletionController struct {
	mu      sync.Mutex
	overlay map[string]bool

	updater TaskUpdater
	refetch func(context.Context)
	logf    func(format string, args ...any)
}

func NewCompletionController(updater TaskUpdater, refetch func(context.Context)) *CompletionController {
	return &CompletionController{
		overlay: make(map[string]bool),
		updater: updater,
		refetch: refetch,
		logf:    log.Printf,
	}
}

// Done reports the effective completion state: the overlay when present,
// the persisted display status otherwise.
func (c *CompletionController) Done(task ViewTask) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doneLocked(task)
}

func (c *CompletionController) doneLocked(task ViewTask) bool {
	if value, ok := c.overlay[task.ID]; ok {
		return value
	}
	return task.Status == StatusDone
}

// EffectiveStatus is the display status after the overlay is applied. The
// toggle only ever moves between done and in-progress; planned and review
// are left alone until the server says otherwise.
func (c *CompletionController) EffectiveStatus(task ViewTask) Status {
	c.mu.Lock()
	value, ok := c.overlay[task.ID]
	c.mu.Unlock()

	if !ok {
		return task.Status
	}
	if value {
		return StatusDone
	}
	return StatusInProgress
}

// Toggle flips the task's effective completion state. The overlay mutation
// happens before the network round-trip so the caller can re-render
// immediately.
func (c *CompletionController) Toggle(ctx context.Context, task ViewTask) {
	c.mu.Lock()
	prev, hadPrev := c.overlay[task.ID]
	newDone := !c.doneLocked(task)
	c.overlay[task.ID] = newDone
	c.mu.Unlock()

	status := model.StatusInProgress
	if newDone {
		status = model.StatusCompleted
	}

	if err := c.updater.UpdateTaskStatus(ctx, task.ID, status); err != nil {
		c.mu.Lock()
		if hadPrev {
			c.overlay[task.ID] = prev
		} else {
			delete(c.overlay, task.ID)
		}
		c.mu.Unlock()
		c.logf("update task %s: %v", task.ID, err)
		return
	}

	if c.refetch != nil {
		c.refetch(ctx)
	}
}
