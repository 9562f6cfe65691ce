package board

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rowanvell/lexboard/internal/model"
)

// Status is the display status shown on the board, distinct from the raw
// API enum.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Priority is the display priority shown on the board.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ViewTask is the display-ready record derived from a raw API task. It is
// recomputed from scratch on every fetch and never stored.
type ViewTask struct {
	ID          string
	Title       string
	Description *string
	Status      Status
	Priority    Priority
	DueLabel    string
	Duration    *string
	Assignee    model.Assignee
	Case        *model.Case
	ParentID    *string
	Subtasks    []ViewTask
	Activity    []string
}

// Transform derives a ViewTask from a raw task. It is total: missing
// optional fields stay nil and unknown enum values fall back to their
// defaults rather than failing. Due labels are derived relative to now, so
// a ViewTask built yesterday is not reusable today.
func Transform(task model.Task, now time.Time) ViewTask {
	view := ViewTask{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      displayStatus(task.Status),
		Priority:    displayPriority(task.Priority),
		DueLabel:    dueLabel(task.DueDate, now),
		Duration:    durationLabel(task.EstimatedHours),
		Assignee:    task.Assignee,
		Case:        task.Case,
		ParentID:    task.ParentTaskID,
		Activity:    []string{},
	}

	view.Subtasks = make([]ViewTask, 0, len(task.Subtasks))
	for _, sub := range task.Subtasks {
		view.Subtasks = append(view.Subtasks, Transform(sub, now))
	}

	return view
}

func displayStatus(raw string) Status {
	switch raw {
	case model.StatusPending, "Pending":
		return StatusPlanned
	case model.StatusInProgress, "InProgress":
		return StatusInProgress
	case model.StatusCompleted, "Completed":
		return StatusDone
	case model.StatusCancelled, "Cancelled":
		// Cancelled tasks render as done. Deliberate display
		// simplification carried over from the web board.
		return StatusDone
	default:
		return StatusPlanned
	}
}

func displayPriority(raw string) Priority {
	switch raw {
	case model.PriorityUrgent, "Urgent":
		return PriorityUrgent
	case model.PriorityHigh, "High":
		return PriorityHigh
	case model.PriorityMedium, "Medium":
		return PriorityMedium
	case model.PriorityLow, "Low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

const dueDateFormat = "2006-01-02"

// dueLabel renders a calendar date as "Today", "Tomorrow", "Yesterday" or a
// short "2 Jan" form. Unparseable or missing dates produce an empty label.
func dueLabel(raw *string, now time.Time) string {
	if raw == nil {
		return ""
	}
	due, err := time.Parse(dueDateFormat, *raw)
	if err != nil {
		return ""
	}

	// The API sends a bare calendar date; anchor it in now's location so
	// day comparisons are not skewed by the parse defaulting to UTC.
	today := startOfDay(now)
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case dueDay.Equal(today):
		return "Today"
	case dueDay.Equal(today.AddDate(0, 0, 1)):
		return "Tomorrow"
	case dueDay.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	}
	return due.Format("2 Jan")
}

func durationLabel(hours *float64) *string {
	if hours == nil {
		return nil
	}

	var label string
	switch {
	case *hours < 1:
		label = fmt.Sprintf("%dm", int(math.Round(*hours*60)))
	case *hours == 1:
		label = "1h"
	default:
		label = strconv.FormatFloat(*hours, 'f', -1, 64) + "h"
	}
	return &label
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
