package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rowanvell/lexboard/internal/board"
)

type rowKind int

const (
	rowGroupHeader rowKind = iota
	rowTask
)

// boardRow is one line of the board pane: either a group heading or a task
// row produced by the hierarchy renderer.
type boardRow struct {
	kind  rowKind
	group int
	row   board.Row
}

func now() time.Time {
	return time.Now()
}

// flattenGroups turns ordered groups into the board pane's line list: a
// heading per group followed by its visible rows.
func flattenGroups(groups []board.Group, expanded board.Expansion) []boardRow {
	rows := make([]boardRow, 0)
	for i, group := range groups {
		rows = append(rows, boardRow{kind: rowGroupHeader, group: i})
		for _, row := range board.Rows(group, expanded) {
			rows = append(rows, boardRow{kind: rowTask, group: i, row: row})
		}
	}
	return rows
}

func (u *UI) formatRow(row boardRow) string {
	if row.kind == rowGroupHeader {
		group := u.groups[row.group]
		return fmt.Sprintf("%s (%d)", group.Label, len(group.Tasks))
	}
	if row.row.IsSubtask {
		return "    " + formatSubtaskSummary(row.row.Task, u.completion.Done(row.row.Task))
	}
	return "  " + u.formatParentSummary(row.row.Task)
}

func (u *UI) formatParentSummary(task board.ViewTask) string {
	marker := " "
	if len(task.Subtasks) > 0 {
		if u.expanded.IsExpanded(task.ID) {
			marker = "-"
		} else {
			marker = "+"
		}
	}

	parts := []string{task.Title, string(task.Status), string(task.Priority)}
	if task.DueLabel != "" {
		parts = append(parts, task.DueLabel)
	}
	if task.Case != nil {
		parts = append(parts, task.Case.CaseNumber)
	}
	if len(task.Subtasks) > 0 {
		done := 0
		for _, sub := range task.Subtasks {
			if u.completion.Done(sub) {
				done++
			}
		}
		parts = append(parts, fmt.Sprintf("%d/%d", done, len(task.Subtasks)))
	}

	return fmt.Sprintf("%s %s", marker, strings.Join(parts, " | "))
}

// Subtask rows render smaller: no case number, just a checkbox and status.
func formatSubtaskSummary(task board.ViewTask, done bool) string {
	checkbox := "[ ]"
	if done {
		checkbox = "[x]"
	}
	return fmt.Sprintf("%s %s | %s", checkbox, task.Title, task.Status)
}

func formatStatusSet(statuses map[board.Status]bool) string {
	if len(statuses) == 0 {
		return "any"
	}
	parts := make([]string, 0, len(statuses))
	for status := range statuses {
		parts = append(parts, string(status))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func formatPrioritySet(priorities map[board.Priority]bool) string {
	if len(priorities) == 0 {
		return "any"
	}
	parts := make([]string, 0, len(priorities))
	for priority := range priorities {
		parts = append(parts, string(priority))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func formatDueBucket(bucket board.DueBucket) string {
	if bucket == "" || bucket == board.DueAll {
		return "any"
	}
	return string(bucket)
}

func valueOrNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return "none"
	}
	return value
}

func optionalOrNone(value *string) string {
	if value == nil {
		return "none"
	}
	return valueOrNone(*value)
}
