package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/rowanvell/lexboard/internal/board"
	"github.com/rowanvell/lexboard/internal/model"
)

type fakeSource struct {
	tasks []model.Task
	stale bool
	err   error
}

func (s *fakeSource) Tasks(ctx context.Context) ([]model.Task, bool, error) {
	return s.tasks, s.stale, s.err
}

type fakeUpdater struct {
	calls []string
	err   error
}

func (u *fakeUpdater) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	u.calls = append(u.calls, taskID+":"+status)
	return u.err
}

func strPtr(s string) *string { return &s }

func sampleTasks() []model.Task {
	return []model.Task{
		{
			ID:       "t1",
			Title:    "Draft motion",
			Status:   model.StatusPending,
			Priority: model.PriorityHigh,
			Case:     &model.Case{ID: "c1", CaseNumber: "2024-CV-001", Title: "Smith v. Jones"},
			Assignee: model.Assignee{ID: "u1", FirstName: "Ana", LastName: "Reyes"},
			Subtasks: []model.Task{
				{ID: "t1a", Title: "Outline", Status: model.StatusCompleted, Priority: model.PriorityMedium, ParentTaskID: strPtr("t1")},
				{ID: "t1b", Title: "Cite check", Status: model.StatusPending, Priority: model.PriorityMedium, ParentTaskID: strPtr("t1")},
			},
		},
		{
			ID:       "t2",
			Title:    "File answer",
			Status:   model.StatusInProgress,
			Priority: model.PriorityUrgent,
			Case:     &model.Case{ID: "c2", CaseNumber: "2024-CV-002", Title: "Estate of Park"},
			Assignee: model.Assignee{ID: "u2", FirstName: "Ben", LastName: "Ito"},
		},
	}
}

func newTestUI(source *fakeSource) *UI {
	ui := &UI{
		source:   source,
		userID:   "u1",
		filter:   board.NewFilterState(),
		groupBy:  board.GroupByStatus,
		expanded: board.NewExpansion(),
	}
	ui.completion = board.NewCompletionController(&fakeUpdater{}, func(context.Context) {})
	return ui
}

func TestLoadTasksBuildsGroupedRows(t *testing.T) {
	ui := newTestUI(&fakeSource{tasks: sampleTasks()})

	if err := ui.loadTasks(context.Background()); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if ui.status != "" {
		t.Fatalf("expected empty status, got %q", ui.status)
	}
	if len(ui.groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(ui.groups))
	}
	if ui.groups[0].Label != "Planned" || ui.groups[1].Label != "In Progress" {
		t.Fatalf("unexpected group order: %q, %q", ui.groups[0].Label, ui.groups[1].Label)
	}

	// A heading per group plus one task row each; subtasks stay collapsed.
	if len(ui.rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(ui.rows))
	}
	if ui.rows[0].kind != rowGroupHeader || ui.rows[1].kind != rowTask {
		t.Fatalf("unexpected row kinds")
	}
	if ui.rows[1].row.Task.ID != "t1" {
		t.Fatalf("expected t1 first, got %s", ui.rows[1].row.Task.ID)
	}
}

func TestLoadTasksStaleSnapshot(t *testing.T) {
	ui := newTestUI(&fakeSource{tasks: sampleTasks(), stale: true})

	if err := ui.loadTasks(context.Background()); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if !ui.stale {
		t.Fatalf("expected stale snapshot")
	}
	if ui.status != "offline: showing cached tasks" {
		t.Fatalf("unexpected status: %q", ui.status)
	}
}

func TestLoadTasksErrorKeepsUIAlive(t *testing.T) {
	ui := newTestUI(&fakeSource{err: errors.New("connection refused")})

	if err := ui.loadTasks(context.Background()); err != nil {
		t.Fatalf("load tasks should surface errors via status, got %v", err)
	}
	if ui.status != "connection refused" {
		t.Fatalf("unexpected status: %q", ui.status)
	}
}

func TestToggleExpandRevealsSubtasks(t *testing.T) {
	ui := newTestUI(&fakeSource{tasks: sampleTasks()})
	if err := ui.loadTasks(context.Background()); err != nil {
		t.Fatalf("load tasks: %v", err)
	}

	ui.selected = 1 // t1, which has subtasks
	if err := ui.toggleExpand(nil, nil); err != nil {
		t.Fatalf("toggle expand: %v", err)
	}
	if len(ui.rows) != 6 {
		t.Fatalf("expected 6 rows after expand, got %d", len(ui.rows))
	}
	if !ui.rows[2].row.IsSubtask || ui.rows[2].row.Task.ID != "t1a" {
		t.Fatalf("expected subtask t1a at row 2")
	}

	if err := ui.toggleExpand(nil, nil); err != nil {
		t.Fatalf("toggle expand again: %v", err)
	}
	if len(ui.rows) != 4 {
		t.Fatalf("expected 4 rows after collapse, got %d", len(ui.rows))
	}
}

func TestFormatRowSummaries(t *testing.T) {
	ui := newTestUI(&fakeSource{tasks: sampleTasks()})
	if err := ui.loadTasks(context.Background()); err != nil {
		t.Fatalf("load tasks: %v", err)
	}

	header := ui.formatRow(ui.rows[0])
	if header != "Planned (1)" {
		t.Fatalf("unexpected header: %q", header)
	}

	parent := ui.formatRow(ui.rows[1])
	want := "  + Draft motion | planned | high | 2024-CV-001 | 1/2"
	if parent != want {
		t.Fatalf("unexpected parent row:\n got %q\nwant %q", parent, want)
	}

	ui.expanded.Toggle("t1")
	ui.rows = flattenGroups(ui.groups, ui.expanded)
	sub := ui.formatRow(ui.rows[2])
	if sub != "    [x] Outline | done" {
		t.Fatalf("unexpected subtask row: %q", sub)
	}
}

func TestFilterChangesRebuildRows(t *testing.T) {
	ui := newTestUI(&fakeSource{tasks: sampleTasks()})
	if err := ui.loadTasks(context.Background()); err != nil {
		t.Fatalf("load tasks: %v", err)
	}

	if err := ui.toggleMine(nil, nil); err != nil {
		t.Fatalf("toggle mine: %v", err)
	}
	if len(ui.groups) != 1 || ui.groups[0].Tasks[0].ID != "t1" {
		t.Fatalf("expected only u1's task after mine filter")
	}

	if err := ui.clearFilters(nil, nil); err != nil {
		t.Fatalf("clear filters: %v", err)
	}
	if len(ui.groups) != 2 {
		t.Fatalf("expected both groups back after clear, got %d", len(ui.groups))
	}
}

func TestGroupingCycleWraps(t *testing.T) {
	order := []board.GroupBy{board.GroupByNone, board.GroupByStatus, board.GroupByPriority, board.GroupByAssignee, board.GroupByDueDate}
	current := board.GroupByNone
	for i := 1; i <= len(order); i++ {
		current = nextGrouping(current)
		if current != order[i%len(order)] {
			t.Fatalf("step %d: expected %s, got %s", i, order[i%len(order)], current)
		}
	}
}

func TestDueBucketCycleWraps(t *testing.T) {
	current := board.DueAll
	seen := map[board.DueBucket]bool{current: true}
	for i := 0; i < 5; i++ {
		current = nextDueBucket(current)
		if seen[current] && current != board.DueAll {
			t.Fatalf("bucket repeated before cycle completed: %s", current)
		}
		seen[current] = true
	}
	if current = nextDueBucket(current); current != board.DueAll {
		t.Fatalf("expected cycle back to all, got %s", current)
	}
}

func TestParseFilterFieldsRoundTrip(t *testing.T) {
	filter := board.NewFilterState()
	filter.Search = "motion"
	filter.MineOnly = true
	filter.Statuses[board.StatusPlanned] = true
	filter.Priorities[board.PriorityHigh] = true
	filter.Due = board.DueThisWeek

	fields := buildFilterFields(filter)
	fields[fieldCases].Value = "2024-CV-001, 9999-XX-000"

	got := parseFilterFields(fields, map[string]string{"2024-CV-001": "c1"})
	if got.Search != "motion" || !got.MineOnly {
		t.Fatalf("search/mine lost in round trip")
	}
	if !got.Statuses[board.StatusPlanned] || len(got.Statuses) != 1 {
		t.Fatalf("unexpected statuses: %v", got.Statuses)
	}
	if !got.Priorities[board.PriorityHigh] || len(got.Priorities) != 1 {
		t.Fatalf("unexpected priorities: %v", got.Priorities)
	}
	if !got.Cases["c1"] || len(got.Cases) != 1 {
		t.Fatalf("expected unknown case numbers dropped, got %v", got.Cases)
	}
	if got.Due != board.DueThisWeek {
		t.Fatalf("unexpected due bucket: %s", got.Due)
	}
}

func TestCaseOptionsFirstAppearanceOrder(t *testing.T) {
	ui := newTestUI(&fakeSource{tasks: sampleTasks()})
	if err := ui.loadTasks(context.Background()); err != nil {
		t.Fatalf("load tasks: %v", err)
	}

	options := ui.caseOptions()
	if len(options) != 2 || options[0] != "2024-CV-001" || options[1] != "2024-CV-002" {
		t.Fatalf("unexpected case options: %v", options)
	}

	byNumber := ui.caseIDByNumber()
	if byNumber["2024-CV-002"] != "c2" {
		t.Fatalf("unexpected case id map: %v", byNumber)
	}
}
