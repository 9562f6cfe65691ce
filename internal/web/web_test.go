package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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

func strPtr(s string) *string { return &s }

func webFixture() []model.Task {
	return []model.Task{
		{
			ID:       "t1",
			Title:    "Draft motion",
			Status:   model.StatusPending,
			Priority: model.PriorityHigh,
			Case:     &model.Case{ID: "c1", CaseNumber: "2024-CV-001", Title: "Smith v. Jones"},
			Assignee: model.Assignee{ID: "u1", FirstName: "Ana", LastName: "Reyes"},
			Subtasks: []model.Task{
				{ID: "t1a", Title: "Outline", Status: model.StatusCompleted, ParentTaskID: strPtr("t1")},
				{ID: "t1b", Title: "Cite check", Status: model.StatusPending, ParentTaskID: strPtr("t1")},
			},
		},
		{
			ID:       "t2",
			Title:    "File answer",
			Status:   model.StatusInProgress,
			Priority: model.PriorityUrgent,
			Assignee: model.Assignee{ID: "u2", FirstName: "Ben", LastName: "Ito"},
		},
	}
}

func TestIndexRendersGroupedBoard(t *testing.T) {
	handler := NewServer(&fakeSource{tasks: webFixture()}, "u1").Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Draft motion", "File answer", "Planned", "In Progress", "Outline", "2024-CV-001"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
}

func TestIndexShowsStaleBanner(t *testing.T) {
	handler := NewServer(&fakeSource{tasks: webFixture(), stale: true}, "").Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Body.String(), "cached") {
		t.Fatalf("expected stale banner in body")
	}
}

func TestAPIBoardAppliesQueryFilters(t *testing.T) {
	handler := NewServer(&fakeSource{tasks: webFixture()}, "u1").Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/board?status=planned&group=priority", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Stale  bool          `json:"stale"`
		Groups []board.Group `json:"groups"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Groups) != 1 {
		t.Fatalf("expected 1 group after filtering, got %d", len(payload.Groups))
	}
	if payload.Groups[0].Key != "high" {
		t.Fatalf("expected the high priority bucket, got %s", payload.Groups[0].Key)
	}
	if len(payload.Groups[0].Tasks) != 1 || payload.Groups[0].Tasks[0].ID != "t1" {
		t.Fatalf("unexpected bucket contents")
	}
}

func TestAPIBoardMineFilter(t *testing.T) {
	handler := NewServer(&fakeSource{tasks: webFixture()}, "u2").Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/board?mine=1", nil))

	var payload struct {
		Groups []board.Group `json:"groups"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Groups) != 1 || payload.Groups[0].Tasks[0].ID != "t2" {
		t.Fatalf("expected only u2's task")
	}
}

func TestTaskPage(t *testing.T) {
	handler := NewServer(&fakeSource{tasks: webFixture()}, "").Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/t1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Draft motion") || !strings.Contains(body, "Outline") {
		t.Fatalf("expected task detail with subtasks")
	}
	if !strings.Contains(body, "50%") {
		t.Fatalf("expected 50%% subtask progress")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown task, got %d", rec.Code)
	}
}

func TestSourceErrorsReturn500(t *testing.T) {
	handler := NewServer(&fakeSource{err: context.DeadlineExceeded}, "").Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
