package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rowanvell/lexboard/internal/api"
	"github.com/rowanvell/lexboard/internal/board"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))
	taskTemplate  = template.Must(template.ParseFS(templateFS, "templates/task.tmpl"))
)

// Server renders a read-only view of the grouped board. All interaction
// (completion toggles, expansion) lives in the TUI; this surface exists for
// quick glances from a browser or a phone.
type Server struct {
	source api.TaskSource
	userID string
}

type groupView struct {
	Label string
	Tasks []taskRow
}

type taskRow struct {
	Task        board.ViewTask
	IsSubtask   bool
	IndentPx    int
	ProgressPct int
}

func NewServer(source api.TaskSource, userID string) *Server {
	return &Server{source: source, userID: userID}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/tasks/", s.taskHandler)
	mux.HandleFunc("/api/board", s.apiBoardHandler)
	return mux
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	groups, stale, err := s.buildBoard(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	total := 0
	views := make([]groupView, 0, len(groups))
	for _, group := range groups {
		rows := buildTaskRows(group)
		total += len(group.Tasks)
		views = append(views, groupView{Label: group.Label, Tasks: rows})
	}

	data := struct {
		Total  int
		Stale  bool
		Groups []groupView
	}{Total: total, Stale: stale, Groups: views}

	if err := indexTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

// buildTaskRows expands every parent on the web board; there is no
// per-parent expansion state across stateless requests.
func buildTaskRows(group board.Group) []taskRow {
	expanded := board.NewExpansion()
	for _, task := range group.Tasks {
		if len(task.Subtasks) > 0 {
			expanded.Toggle(task.ID)
		}
	}

	rows := make([]taskRow, 0, len(group.Tasks))
	for _, row := range board.Rows(group, expanded) {
		item := taskRow{Task: row.Task, IsSubtask: row.IsSubtask}
		if row.IsSubtask {
			item.IndentPx = 20
		} else if len(row.Task.Subtasks) > 0 {
			progress := board.SubtaskProgress(row.Task, func(sub board.ViewTask) bool {
				return sub.Status == board.StatusDone
			})
			item.ProgressPct = int(progress * 100)
		}
		rows = append(rows, item)
	}
	return rows
}

func (s *Server) taskHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/")
	if id == "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("missing id"))
		return
	}

	tasks, _, err := s.source.Tasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	for _, raw := range tasks {
		if raw.ID != id {
			continue
		}
		task := board.Transform(raw, now)
		progress := board.SubtaskProgress(task, func(sub board.ViewTask) bool {
			return sub.Status == board.StatusDone
		})
		data := struct {
			Task        board.ViewTask
			ProgressPct int
		}{Task: task, ProgressPct: int(progress * 100)}
		if err := taskTemplate.Execute(w, data); err != nil {
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	writeError(w, http.StatusNotFound, fmt.Errorf("task %s not found", id))
}

func (s *Server) apiBoardHandler(w http.ResponseWriter, r *http.Request) {
	groups, stale, err := s.buildBoard(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	payload := struct {
		Stale  bool          `json:"stale"`
		Groups []board.Group `json:"groups"`
	}{Stale: stale, Groups: groups}
	writeJSON(w, payload)
}

func (s *Server) buildBoard(r *http.Request) ([]board.Group, bool, error) {
	tasks, stale, err := s.source.Tasks(r.Context())
	if err != nil {
		return nil, false, err
	}

	groups := board.Build(tasks, board.BuildOptions{
		Now:     time.Now(),
		UserID:  s.userID,
		Filter:  filterFromRequest(r),
		GroupBy: groupByFromRequest(r),
	})
	return groups, stale, nil
}

func filterFromRequest(r *http.Request) board.FilterState {
	filter := board.NewFilterState()
	query := r.URL.Query()

	filter.Search = strings.TrimSpace(query.Get("q"))
	filter.MineOnly = query.Get("mine") == "1" || query.Get("mine") == "true"

	for _, part := range splitParam(query.Get("status")) {
		filter.Statuses[board.Status(part)] = true
	}
	for _, part := range splitParam(query.Get("priority")) {
		filter.Priorities[board.Priority(part)] = true
	}
	for _, part := range splitParam(query.Get("case")) {
		filter.Cases[part] = true
	}

	switch bucket := board.DueBucket(strings.TrimSpace(query.Get("due"))); bucket {
	case board.DueOverdue, board.DueToday, board.DueThisWeek, board.DueNextWeek, board.DueNoDate:
		filter.Due = bucket
	}

	return filter
}

func groupByFromRequest(r *http.Request) board.GroupBy {
	switch dim := board.GroupBy(strings.TrimSpace(r.URL.Query().Get("group"))); dim {
	case board.GroupByNone, board.GroupByStatus, board.GroupByPriority, board.GroupByAssignee, board.GroupByDueDate:
		return dim
	}
	return board.GroupByStatus
}

func splitParam(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
