// Package board implements the task-board view engine: it turns raw API
// task records into filtered, grouped, display-ready buckets and carries
// the client-only interaction state (expansion, optimistic completion).
package board

import (
	"time"

	"github.com/rowanvell/lexboard/internal/model"
)

// BuildOptions parameterizes one render pass.
type BuildOptions struct {
	Now     time.Time
	UserID  string
	Filter  FilterState
	GroupBy GroupBy
}

// Build runs the full pipeline for one data snapshot: transform every raw
// task, cut tasks that belong under a parent out of the top level, apply
// the filter stages, then group and order. The stages run synchronously in
// that fixed order and the input is never mutated.
func Build(raw []model.Task, opts BuildOptions) []Group {
	views := make([]ViewTask, 0, len(raw))
	for _, task := range raw {
		view := Transform(task, opts.Now)
		if view.ParentID != nil {
			// Subtasks only ever render nested under their parent.
			continue
		}
		views = append(views, view)
	}

	views = ApplyFilters(views, opts.Filter, opts.UserID, opts.Now)
	return OrderGroups(GroupTasks(views, opts.GroupBy), opts.GroupBy)
}
