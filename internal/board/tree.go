package board

// Expansion tracks which parent tasks currently show their subtasks. It is
// process-local display state, reset on every restart.
type Expansion map[string]bool

func NewExpansion() Expansion {
	return make(Expansion)
}

func (e Expansion) Toggle(taskID string) {
	if e[taskID] {
		delete(e, taskID)
		return
	}
	e[taskID] = true
}

func (e Expansion) IsExpanded(taskID string) bool {
	return e[taskID]
}

// Row is one renderable line of a group: either a top-level task or, when
// its parent is expanded, a subtask. IsSubtask affects presentation only.
type Row struct {
	Task      ViewTask
	IsSubtask bool
	ParentID  string
}

// Rows flattens a group into display rows. Only parentless tasks appear at
// the top level; each expanded parent is immediately followed by its
// subtasks in their stored order.
func Rows(group Group, expanded Expansion) []Row {
	rows := make([]Row, 0, len(group.Tasks))
	for _, task := range group.Tasks {
		if task.ParentID != nil {
			continue
		}
		rows = append(rows, Row{Task: task})
		if len(task.Subtasks) == 0 || !expanded.IsExpanded(task.ID) {
			continue
		}
		for _, sub := range task.Subtasks {
			rows = append(rows, Row{Task: sub, IsSubtask: true, ParentID: task.ID})
		}
	}
	return rows
}

// SubtaskProgress reports the completed fraction of a parent's subtasks,
// judging each subtask by the supplied effective-done predicate so an
// optimistic overlay is reflected before the server confirms. Recomputed on
// every render pass, never cached. Returns 0 for tasks without subtasks.
func SubtaskProgress(parent ViewTask, done func(ViewTask) bool) float64 {
	if len(parent.Subtasks) == 0 {
		return 0
	}

	completed := 0
	for _, sub := range parent.Subtasks {
		if done(sub) {
			completed++
		}
	}
	return float64(completed) / float64(len(parent.Subtasks))
}
