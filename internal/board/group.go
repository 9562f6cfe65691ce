package board

import "sort"

// GroupBy selects the dimension tasks are bucketed under.
type GroupBy string

const (
	GroupByNone     GroupBy = "none"
	GroupByStatus   GroupBy = "status"
	GroupByPriority GroupBy = "priority"
	GroupByAssignee GroupBy = "assignee"
	GroupByDueDate  GroupBy = "dueDate"
)

// Group is a named bucket of tasks sharing a key under the active dimension.
type Group struct {
	Key   string
	Label string
	Tasks []ViewTask
}

// GroupTasks partitions tasks into buckets keyed by the grouping dimension.
// Buckets appear in the order their first member appears in the input, and
// relative input order is preserved within each bucket. Assignee buckets key
// by assignee id, not name, so two people with the same name stay separate.
// Due-date buckets key by the formatted label, so distinct dates sharing a
// label ("Today") collapse into one bucket.
func GroupTasks(tasks []ViewTask, dim GroupBy) []Group {
	groups := make([]Group, 0)
	indexByKey := make(map[string]int)

	for _, task := range tasks {
		key := groupKey(task, dim)
		i, ok := indexByKey[key]
		if !ok {
			i = len(groups)
			indexByKey[key] = i
			groups = append(groups, Group{Key: key, Label: groupLabel(key, task, dim)})
		}
		groups[i].Tasks = append(groups[i].Tasks, task)
	}

	return groups
}

// OrderGroups returns groups in display order: fixed rank for status and
// priority dimensions, the insertion order produced by GroupTasks otherwise.
func OrderGroups(groups []Group, dim GroupBy) []Group {
	switch dim {
	case GroupByStatus:
		sort.SliceStable(groups, func(i, j int) bool {
			return statusRank(groups[i].Key) < statusRank(groups[j].Key)
		})
	case GroupByPriority:
		sort.SliceStable(groups, func(i, j int) bool {
			return priorityRank(groups[i].Key) < priorityRank(groups[j].Key)
		})
	}
	return groups
}

func groupKey(task ViewTask, dim GroupBy) string {
	switch dim {
	case GroupByStatus:
		return string(task.Status)
	case GroupByPriority:
		return string(task.Priority)
	case GroupByAssignee:
		return task.Assignee.ID
	case GroupByDueDate:
		return task.DueLabel
	default:
		return "all"
	}
}

// groupLabel derives the human-readable bucket heading. The first task to
// populate a bucket supplies whatever the key alone cannot (assignee names).
func groupLabel(key string, first ViewTask, dim GroupBy) string {
	switch dim {
	case GroupByStatus:
		if label, ok := statusLabels[Status(key)]; ok {
			return label
		}
		return key
	case GroupByPriority:
		if label, ok := priorityLabels[Priority(key)]; ok {
			return label
		}
		return key
	case GroupByAssignee:
		return first.Assignee.FirstName + " " + first.Assignee.LastName
	case GroupByDueDate:
		if key == "" {
			return "No due date"
		}
		return key
	default:
		return "All Tasks"
	}
}

var statusLabels = map[Status]string{
	StatusPlanned:    "Planned",
	StatusInProgress: "In Progress",
	StatusReview:     "Review",
	StatusDone:       "Done",
}

var priorityLabels = map[Priority]string{
	PriorityUrgent: "Urgent",
	PriorityHigh:   "High",
	PriorityMedium: "Medium",
	PriorityLow:    "Low",
}

var statusRanks = map[string]int{
	string(StatusPlanned):    0,
	string(StatusInProgress): 1,
	string(StatusReview):     2,
	string(StatusDone):       3,
}

var priorityRanks = map[string]int{
	string(PriorityUrgent): 0,
	string(PriorityHigh):   1,
	string(PriorityMedium): 2,
	string(PriorityLow):    3,
}

func statusRank(key string) int {
	if rank, ok := statusRanks[key]; ok {
		return rank
	}
	return 99
}

func priorityRank(key string) int {
	if rank, ok := priorityRanks[key]; ok {
		return rank
	}
	return 99
}
