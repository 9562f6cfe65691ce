package board

import (
	"strings"
	"time"
)

// DueBucket names the due-date filter ranges.
type DueBucket string

const (
	DueAll      DueBucket = "all"
	DueOverdue  DueBucket = "overdue"
	DueToday    DueBucket = "today"
	DueThisWeek DueBucket = "thisWeek"
	DueNextWeek DueBucket = "nextWeek"
	DueNoDate   DueBucket = "noDate"
)

// FilterState holds every filter dimension. The zero value of each field
// means that stage is inactive: empty search, unset mine flag, empty
// status/priority/case sets and the DueAll bucket all pass everything.
// Empty sets deliberately mean "no filter" rather than "exclude all" so the
// default state shows the full board.
type FilterState struct {
	Search     string
	MineOnly   bool
	Statuses   map[Status]bool
	Priorities map[Priority]bool
	Cases      map[string]bool
	Due        DueBucket
}

func NewFilterState() FilterState {
	return FilterState{
		Statuses:   make(map[Status]bool),
		Priorities: make(map[Priority]bool),
		Cases:      make(map[string]bool),
		Due:        DueAll,
	}
}

// Clear resets every stage to its inactive state in one action.
func (f *FilterState) Clear() {
	f.Search = ""
	f.MineOnly = false
	f.Statuses = make(map[Status]bool)
	f.Priorities = make(map[Priority]bool)
	f.Cases = make(map[string]bool)
	f.Due = DueAll
}

// Active reports whether any stage would narrow the list.
func (f FilterState) Active() bool {
	return strings.TrimSpace(f.Search) != "" ||
		f.MineOnly ||
		len(f.Statuses) > 0 ||
		len(f.Priorities) > 0 ||
		len(f.Cases) > 0 ||
		(f.Due != "" && f.Due != DueAll)
}

// ApplyFilters runs the stages as sequential narrowing passes in a fixed
// order: search, mine, status set, priority set, case set, due bucket.
// Stages combine with AND semantics and none of them mutates its input.
func ApplyFilters(tasks []ViewTask, f FilterState, userID string, now time.Time) []ViewTask {
	result := tasks
	result = filterSearch(result, f.Search)
	result = filterMine(result, f.MineOnly, userID)
	result = filterStatus(result, f.Statuses)
	result = filterPriority(result, f.Priorities)
	result = filterCase(result, f.Cases)
	result = filterDue(result, f.Due, now)
	return result
}

func filterSearch(tasks []ViewTask, search string) []ViewTask {
	query := strings.ToLower(strings.TrimSpace(search))
	if query == "" {
		return tasks
	}

	result := make([]ViewTask, 0, len(tasks))
	for _, task := range tasks {
		if matchesSearch(task, query) {
			result = append(result, task)
		}
	}
	return result
}

func matchesSearch(task ViewTask, query string) bool {
	if strings.Contains(strings.ToLower(task.Title), query) {
		return true
	}
	if task.Description != nil && strings.Contains(strings.ToLower(*task.Description), query) {
		return true
	}
	if task.Case != nil && strings.Contains(strings.ToLower(task.Case.CaseNumber), query) {
		return true
	}
	return false
}

func filterMine(tasks []ViewTask, mineOnly bool, userID string) []ViewTask {
	if !mineOnly || userID == "" {
		return tasks
	}

	result := make([]ViewTask, 0, len(tasks))
	for _, task := range tasks {
		if task.Assignee.ID == userID {
			result = append(result, task)
		}
	}
	return result
}

func filterStatus(tasks []ViewTask, statuses map[Status]bool) []ViewTask {
	if len(statuses) == 0 {
		return tasks
	}

	result := make([]ViewTask, 0, len(tasks))
	for _, task := range tasks {
		if statuses[task.Status] {
			result = append(result, task)
		}
	}
	return result
}

func filterPriority(tasks []ViewTask, priorities map[Priority]bool) []ViewTask {
	if len(priorities) == 0 {
		return tasks
	}

	result := make([]ViewTask, 0, len(tasks))
	for _, task := range tasks {
		if priorities[task.Priority] {
			result = append(result, task)
		}
	}
	return result
}

func filterCase(tasks []ViewTask, cases map[string]bool) []ViewTask {
	if len(cases) == 0 {
		return tasks
	}

	result := make([]ViewTask, 0, len(tasks))
	for _, task := range tasks {
		if task.Case != nil && cases[task.Case.ID] {
			result = append(result, task)
		}
	}
	return result
}

func filterDue(tasks []ViewTask, bucket DueBucket, now time.Time) []ViewTask {
	if bucket == "" || bucket == DueAll {
		return tasks
	}

	result := make([]ViewTask, 0, len(tasks))
	for _, task := range tasks {
		if MatchDueLabel(task.DueLabel, bucket, now) {
			result = append(result, task)
		}
	}
	return result
}

// MatchDueLabel evaluates a due bucket against the formatted due label, not
// the underlying date. Tasks sharing a label always land in the same bucket.
// The label is mapped back to a calendar day first: the relative labels
// resolve against now and the short form parses with now's year, which
// misplaces a non-relative label across a year boundary. Kept for
// compatibility with the board this replaces.
func MatchDueLabel(label string, bucket DueBucket, now time.Time) bool {
	switch bucket {
	case DueAll, "":
		return true
	case DueNoDate:
		return label == ""
	}

	day, ok := dayFromLabel(label, now)
	if !ok {
		return false
	}

	today := startOfDay(now)
	switch bucket {
	case DueOverdue:
		return day.Before(today)
	case DueToday:
		return day.Equal(today)
	case DueThisWeek:
		start := startOfWeek(now)
		return !day.Before(start) && day.Before(start.AddDate(0, 0, 7))
	case DueNextWeek:
		start := startOfWeek(now).AddDate(0, 0, 7)
		return !day.Before(start) && day.Before(start.AddDate(0, 0, 7))
	}
	return false
}

func dayFromLabel(label string, now time.Time) (time.Time, bool) {
	today := startOfDay(now)
	switch label {
	case "":
		return time.Time{}, false
	case "Today":
		return today, true
	case "Tomorrow":
		return today.AddDate(0, 0, 1), true
	case "Yesterday":
		return today.AddDate(0, 0, -1), true
	}

	parsed, err := time.Parse("2 Jan", label)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, now.Location()), true
}

// startOfWeek returns the Monday beginning the week now falls in.
func startOfWeek(now time.Time) time.Time {
	day := startOfDay(now)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
