package tui

import (
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
	"github.com/rowanvell/lexboard/internal/board"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldSearch = iota
	fieldMine
	fieldStatus
	fieldPriority
	fieldCases
	fieldDue
)

type filterFormState struct {
	fields        []formField
	index         int
	statusIndex   int
	priorityIndex int
	caseIndex     int
}

type formEditor struct {
	ui *UI
}

var statusOptions = []string{
	string(board.StatusPlanned),
	string(board.StatusInProgress),
	string(board.StatusReview),
	string(board.StatusDone),
}

var priorityOptions = []string{
	string(board.PriorityUrgent),
	string(board.PriorityHigh),
	string(board.PriorityMedium),
	string(board.PriorityLow),
}

var dueOptions = []string{
	string(board.DueAll),
	string(board.DueOverdue),
	string(board.DueToday),
	string(board.DueThisWeek),
	string(board.DueNextWeek),
	string(board.DueNoDate),
}

func buildFilterFields(filter board.FilterState) []formField {
	fields := []formField{
		{Label: "Search"},
		{Label: "My tasks (space)"},
		{Label: "Status (space/←→)"},
		{Label: "Priority (space/←→)"},
		{Label: "Cases (space/←→)"},
		{Label: "Due (space/←→)"},
	}

	fields[fieldSearch].Value = filter.Search
	fields[fieldMine].Value = yesNo(filter.MineOnly)
	fields[fieldStatus].Value = formatStatusSet(filter.Statuses)
	if len(filter.Statuses) == 0 {
		fields[fieldStatus].Value = ""
	}
	fields[fieldPriority].Value = formatPrioritySet(filter.Priorities)
	if len(filter.Priorities) == 0 {
		fields[fieldPriority].Value = ""
	}
	fields[fieldDue].Value = string(filter.Due)
	if filter.Due == "" {
		fields[fieldDue].Value = string(board.DueAll)
	}

	return fields
}

// parseFilterFields turns the popup's field values back into a filter
// state. Case numbers resolve to case ids through the latest snapshot;
// unknown numbers are dropped rather than rejected.
func parseFilterFields(fields []formField, caseIDByNumber map[string]string) board.FilterState {
	filter := board.NewFilterState()
	filter.Search = strings.TrimSpace(fields[fieldSearch].Value)
	filter.MineOnly = strings.EqualFold(strings.TrimSpace(fields[fieldMine].Value), "yes")

	for _, part := range splitList(fields[fieldStatus].Value) {
		filter.Statuses[board.Status(part)] = true
	}
	for _, part := range splitList(fields[fieldPriority].Value) {
		filter.Priorities[board.Priority(part)] = true
	}
	for _, part := range splitList(fields[fieldCases].Value) {
		if id, ok := caseIDByNumber[part]; ok {
			filter.Cases[id] = true
		}
	}

	due := board.DueBucket(strings.TrimSpace(fields[fieldDue].Value))
	for _, option := range dueOptions {
		if string(due) == option {
			filter.Due = due
			break
		}
	}

	return filter
}

func (u *UI) openFilters(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = &filterFormState{fields: buildFilterFields(u.filter)}
	fields := u.form.fields
	if len(u.filter.Cases) > 0 {
		numbers := make([]string, 0, len(u.filter.Cases))
		for _, option := range u.caseOptions() {
			if u.filter.Cases[u.caseIDByNumber()[option]] {
				numbers = append(numbers, option)
			}
		}
		fields[fieldCases].Value = strings.Join(numbers, ", ")
	}
	return nil
}

func (u *UI) showFilters(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(12, max(8, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewFilters, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	view.Title = "Filters"
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderFilterForm(view)
	_, _ = gui.SetCurrentView(viewFilters)
	return nil
}

func (u *UI) submitFilters(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}

	u.filter = parseFilterFields(u.form.fields, u.caseIDByNumber())
	u.form = nil
	u.status = ""
	_ = gui.DeleteView(viewFilters)
	_, _ = gui.SetCurrentView(viewBoard)
	u.rebuild()
	return nil
}

func (u *UI) cancelFilters(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	_ = gui.DeleteView(viewFilters)
	_, _ = gui.SetCurrentView(viewBoard)
	return nil
}

func (u *UI) nextFilterField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderFilterForm(view)
	return nil
}

func (u *UI) prevFilterField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderFilterForm(view)
	return nil
}

func (u *UI) renderFilterForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		value := field.Value
		if candidate := u.fieldCandidate(index); candidate != "" {
			value = fmt.Sprintf("%s [pick: %s]", value, candidate)
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, value)
	}
	label := u.form.fields[u.form.index].Label + ": "
	cursorX := len([]rune(label)) + len([]rune(u.form.fields[u.form.index].Value)) + 2
	view.SetCursor(cursorX, u.form.index)
}

func (u *UI) fieldCandidate(index int) string {
	if u.form == nil || index != u.form.index {
		return ""
	}
	switch index {
	case fieldStatus:
		return statusOptions[u.form.statusIndex]
	case fieldPriority:
		return priorityOptions[u.form.priorityIndex]
	case fieldCases:
		options := u.caseOptions()
		if len(options) == 0 {
			return ""
		}
		if u.form.caseIndex >= len(options) {
			u.form.caseIndex = len(options) - 1
		}
		return options[u.form.caseIndex]
	}
	return ""
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	form := ui.form
	field := &form.fields[form.index]

	switch form.index {
	case fieldMine:
		if key == gocui.KeySpace || key == gocui.KeyArrowRight || key == gocui.KeyArrowLeft {
			if strings.EqualFold(strings.TrimSpace(field.Value), "yes") {
				field.Value = "no"
			} else {
				field.Value = "yes"
			}
		}
		ui.renderFilterForm(view)
		return true
	case fieldStatus:
		switch key {
		case gocui.KeyArrowRight:
			form.statusIndex = min(form.statusIndex+1, len(statusOptions)-1)
		case gocui.KeyArrowLeft:
			form.statusIndex = max(form.statusIndex-1, 0)
		case gocui.KeySpace:
			field.Value = toggleListValue(field.Value, statusOptions[form.statusIndex])
		}
		ui.renderFilterForm(view)
		return true
	case fieldPriority:
		switch key {
		case gocui.KeyArrowRight:
			form.priorityIndex = min(form.priorityIndex+1, len(priorityOptions)-1)
		case gocui.KeyArrowLeft:
			form.priorityIndex = max(form.priorityIndex-1, 0)
		case gocui.KeySpace:
			field.Value = toggleListValue(field.Value, priorityOptions[form.priorityIndex])
		}
		ui.renderFilterForm(view)
		return true
	case fieldCases:
		options := ui.caseOptions()
		switch key {
		case gocui.KeyArrowRight:
			form.caseIndex = min(form.caseIndex+1, max(len(options)-1, 0))
		case gocui.KeyArrowLeft:
			form.caseIndex = max(form.caseIndex-1, 0)
		case gocui.KeySpace:
			if len(options) > 0 {
				field.Value = toggleListValue(field.Value, options[min(form.caseIndex, len(options)-1)])
			}
		}
		ui.renderFilterForm(view)
		return true
	case fieldDue:
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cycleOption(dueOptions, field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cycleOption(dueOptions, field.Value, -1)
		}
		ui.renderFilterForm(view)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderFilterForm(view)
	return true
}

// caseOptions lists the case numbers present in the latest snapshot, in
// first-appearance order.
func (u *UI) caseOptions() []string {
	seen := make(map[string]struct{})
	options := make([]string, 0)
	for _, task := range u.raw {
		if task.Case == nil {
			continue
		}
		if _, ok := seen[task.Case.CaseNumber]; ok {
			continue
		}
		seen[task.Case.CaseNumber] = struct{}{}
		options = append(options, task.Case.CaseNumber)
	}
	return options
}

func (u *UI) caseIDByNumber() map[string]string {
	result := make(map[string]string)
	for _, task := range u.raw {
		if task.Case != nil {
			result[task.Case.CaseNumber] = task.Case.ID
		}
	}
	return result
}

func toggleListValue(value, item string) string {
	selected := splitList(value)
	for i, existing := range selected {
		if existing == item {
			selected = append(selected[:i], selected[i+1:]...)
			return strings.Join(selected, ", ")
		}
	}
	selected = append(selected, item)
	return strings.Join(selected, ", ")
}

func cycleOption(options []string, current string, delta int) string {
	value := strings.TrimSpace(current)
	index := 0
	for i, option := range options {
		if option == value {
			index = i
			break
		}
	}
	index = (index + delta + len(options)) % len(options)
	return options[index]
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
