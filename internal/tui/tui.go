package tui

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
	"github.com/rowanvell/lexboard/internal/api"
	"github.com/rowanvell/lexboard/internal/board"
	"github.com/rowanvell/lexboard/internal/model"
)

const (
	viewHeader  = "header"
	viewFooter  = "footer"
	viewBoard   = "board"
	viewDetail  = "detail"
	viewSearch  = "search"
	viewFilters = "filters"
	viewHelp    = "help"
)

type UI struct {
	source     api.TaskSource
	completion *board.CompletionController
	gui        *gocui.Gui

	userID  string
	filter  board.FilterState
	groupBy board.GroupBy

	raw      []model.Task
	stale    bool
	groups   []board.Group
	rows     []boardRow
	expanded board.Expansion

	selected int

	searchActive bool
	helpActive   bool
	form         *filterFormState
	formEditor   *formEditor
	status       string
}

func Run(source api.TaskSource, updater board.TaskUpdater, userID string) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := &UI{
		source:   source,
		gui:      gui,
		userID:   userID,
		filter:   board.NewFilterState(),
		groupBy:  board.GroupByStatus,
		expanded: board.NewExpansion(),
	}
	ui.formEditor = &formEditor{ui: ui}
	ui.completion = board.NewCompletionController(updater, func(ctx context.Context) {
		gui.Update(func(*gocui.Gui) error { return ui.loadTasks(ctx) })
	})

	gui.Mouse = true
	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.loadTasks(context.Background()); err != nil {
		ui.status = err.Error()
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'q', gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'r', gocui.ModNone, u.reload); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '/', gocui.ModNone, u.startSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'f', gocui.ModNone, u.openFilters); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'g', gocui.ModNone, u.cycleGrouping); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'G', gocui.ModNone, u.clearFilters); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'm', gocui.ModNone, u.toggleMine); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'd', gocui.ModNone, u.cycleDueBucket); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '?', gocui.ModNone, u.toggleHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoard, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoard, 'j', gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoard, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoard, 'k', gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoard, gocui.KeyEnter, gocui.ModNone, u.toggleExpand); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoard, 'x', gocui.ModNone, u.toggleComplete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoard, gocui.KeySpace, gocui.ModNone, u.toggleComplete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewSearch, gocui.KeyEnter, gocui.ModNone, u.submitSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewSearch, gocui.KeyEsc, gocui.ModNone, u.cancelSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewFilters, gocui.KeyEnter, gocui.ModNone, u.submitFilters); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewFilters, gocui.KeyTab, gocui.ModNone, u.nextFilterField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewFilters, gocui.KeyBacktab, gocui.ModNone, u.prevFilterField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewFilters, gocui.KeyArrowDown, gocui.ModNone, u.nextFilterField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewFilters, gocui.KeyArrowUp, gocui.ModNone, u.prevFilterField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewFilters, gocui.KeyEsc, gocui.ModNone, u.cancelFilters); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, 'q', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, '?', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewBoard, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onBoardClick(gui, opts)
	}}); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoard, gocui.MouseWheelUp, gocui.ModNone, u.scrollUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewBoard, gocui.MouseWheelDown, gocui.ModNone, u.scrollDown); err != nil {
		return err
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := maxY - 2
	if footerY1 < 1 {
		footerY1 = 1
	}
	footerY0 := footerY1 - 2
	if footerY0 < 1 {
		footerY0 = 1
	}
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	boardWidth := (maxX * 2) / 3
	if boardWidth < 40 {
		boardWidth = max(maxX-24, 20)
	}

	boardView, err := gui.SetView(viewBoard, 0, bodyTop, boardWidth-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		boardView.Title = "Tasks"
		boardView.TitleColor = gocui.ColorCyan
	}
	applyViewStyle(boardView, true)
	u.renderBoard(boardView)

	detailX0 := boardWidth
	if detailX0 >= maxX-1 {
		detailX0 = maxX - 2
	}
	detailView, err := gui.SetView(viewDetail, detailX0, bodyTop, maxX-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		detailView.Title = "Detail"
	}
	applyViewStyle(detailView, false)
	u.renderDetail(detailView)

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.searchActive {
		if err := u.showSearch(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewSearch)
	}

	if u.form != nil {
		if err := u.showFilters(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewFilters)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else if !u.inputActive() {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(viewBoard)
	}

	gui.Cursor = u.searchActive || u.form != nil

	return nil
}

// loadTasks pulls the freshest snapshot and rebuilds the board from it.
func (u *UI) loadTasks(ctx context.Context) error {
	tasks, stale, err := u.source.Tasks(ctx)
	if err != nil {
		u.status = err.Error()
		return nil
	}

	u.raw = tasks
	u.stale = stale
	if stale {
		u.status = "offline: showing cached tasks"
	} else {
		u.status = ""
	}
	u.rebuild()
	return nil
}

// rebuild reruns the view pipeline over the last snapshot. The filter and
// grouping stages see persisted statuses only; the optimistic overlay is
// consulted at render time.
func (u *UI) rebuild() {
	u.groups = board.Build(u.raw, board.BuildOptions{
		Now:     now(),
		UserID:  u.userID,
		Filter:  u.filter,
		GroupBy: u.groupBy,
	})
	u.rows = flattenGroups(u.groups, u.expanded)

	if u.selected >= len(u.rows) {
		u.selected = max(len(u.rows)-1, 0)
	}
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	query := strings.TrimSpace(u.filter.Search)
	if query == "" {
		query = "type / to search"
	}

	mineLabel := "all"
	if u.filter.MineOnly {
		mineLabel = "mine"
	}

	fmt.Fprintf(view, "Search: %s | Group: %s | Tasks: %s | Status: %s | Priority: %s | Due: %s",
		query, u.groupBy, mineLabel,
		formatStatusSet(u.filter.Statuses),
		formatPrioritySet(u.filter.Priorities),
		formatDueBucket(u.filter.Due))
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "enter expand | x toggle done | g group | f filters | m mine | d due | G clear")
	fmt.Fprintln(view, "/ search | r reload | j/k move | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderBoard(view *gocui.View) {
	view.Clear()
	for i, row := range u.rows {
		prefix := " "
		if i == u.selected {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, u.formatRow(row))
	}
	view.SetCursor(0, min(u.selected, len(u.rows)-1))
}

func (u *UI) renderDetail(view *gocui.View) {
	view.Clear()
	row, ok := u.selectedTaskRow()
	if !ok {
		fmt.Fprint(view, "No task selected")
		return
	}
	task := row.row.Task

	lines := []string{
		task.Title,
		fmt.Sprintf("Status: %s", u.completion.EffectiveStatus(task)),
		fmt.Sprintf("Priority: %s", task.Priority),
		fmt.Sprintf("Due: %s", valueOrNone(task.DueLabel)),
		fmt.Sprintf("Estimate: %s", optionalOrNone(task.Duration)),
		fmt.Sprintf("Assignee: %s %s", task.Assignee.FirstName, task.Assignee.LastName),
	}
	if task.Case != nil {
		lines = append(lines, fmt.Sprintf("Case: %s %s", task.Case.CaseNumber, task.Case.Title))
	}
	if len(task.Subtasks) > 0 {
		progress := board.SubtaskProgress(task, u.completion.Done)
		lines = append(lines, fmt.Sprintf("Subtasks: %d (%.0f%% done)", len(task.Subtasks), progress*100))
	}
	if task.Description != nil {
		lines = append(lines, "", *task.Description)
	}

	fmt.Fprint(view, strings.Join(lines, "\n"))
}

func (u *UI) selectedRow() (boardRow, bool) {
	if u.selected < 0 || u.selected >= len(u.rows) {
		return boardRow{}, false
	}
	return u.rows[u.selected], true
}

func (u *UI) selectedTaskRow() (boardRow, bool) {
	row, ok := u.selectedRow()
	if !ok || row.kind != rowTask {
		return boardRow{}, false
	}
	return row, true
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected < len(u.rows)-1 {
		u.selected++
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected > 0 {
		u.selected--
	}
	return nil
}

func (u *UI) onBoardClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewBoard)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := opts.Y - y0 - 1 + oy
	if row < 0 {
		row = 0
	}
	u.selected = min(row, len(u.rows)-1)
	_, _ = gui.SetCurrentView(viewBoard)
	return nil
}

func (u *UI) scrollUp(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view != nil {
		view.ScrollUp(1)
	}
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view != nil {
		view.ScrollDown(1)
	}
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	return u.loadTasks(context.Background())
}

func (u *UI) clearFilters(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.filter.Clear()
	u.rebuild()
	return nil
}

func (u *UI) cycleGrouping(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.groupBy = nextGrouping(u.groupBy)
	u.rebuild()
	return nil
}

func (u *UI) toggleMine(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.filter.MineOnly = !u.filter.MineOnly
	u.rebuild()
	return nil
}

func (u *UI) cycleDueBucket(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.filter.Due = nextDueBucket(u.filter.Due)
	u.rebuild()
	return nil
}

func (u *UI) toggleExpand(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row, ok := u.selectedTaskRow()
	if !ok || row.row.IsSubtask || len(row.row.Task.Subtasks) == 0 {
		return nil
	}
	u.expanded.Toggle(row.row.Task.ID)
	u.rows = flattenGroups(u.groups, u.expanded)
	return nil
}

// toggleComplete flips a subtask's completion state optimistically. The
// controller network round-trip runs off the event loop; the overlay flip
// inside Toggle happens before the request, so the next paint already shows
// the new state.
func (u *UI) toggleComplete(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row, ok := u.selectedTaskRow()
	if !ok || !row.row.IsSubtask {
		return nil
	}

	task := row.row.Task
	go func() {
		u.completion.Toggle(context.Background(), task)
		if u.gui != nil {
			u.gui.Update(func(*gocui.Gui) error { return nil })
		}
	}()
	return nil
}

func (u *UI) startSearch(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.searchActive = true
	return nil
}

func (u *UI) submitSearch(gui *gocui.Gui, view *gocui.View) error {
	u.filter.Search = strings.TrimSpace(view.Buffer())
	u.searchActive = false
	u.status = ""
	_ = gui.DeleteView(viewSearch)
	_, _ = gui.SetCurrentView(viewBoard)
	u.rebuild()
	return nil
}

func (u *UI) cancelSearch(gui *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	_ = gui.DeleteView(viewSearch)
	_, _ = gui.SetCurrentView(viewBoard)
	return nil
}

func (u *UI) showSearch(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 3
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewSearch, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Search"
		view.Wrap = true
		view.Clear()
		fmt.Fprint(view, u.filter.Search)
	}
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewSearch)
	return nil
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	_ = gui.DeleteView(viewHelp)
	_, _ = gui.SetCurrentView(viewBoard)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 14
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) inputActive() bool {
	return u.searchActive || u.form != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func nextGrouping(current board.GroupBy) board.GroupBy {
	order := []board.GroupBy{board.GroupByNone, board.GroupByStatus, board.GroupByPriority, board.GroupByAssignee, board.GroupByDueDate}
	for i, dim := range order {
		if dim == current {
			return order[(i+1)%len(order)]
		}
	}
	return board.GroupByStatus
}

func nextDueBucket(current board.DueBucket) board.DueBucket {
	order := []board.DueBucket{board.DueAll, board.DueOverdue, board.DueToday, board.DueThisWeek, board.DueNextWeek, board.DueNoDate}
	for i, bucket := range order {
		if bucket == current {
			return order[(i+1)%len(order)]
		}
	}
	return board.DueAll
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  j/k or arrows move selection",
		"  mouse click selects, wheel scrolls",
		"",
		"Board:",
		"  enter expand/collapse subtasks",
		"  x or space toggle subtask completion",
		"  g cycle grouping (none/status/priority/assignee/dueDate)",
		"",
		"Filters:",
		"  / search | f filter editor | m my tasks | d due bucket",
		"  G clear all filters",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, highlight bool) {
	view.Frame = true
	view.Highlight = highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	view.FrameColor = gocui.ColorDefault
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
