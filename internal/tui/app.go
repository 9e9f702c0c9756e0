// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for shiftalloc.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
//
// The TUI is a thin driver: every piece of business logic (scoring, the
// allocation partition, history, auditing) lives in the core packages and is
// reached through the allocator.

package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"shiftalloc/internal/allocator"
	"shiftalloc/internal/auth"
	"shiftalloc/internal/history"
	"shiftalloc/internal/session"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu     appState = iota
	stateGroupSelect           // shift group picker
	stateShiftSelect           // shift time picker
	stateAbsentees             // mark who didn't show up
	stateAllocate              // the allocation board (allocation_view.go)
	stateWorkerStats           // per-worker recent allocation counts
	stateAuditLog              // audit trail browser
	stateAdminLogin            // password prompt for admin actions
	stateAdminMenu             // cleanup / export actions
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).MarginBottom(1)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	markedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
)

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state appState
	alloc *allocator.Allocator
	gate  *auth.Gate
	log   *zap.Logger

	session   *session.Session
	allocView *allocationView

	// Start-screen selections carried into the session.
	chosenGroup string
	chosenShift string
	chosenDate  string

	// UI components
	mainMenu  list.Model
	pickList  list.Model // reused for group / shift / worker pickers
	passInput textinput.Model

	// Absentee marking: the group roster with a present/absent flag each.
	rollCall  []rollCallRow
	rollIndex int

	statusMsg string

	width  int
	height int
}

type rollCallRow struct {
	Worker  string
	Present bool
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp creates a new App instance over an already-wired allocator.
func NewApp(alloc *allocator.Allocator, gate *auth.Gate, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	mainMenu := list.New(buildMainMenu(), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "⬡ SHIFT ALLOCATION"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)

	pickList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	pickList.SetShowStatusBar(false)
	pickList.SetFilteringEnabled(false)

	pass := textinput.New()
	pass.Placeholder = "admin password"
	pass.EchoMode = textinput.EchoPassword
	pass.CharLimit = 64

	return &App{
		state:     stateMainMenu,
		alloc:     alloc,
		gate:      gate,
		log:       logger,
		mainMenu:  mainMenu,
		pickList:  pickList,
		passInput: pass,
	}
}

func buildMainMenu() []list.Item {
	return []list.Item{
		menuItem{title: "Start Allocation", desc: "Allocate workers for a new shift"},
		menuItem{title: "Resume Allocation", desc: "Reopen a saved allocation for today"},
		menuItem{title: "Worker History", desc: "Recent allocation counts per worker"},
		menuItem{title: "Audit Trail", desc: "Browse allocation changes"},
		menuItem{title: "Admin", desc: "History cleanup and report export"},
		menuItem{title: "Exit", desc: "Quit shiftalloc"},
	}
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-8))
		a.pickList.SetSize(max(0, msg.Width-6), max(0, msg.Height-8))
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateMainMenu {
				return a, tea.Quit
			}
		case "esc":
			if a.state == stateAllocate && a.allocView != nil && a.allocView.consumeEsc() {
				return a, nil
			}
			if a.state != stateMainMenu {
				return a.returnToMainMenu()
			}
		}
	}

	switch a.state {
	case stateMainMenu:
		return a.updateMainMenu(msg)
	case stateGroupSelect, stateShiftSelect, stateWorkerStats:
		return a.updatePicker(msg)
	case stateAbsentees:
		return a.updateRollCall(msg)
	case stateAllocate:
		if a.allocView != nil {
			return a, a.allocView.Update(msg)
		}
	case stateAdminLogin:
		return a.updateAdminLogin(msg)
	case stateAdminMenu:
		return a.updateAdminMenu(msg)
	case stateAuditLog:
		return a.updateAuditLog(msg)
	}
	return a, nil
}

func (a *App) updateMainMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		item, ok := a.mainMenu.SelectedItem().(menuItem)
		if !ok {
			return a, nil
		}
		switch item.title {
		case "Start Allocation":
			return a.beginGroupSelect()
		case "Resume Allocation":
			return a.resumeToday()
		case "Worker History":
			return a.beginWorkerStats()
		case "Audit Trail":
			a.state = stateAuditLog
			a.statusMsg = ""
			return a, nil
		case "Admin":
			return a.beginAdminLogin()
		case "Exit":
			return a, tea.Quit
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.mainMenu, cmd = a.mainMenu.Update(msg)
	return a, cmd
}

// beginGroupSelect starts the allocation flow: group -> shift -> roll call.
func (a *App) beginGroupSelect() (tea.Model, tea.Cmd) {
	groups := a.alloc.Roster().ShiftGroups()
	if len(groups) == 0 {
		groups = a.alloc.Config().Settings.Groups
	}
	items := make([]list.Item, 0, len(groups))
	for _, g := range groups {
		members := len(a.alloc.Roster().GroupMembers(g))
		items = append(items, menuItem{title: g, desc: fmt.Sprintf("%d worker(s)", members)})
	}
	a.pickList.Title = "Select Shift Group"
	a.pickList.SetItems(items)
	a.pickList.Select(0)
	a.state = stateGroupSelect
	a.statusMsg = ""
	a.resizePicker()
	return a, nil
}

func (a *App) beginShiftSelect() (tea.Model, tea.Cmd) {
	shifts := a.alloc.Config().Settings.ShiftTimes
	if len(shifts) == 0 {
		shifts = []string{"Morning", "Evening"}
	}
	items := make([]list.Item, 0, len(shifts))
	for _, s := range shifts {
		items = append(items, menuItem{title: s})
	}
	a.pickList.Title = "Select Shift Time"
	a.pickList.SetItems(items)
	a.pickList.Select(0)
	a.state = stateShiftSelect
	a.resizePicker()
	return a, nil
}

func (a *App) beginWorkerStats() (tea.Model, tea.Cmd) {
	workers := a.alloc.Roster().Workers()
	items := make([]list.Item, 0, len(workers))
	window := a.alloc.Config().Settings.WindowDays
	for _, name := range workers {
		stats := a.alloc.History().Stats(name, window)
		total := 0
		for _, n := range stats {
			total += n
		}
		items = append(items, menuItem{
			title: name,
			desc:  fmt.Sprintf("%s · %d allocation(s) in %d days", a.alloc.Roster().WorkerGroup(name), total, window),
		})
	}
	a.pickList.Title = "Worker History"
	a.pickList.SetItems(items)
	a.pickList.Select(0)
	a.state = stateWorkerStats
	a.statusMsg = ""
	a.resizePicker()
	return a, nil
}

func (a *App) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		item, ok := a.pickList.SelectedItem().(menuItem)
		if !ok {
			return a, nil
		}
		switch a.state {
		case stateGroupSelect:
			a.chosenGroup = item.title
			return a.beginShiftSelect()
		case stateShiftSelect:
			a.chosenShift = item.title
			return a.beginRollCall()
		case stateWorkerStats:
			a.statusMsg = a.workerStatsLine(item.title)
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.pickList, cmd = a.pickList.Update(msg)
	return a, cmd
}

func (a *App) workerStatsLine(worker string) string {
	stats := a.alloc.History().Stats(worker, a.alloc.Config().Settings.WindowDays)
	if len(stats) == 0 {
		return fmt.Sprintf("%s: no recent allocations", worker)
	}
	parts := make([]string, 0, len(stats))
	for _, group := range sortedKeys(stats) {
		parts = append(parts, fmt.Sprintf("%s ×%d", group, stats[group]))
	}
	return fmt.Sprintf("%s: %s", worker, strings.Join(parts, " · "))
}

// beginRollCall opens the session and shows the group roster so absentees
// can be marked before any allocation happens.
func (a *App) beginRollCall() (tea.Model, tea.Cmd) {
	a.chosenDate = time.Now().Format(history.DateLayout)
	a.session = a.alloc.StartSession(a.chosenDate, a.chosenShift, a.chosenGroup)
	members := a.session.Available()
	a.rollCall = make([]rollCallRow, len(members))
	for i, w := range members {
		a.rollCall[i] = rollCallRow{Worker: w, Present: true}
	}
	a.rollIndex = 0
	a.state = stateAbsentees
	a.statusMsg = ""
	return a, nil
}

func (a *App) updateRollCall(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "up", "k":
		if a.rollIndex > 0 {
			a.rollIndex--
		}
	case "down", "j":
		if a.rollIndex < len(a.rollCall)-1 {
			a.rollIndex++
		}
	case " ", "x":
		if len(a.rollCall) > 0 {
			a.rollCall[a.rollIndex].Present = !a.rollCall[a.rollIndex].Present
		}
	case "enter":
		present := make([]string, 0, len(a.rollCall))
		for _, row := range a.rollCall {
			if row.Present {
				present = append(present, row.Worker)
			}
		}
		a.session.ConfirmAbsentees(present)
		a.log.Info("shift roll call confirmed",
			zap.String("group", a.chosenGroup),
			zap.Int("present", len(present)),
			zap.Int("absent", len(a.rollCall)-len(present)))
		return a.openAllocationBoard()
	}
	return a, nil
}

func (a *App) openAllocationBoard() (tea.Model, tea.Cmd) {
	a.allocView = newAllocationView(a, a.session)
	a.state = stateAllocate
	a.statusMsg = ""
	return a, nil
}

// resumeToday reloads today's saved allocation for the first shift time that
// has a snapshot on disk.
func (a *App) resumeToday() (tea.Model, tea.Cmd) {
	date := time.Now().Format(history.DateLayout)
	for _, shift := range a.alloc.Config().Settings.ShiftTimes {
		exists, _ := a.alloc.SnapshotExists(date, shift)
		if !exists {
			continue
		}
		s, err := a.alloc.LoadSession(date, shift)
		if err != nil {
			a.statusMsg = errStyle.Render(err.Error())
			return a, nil
		}
		a.session = s
		a.chosenGroup = s.Group
		a.chosenShift = s.ShiftTime
		a.chosenDate = s.Date
		a.log.Info("allocation resumed", zap.String("date", date), zap.String("shift", shift))
		return a.openAllocationBoard()
	}
	a.statusMsg = "No saved allocation found for today"
	return a, nil
}

func (a *App) beginAdminLogin() (tea.Model, tea.Cmd) {
	if a.gate == nil || a.gate.Open() {
		a.state = stateAdminMenu
		a.statusMsg = ""
		return a, nil
	}
	a.passInput.SetValue("")
	a.passInput.Focus()
	a.state = stateAdminLogin
	a.statusMsg = ""
	return a, textinput.Blink
}

func (a *App) updateAdminLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if err := a.gate.Verify(a.passInput.Value()); err != nil {
			a.statusMsg = errStyle.Render("Wrong password")
			a.passInput.SetValue("")
			a.log.Warn("admin login rejected")
			return a, nil
		}
		a.passInput.Blur()
		a.state = stateAdminMenu
		a.statusMsg = ""
		a.log.Info("admin login accepted")
		return a, nil
	}
	var cmd tea.Cmd
	a.passInput, cmd = a.passInput.Update(msg)
	return a, cmd
}

func (a *App) updateAdminMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "c":
		if err := a.alloc.CleanupHistory(); err != nil {
			a.statusMsg = errStyle.Render(err.Error())
			return a, nil
		}
		retention := a.alloc.Config().Settings.RetentionDays
		a.statusMsg = okStyle.Render(fmt.Sprintf("History older than %d days removed", retention))
	case "e":
		path, err := a.alloc.Trail().ExportReport(a.alloc.Config().ExportsDir())
		if err != nil {
			a.statusMsg = errStyle.Render(err.Error())
			return a, nil
		}
		a.statusMsg = okStyle.Render(fmt.Sprintf("Report written to %s", path))
	}
	return a, nil
}

func (a *App) updateAuditLog(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "e" {
		path, err := a.alloc.Trail().ExportReport(a.alloc.Config().ExportsDir())
		if err != nil {
			a.statusMsg = errStyle.Render(err.Error())
			return a, nil
		}
		a.statusMsg = okStyle.Render(fmt.Sprintf("Report written to %s", path))
	}
	return a, nil
}

// returnToMainMenu transitions back to the main menu.
func (a *App) returnToMainMenu() (tea.Model, tea.Cmd) {
	a.state = stateMainMenu
	a.allocView = nil
	a.statusMsg = ""
	a.passInput.Blur()
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case stateGroupSelect, stateShiftSelect, stateWorkerStats:
		content = a.pickList.View() + hintStyle.Render("\nEnter → select    Esc → back")
	case stateAbsentees:
		content = a.renderRollCall()
	case stateAllocate:
		if a.allocView != nil {
			content = a.allocView.View()
		}
	case stateAdminLogin:
		content = titleStyle.Render("Admin Login") + "\n" + a.passInput.View() +
			hintStyle.Render("\nEnter → verify    Esc → back")
	case stateAdminMenu:
		content = a.renderAdminMenu()
	case stateAuditLog:
		content = a.renderAuditLog()
	}
	if a.statusMsg != "" {
		content += "\n" + a.statusMsg
	}
	return content
}

func (a *App) renderRollCall() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Roll Call · %s · %s", a.chosenGroup, a.chosenShift)))
	b.WriteString("\n")
	for i, row := range a.rollCall {
		cursor := "  "
		if i == a.rollIndex {
			cursor = "> "
		}
		mark := okStyle.Render("present")
		if !row.Present {
			mark = errStyle.Render("ABSENT")
		}
		b.WriteString(fmt.Sprintf("%s%-24s %s\n", cursor, row.Worker, mark))
	}
	b.WriteString(hintStyle.Render("Space → toggle    Enter → confirm    Esc → cancel"))
	return b.String()
}

func (a *App) renderAdminMenu() string {
	lines := []string{
		titleStyle.Render("Admin"),
		"c  Clean up allocation history past retention",
		"e  Export audit trail report",
	}
	return strings.Join(lines, "\n") + hintStyle.Render("\nEsc → back")
}

func (a *App) renderAuditLog() string {
	entries := a.alloc.Trail().Recent(30)
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Audit Trail · last %d of %d", len(entries), a.alloc.Trail().Len())))
	b.WriteString("\n")
	if len(entries) == 0 {
		b.WriteString(dimStyle.Render("No audit entries yet."))
	}
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%s  %-22s %s %s  by %s\n",
			e.Timestamp, e.ChangeType, e.AllocationDate, e.ShiftTime, e.User))
	}
	b.WriteString(hintStyle.Render("e → export report    Esc → back"))
	return b.String()
}

func (a *App) resizePicker() {
	if a.width > 0 && a.height > 0 {
		a.pickList.SetSize(max(0, a.width-6), max(0, a.height-8))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
