package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"shiftalloc/internal/roster"
	"shiftalloc/internal/scoring"
	"shiftalloc/internal/session"
)

type boardFocus int

const (
	focusTasks boardFocus = iota
	focusCandidates
	focusInput
)

type inputTarget int

const (
	inputProduct inputTarget = iota
	inputLot
	inputOvertime
	inputTemp
)

type taskRow struct {
	Name    string
	Kind    roster.TaskKind
	Slots   int
	Tracked bool
}

// allocationView is the allocation board: the task list on the left, the
// remaining pool on the right, and a ranked candidate picker per task.
type allocationView struct {
	app *App
	s   *session.Session

	tasks     []taskRow
	taskIndex int
	focus     boardFocus

	candidates []scoring.Breakdown
	candIndex  int
	picked     map[string]struct{}

	input  textinput.Model
	target inputTarget

	status string
	saved  bool
}

func newAllocationView(app *App, s *session.Session) *allocationView {
	var tasks []taskRow
	for _, t := range app.alloc.Roster().Tasks(roster.KindProcess) {
		tasks = append(tasks, taskRow{Name: t.Name, Kind: t.Kind, Slots: t.Slots, Tracked: t.TrackFrequency})
	}
	for _, t := range app.alloc.Roster().Tasks(roster.KindMachine) {
		tasks = append(tasks, taskRow{Name: t.Name, Kind: t.Kind, Slots: t.Slots, Tracked: t.TrackFrequency})
	}
	input := textinput.New()
	input.CharLimit = 64
	return &allocationView{
		app:    app,
		s:      s,
		tasks:  tasks,
		picked: map[string]struct{}{},
		input:  input,
	}
}

func (v *allocationView) currentTask() (taskRow, bool) {
	if v.taskIndex < 0 || v.taskIndex >= len(v.tasks) {
		return taskRow{}, false
	}
	return v.tasks[v.taskIndex], true
}

func (v *allocationView) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if v.focus == focusInput {
		return v.updateInput(key)
	}
	if v.focus == focusCandidates {
		return v.updateCandidates(key)
	}
	return v.updateTasks(key)
}

func (v *allocationView) updateTasks(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		if v.taskIndex > 0 {
			v.taskIndex--
		}
	case "down", "j":
		if v.taskIndex < len(v.tasks)-1 {
			v.taskIndex++
		}
	case "enter":
		v.openCandidates()
	case "u":
		if task, ok := v.currentTask(); ok {
			removed := v.s.Assigned(task.Name)
			v.s.Reset(task.Name)
			if v.saved {
				for _, w := range removed {
					v.app.alloc.LogWorkerChange(false, v.s, task.Name, w)
				}
			}
			v.status = fmt.Sprintf("%s cleared", task.Name)
		}
	case "R":
		v.s.ResetAll()
		v.status = "All allocations cleared"
	case "p":
		v.beginInput(inputProduct)
		return textinput.Blink
	case "n":
		v.beginInput(inputLot)
		return textinput.Blink
	case "o":
		v.beginInput(inputOvertime)
		return textinput.Blink
	case "t":
		v.beginInput(inputTemp)
		return textinput.Blink
	case "s":
		return v.save()
	}
	return nil
}

// openCandidates ranks the still-available pool for the selected task. An
// already allocated task has to be reset first; allocating it twice is an
// error in the session layer and there is nothing useful to show.
func (v *allocationView) openCandidates() {
	task, ok := v.currentTask()
	if !ok {
		return
	}
	if len(v.s.Assigned(task.Name)) > 0 {
		v.status = fmt.Sprintf("%s already allocated (u to clear first)", task.Name)
		return
	}
	v.candidates = v.app.alloc.Candidates(v.s, task.Name, task.Kind, v.s.Product(task.Name))
	if len(v.candidates) == 0 {
		v.status = "No eligible workers left for " + task.Name
		return
	}
	v.candIndex = 0
	v.picked = map[string]struct{}{}
	v.focus = focusCandidates
	v.status = ""
}

func (v *allocationView) updateCandidates(key tea.KeyMsg) tea.Cmd {
	task, ok := v.currentTask()
	if !ok {
		v.focus = focusTasks
		return nil
	}
	switch key.String() {
	case "up", "k":
		if v.candIndex > 0 {
			v.candIndex--
		}
	case "down", "j":
		if v.candIndex < len(v.candidates)-1 {
			v.candIndex++
		}
	case " ", "x":
		name := v.candidates[v.candIndex].Worker
		if _, ok := v.picked[name]; ok {
			delete(v.picked, name)
		} else if len(v.picked) < task.Slots {
			v.picked[name] = struct{}{}
		} else {
			v.status = fmt.Sprintf("%s takes %d worker(s)", task.Name, task.Slots)
		}
	case "enter":
		if len(v.picked) == 0 {
			v.status = "Pick at least one worker (space)"
			return nil
		}
		// Commit in ranked order, not toggle order.
		var workers []string
		for _, c := range v.candidates {
			if _, ok := v.picked[c.Worker]; ok {
				workers = append(workers, c.Worker)
			}
		}
		if err := v.s.Allocate(task.Name, workers); err != nil {
			v.status = errStyle.Render(err.Error())
			return nil
		}
		v.app.log.Info("task allocated",
			zap.String("task", task.Name), zap.Strings("workers", workers))
		if v.saved {
			for _, w := range workers {
				v.app.alloc.LogWorkerChange(true, v.s, task.Name, w)
			}
		}
		v.focus = focusTasks
		v.status = fmt.Sprintf("%s → %s", task.Name, strings.Join(workers, ", "))
	}
	return nil
}

func (v *allocationView) beginInput(target inputTarget) {
	task, hasTask := v.currentTask()
	v.target = target
	v.input.SetValue("")
	switch target {
	case inputProduct:
		if !hasTask {
			return
		}
		v.input.Placeholder = "product for " + task.Name
		v.input.SetValue(v.s.Product(task.Name))
	case inputLot:
		if !hasTask {
			return
		}
		v.input.Placeholder = "lot number for " + task.Name
		v.input.SetValue(v.s.Lot(task.Name))
	case inputOvertime:
		v.input.Placeholder = "overtime worker name"
	case inputTemp:
		v.input.Placeholder = "temp worker name"
	}
	v.input.Focus()
	v.focus = focusInput
	v.status = ""
}

func (v *allocationView) updateInput(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "enter":
		v.commitInput()
		return nil
	case "esc":
		v.input.Blur()
		v.focus = focusTasks
		return nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(key)
	return cmd
}

func (v *allocationView) commitInput() {
	value := strings.TrimSpace(v.input.Value())
	task, hasTask := v.currentTask()
	switch v.target {
	case inputProduct:
		if hasTask {
			v.s.SetProduct(task.Name, value)
			v.status = fmt.Sprintf("Product for %s set", task.Name)
		}
	case inputLot:
		if hasTask {
			v.s.SetLot(task.Name, value)
			v.status = fmt.Sprintf("Lot for %s set", task.Name)
		}
	case inputOvertime:
		if value != "" {
			v.s.AddOvertime(value)
			v.status = fmt.Sprintf("%s added as overtime", value)
		}
	case inputTemp:
		if value != "" {
			v.s.AddTemp(value)
			v.status = fmt.Sprintf("%s added as temp", value)
		}
	}
	v.input.Blur()
	v.focus = focusTasks
}

func (v *allocationView) save() tea.Cmd {
	path, err := v.app.alloc.Save(v.s)
	if err != nil {
		v.status = errStyle.Render(err.Error())
		return nil
	}
	v.saved = true
	v.status = okStyle.Render("Saved " + path)
	return nil
}

// consumeEsc reports whether the view handled escape itself (by stepping
// back one level) instead of leaving the board.
func (v *allocationView) consumeEsc() bool {
	switch v.focus {
	case focusCandidates:
		v.focus = focusTasks
		v.status = ""
		return true
	case focusInput:
		v.input.Blur()
		v.focus = focusTasks
		return true
	}
	return false
}

func (v *allocationView) View() string {
	header := titleStyle.Render(fmt.Sprintf("Allocation · %s · %s · %s",
		v.s.Date, v.s.ShiftTime, v.s.Group))

	if v.focus == focusCandidates {
		return header + "\n" + v.renderCandidates()
	}

	left := v.renderTasks()
	right := v.renderPool()
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right)

	sections := []string{header, body}
	if v.focus == focusInput {
		sections = append(sections, v.input.View())
	}
	sections = append(sections, hintStyle.Render(
		"Enter → allocate    u → clear    p → product    n → lot    o → overtime    t → temp    s → save    Esc → menu"))
	if v.status != "" {
		sections = append(sections, v.status)
	}
	return strings.Join(sections, "\n")
}

func (v *allocationView) renderTasks() string {
	var b strings.Builder
	for i, task := range v.tasks {
		cursor := "  "
		if i == v.taskIndex && v.focus != focusCandidates {
			cursor = "> "
		}
		assigned := v.s.Assigned(task.Name)
		state := dimStyle.Render(fmt.Sprintf("needs %d", task.Slots))
		if len(assigned) > 0 {
			names := make([]string, len(assigned))
			for j, w := range assigned {
				names[j] = v.s.DisplayName(w)
			}
			state = okStyle.Render(strings.Join(names, ", "))
		}
		line := fmt.Sprintf("%s%-28s %s", cursor, taskLabel(task), state)
		b.WriteString(line)
		b.WriteString("\n")
		if product := v.s.Product(task.Name); product != "" {
			b.WriteString(dimStyle.Render(fmt.Sprintf("      %s · lot %s", product, orDash(v.s.Lot(task.Name)))))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func taskLabel(task taskRow) string {
	label := task.Name
	if task.Kind == roster.KindMachine {
		label = "⚙ " + label
	}
	if task.Tracked {
		label += " *"
	}
	return label
}

func orDash(value string) string {
	if value == "" {
		return "—"
	}
	return value
}

func (v *allocationView) renderPool() string {
	pool := v.s.Available()
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Pool (%d)", len(pool))))
	b.WriteString("\n")
	if len(pool) == 0 {
		b.WriteString(dimStyle.Render("everyone allocated"))
	}
	for _, w := range pool {
		b.WriteString(v.s.DisplayName(w))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *allocationView) renderCandidates() string {
	task, _ := v.currentTask()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Candidates for %s (%d slot(s))\n\n", task.Name, task.Slots))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-24s %5s %5s %5s %6s\n", "worker", "task", "prod", "pen", "total")))
	for i, c := range v.candidates {
		cursor := "  "
		if i == v.candIndex {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-24s %5d %5d %5d %6.1f", cursor, c.Worker, c.TaskSkill, c.ProductSkill, c.Penalty, c.Total)
		if _, picked := v.picked[c.Worker]; picked {
			line = markedStyle.Render(line + "  ✓")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("Space → pick    Enter → allocate    Esc → back"))
	return b.String()
}
