package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"shiftalloc/internal/allocator"
	"shiftalloc/internal/audit"
	"shiftalloc/internal/auth"
	"shiftalloc/internal/config"
	"shiftalloc/internal/history"
	"shiftalloc/internal/roster"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	root := t.TempDir()
	if err := config.Init(root); err != nil {
		t.Fatalf("config init: %v", err)
	}
	cfg, err := config.New(root)
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	r := roster.New()
	r.AddTask(roster.Task{Name: "Tablet Press A", Kind: roster.KindMachine, Slots: 2, TrackFrequency: true})
	r.AddTask(roster.Task{Name: "Dispensing", Kind: roster.KindProcess, Slots: 1})
	r.SetProcessGroup("Tablet Press A", "Compression")
	r.AddWorker(roster.Worker{
		Name:          "Alice",
		Group:         "Day A",
		MachineSkills: map[string]int{"Tablet Press A": 4},
		ProcessSkills: map[string]int{"Dispensing": 2},
	})
	r.AddWorker(roster.Worker{
		Name:          "Bob",
		Group:         "Day A",
		MachineSkills: map[string]int{"Tablet Press A": 3},
		ProcessSkills: map[string]int{"Dispensing": 5},
	})

	clock := func() time.Time { return time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC) }
	h := history.Load(cfg.HistoryPath(), r.GroupFor, nil, history.WithClock(clock))
	trail := audit.Load(cfg.AuditPath(), nil, audit.WithClock(clock))
	alloc := allocator.New(cfg, r, h, trail, nil, allocator.WithClock(clock))
	return NewApp(alloc, auth.New(""), nil)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func enter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

func TestStartAllocationFlow(t *testing.T) {
	app := newTestApp(t)

	model, _ := app.beginGroupSelect()
	app = model.(*App)
	if app.state != stateGroupSelect {
		t.Fatalf("state = %v, want group select", app.state)
	}
	if len(app.pickList.Items()) != 1 {
		t.Fatalf("group items = %d, want 1", len(app.pickList.Items()))
	}

	model, _ = app.updatePicker(enter())
	app = model.(*App)
	if app.chosenGroup != "Day A" {
		t.Fatalf("chosen group = %q", app.chosenGroup)
	}
	if app.state != stateShiftSelect {
		t.Fatalf("state = %v, want shift select", app.state)
	}

	model, _ = app.updatePicker(enter())
	app = model.(*App)
	if app.state != stateAbsentees {
		t.Fatalf("state = %v, want roll call", app.state)
	}
	if len(app.rollCall) != 2 {
		t.Fatalf("roll call rows = %d, want 2", len(app.rollCall))
	}

	model, _ = app.updateRollCall(enter())
	app = model.(*App)
	if app.state != stateAllocate {
		t.Fatalf("state = %v, want allocation board", app.state)
	}
	if got := len(app.session.Available()); got != 2 {
		t.Fatalf("pool = %d after full roll call, want 2", got)
	}
}

func TestRollCallMarksAbsentee(t *testing.T) {
	app := newTestApp(t)
	model, _ := app.beginGroupSelect()
	app = model.(*App)
	model, _ = app.updatePicker(enter())
	app = model.(*App)
	model, _ = app.updatePicker(enter())
	app = model.(*App)

	// Mark the first worker (Alice) absent, then confirm.
	model, _ = app.updateRollCall(key(" "))
	app = model.(*App)
	model, _ = app.updateRollCall(enter())
	app = model.(*App)

	pool := app.session.Available()
	if len(pool) != 1 || pool[0] != "Bob" {
		t.Fatalf("pool after absentee = %v, want [Bob]", pool)
	}
}

func TestBoardAllocatesThroughCandidatePicker(t *testing.T) {
	app := newTestApp(t)
	app.session = app.alloc.StartSession("2025-03-15", "Morning", "Day A")
	model, _ := app.openAllocationBoard()
	app = model.(*App)

	view := app.allocView
	view.taskIndex = 1 // Tablet Press A
	view.openCandidates()
	if view.focus != focusCandidates {
		t.Fatalf("focus = %v, want candidates", view.focus)
	}
	if len(view.candidates) != 2 || view.candidates[0].Worker != "Alice" {
		t.Fatalf("candidates = %v, want Alice ranked first", view.candidates)
	}

	view.updateCandidates(key(" ")) // pick Alice
	view.updateCandidates(enter())
	if view.focus != focusTasks {
		t.Fatalf("focus after allocate = %v, want tasks", view.focus)
	}
	if got := app.session.Assigned("Tablet Press A"); len(got) != 1 || got[0] != "Alice" {
		t.Fatalf("assigned = %v, want [Alice]", got)
	}
	if app.session.Has("Alice") {
		t.Fatal("Alice still in the pool after allocation")
	}
}

func TestBoardSlotLimitEnforced(t *testing.T) {
	app := newTestApp(t)
	app.session = app.alloc.StartSession("2025-03-15", "Morning", "Day A")
	model, _ := app.openAllocationBoard()
	app = model.(*App)

	view := app.allocView
	view.taskIndex = 0 // Dispensing, a single slot
	view.openCandidates()
	view.updateCandidates(key(" "))
	view.updateCandidates(key("j"))
	view.updateCandidates(key(" "))
	if len(view.picked) != 1 {
		t.Fatalf("picked = %d, want slot limit of 1", len(view.picked))
	}
}

func TestEscSteppingBack(t *testing.T) {
	app := newTestApp(t)
	app.session = app.alloc.StartSession("2025-03-15", "Morning", "Day A")
	model, _ := app.openAllocationBoard()
	app = model.(*App)

	view := app.allocView
	view.openCandidates()
	if !view.consumeEsc() {
		t.Fatal("esc in candidate picker should step back to tasks")
	}
	if view.focus != focusTasks {
		t.Fatalf("focus = %v after esc, want tasks", view.focus)
	}
	if view.consumeEsc() {
		t.Fatal("esc on the task board should bubble up to the app")
	}
}

func TestAdminGateBlocksWrongPassword(t *testing.T) {
	app := newTestApp(t)
	hash, err := auth.Hash("letmein")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	app.gate = auth.New(hash)

	model, _ := app.beginAdminLogin()
	app = model.(*App)
	if app.state != stateAdminLogin {
		t.Fatalf("state = %v, want admin login", app.state)
	}
	app.passInput.SetValue("nope")
	model, _ = app.updateAdminLogin(enter())
	app = model.(*App)
	if app.state != stateAdminLogin {
		t.Fatal("wrong password should stay on login")
	}
	app.passInput.SetValue("letmein")
	model, _ = app.updateAdminLogin(enter())
	app = model.(*App)
	if app.state != stateAdminMenu {
		t.Fatal("correct password should open admin menu")
	}
}
