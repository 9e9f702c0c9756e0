// Package roster holds the admin data the allocator runs against: workers
// with their skill ratings, the task list, products and the process-group
// map. It is loaded once at startup from the CSV files under
// .shiftalloc/utils and referenced, never mutated, during an allocation
// session; the data editor writes back through SetSkill.
package roster

import (
	"sort"
	"strings"
)

// TaskKind distinguishes production processes from compression machines.
type TaskKind string

const (
	KindProcess TaskKind = "Process"
	KindMachine TaskKind = "Machine"
)

const (
	// MinRating and MaxRating bound every skill cell.
	MinRating = 0
	MaxRating = 5
)

// Task is a process or machine requiring a fixed number of workers per shift.
type Task struct {
	Name           string
	Kind           TaskKind
	Slots          int
	TrackFrequency bool
}

// Worker is one roster row: a name, a shift group and the skill ratings for
// every task and product. Ratings default to zero for anything unknown.
type Worker struct {
	Name          string
	Group         string
	ProcessSkills map[string]int
	MachineSkills map[string]int
	ProductSkills map[string]int
}

// Candidate is one ranked entry returned by RankedCandidates.
type Candidate struct {
	Worker       string
	Combined     int
	TaskSkill    int
	ProductSkill int
}

// Roster is the in-memory repository backing skill lookups. Workers are kept
// in file order so ranking ties resolve the same way on every run.
type Roster struct {
	workers   []*Worker
	byName    map[string]*Worker
	processes []Task
	machines  []Task
	products  []string
	groups    map[string]string // task name -> process group

	// productRatings carries products.csv rows until the matching worker
	// row is read, since the two files can list workers in any order.
	productRatings map[string]map[string]int
}

// New returns an empty roster. The Load* functions in csv.go populate it.
func New() *Roster {
	return &Roster{
		byName:         make(map[string]*Worker),
		groups:         make(map[string]string),
		productRatings: make(map[string]map[string]int),
	}
}

// Workers returns worker names in roster file order.
func (r *Roster) Workers() []string {
	names := make([]string, 0, len(r.workers))
	for _, w := range r.workers {
		names = append(names, w.Name)
	}
	return names
}

// ShiftGroups returns the distinct shift groups present in the roster, in
// first-appearance order.
func (r *Roster) ShiftGroups() []string {
	seen := make(map[string]struct{})
	var groups []string
	for _, w := range r.workers {
		if w.Group == "" {
			continue
		}
		if _, ok := seen[w.Group]; ok {
			continue
		}
		seen[w.Group] = struct{}{}
		groups = append(groups, w.Group)
	}
	return groups
}

// WorkerGroup returns the shift group a worker belongs to, or "" for an
// unknown worker.
func (r *Roster) WorkerGroup(name string) string {
	if w, ok := r.byName[name]; ok {
		return w.Group
	}
	return ""
}

// GroupMembers returns the names of every worker in the given shift group,
// in roster file order.
func (r *Roster) GroupMembers(group string) []string {
	var names []string
	for _, w := range r.workers {
		if w.Group == group {
			names = append(names, w.Name)
		}
	}
	return names
}

// Tasks returns the task list for one kind, in file order.
func (r *Roster) Tasks(kind TaskKind) []Task {
	if kind == KindMachine {
		return append([]Task(nil), r.machines...)
	}
	return append([]Task(nil), r.processes...)
}

// Products returns the known product names.
func (r *Roster) Products() []string {
	return append([]string(nil), r.products...)
}

// TaskMeta looks up a task by name and kind.
func (r *Roster) TaskMeta(name string, kind TaskKind) (Task, bool) {
	list := r.processes
	if kind == KindMachine {
		list = r.machines
	}
	for _, t := range list {
		if t.Name == name {
			return t, true
		}
	}
	return Task{}, false
}

// SlotsFor returns the worker count a task needs, or zero for an unknown task.
func (r *Roster) SlotsFor(name string, kind TaskKind) int {
	t, ok := r.TaskMeta(name, kind)
	if !ok {
		return 0
	}
	return t.Slots
}

// TracksFrequency reports whether the task participates in frequency-penalty
// accounting. Unknown tasks do not.
func (r *Roster) TracksFrequency(name string, kind TaskKind) bool {
	t, ok := r.TaskMeta(name, kind)
	return ok && t.TrackFrequency
}

// GroupFor resolves a task name to its process group. Tasks with no explicit
// mapping use their own name as the group, so ungrouped tasks never share
// penalty state with anything else.
func (r *Roster) GroupFor(taskName string) string {
	if group, ok := r.groups[taskName]; ok {
		return group
	}
	return taskName
}

// SkillFor returns the 0-5 rating a worker holds for a task. Unknown workers
// or tasks rate zero, never an error.
func (r *Roster) SkillFor(worker, taskName string, kind TaskKind) int {
	w, ok := r.byName[worker]
	if !ok {
		return 0
	}
	switch kind {
	case KindMachine:
		return w.MachineSkills[taskName]
	default:
		return w.ProcessSkills[taskName]
	}
}

// ProductSkillFor returns the 0-5 rating a worker holds for a product.
func (r *Roster) ProductSkillFor(worker, product string) int {
	w, ok := r.byName[worker]
	if !ok {
		return 0
	}
	return w.ProductSkills[product]
}

// CombinedSkill is the task rating plus the product rating. With no product
// selected it is the task rating alone.
func (r *Roster) CombinedSkill(worker, taskName string, kind TaskKind, product string) int {
	skill := r.SkillFor(worker, taskName, kind)
	if product != "" {
		skill += r.ProductSkillFor(worker, product)
	}
	return skill
}

// RankedCandidates lists workers whose combined skill for the task-product
// pair reaches minRating, sorted by combined skill descending. The sort is
// stable, so ties keep roster file order. An empty group matches everyone.
func (r *Roster) RankedCandidates(taskName string, kind TaskKind, product string, minRating int, group string) []Candidate {
	var out []Candidate
	for _, w := range r.workers {
		if group != "" && w.Group != group {
			continue
		}
		taskSkill := r.SkillFor(w.Name, taskName, kind)
		productSkill := 0
		if product != "" {
			productSkill = r.ProductSkillFor(w.Name, product)
		}
		combined := taskSkill + productSkill
		if combined < minRating {
			continue
		}
		out = append(out, Candidate{
			Worker:       w.Name,
			Combined:     combined,
			TaskSkill:    taskSkill,
			ProductSkill: productSkill,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Combined > out[j].Combined
	})
	return out
}

// SetSkill updates one worker's rating for a task. Ratings are clamped to
// the 0-5 scale. The change is in-memory only until SaveWorkersCSV.
func (r *Roster) SetSkill(worker, taskName string, kind TaskKind, rating int) bool {
	w, ok := r.byName[worker]
	if !ok {
		return false
	}
	if rating < MinRating {
		rating = MinRating
	}
	if rating > MaxRating {
		rating = MaxRating
	}
	switch kind {
	case KindMachine:
		w.MachineSkills[taskName] = rating
	default:
		w.ProcessSkills[taskName] = rating
	}
	return true
}

// AddWorker inserts a worker programmatically. Nil skill maps are
// initialized. Used by the data editor and by in-memory test fixtures.
func (r *Roster) AddWorker(w Worker) {
	if w.ProcessSkills == nil {
		w.ProcessSkills = make(map[string]int)
	}
	if w.MachineSkills == nil {
		w.MachineSkills = make(map[string]int)
	}
	if w.ProductSkills == nil {
		w.ProductSkills = make(map[string]int)
	}
	r.addWorker(&w)
}

// AddTask inserts a task programmatically. Slots below one are raised to one.
func (r *Roster) AddTask(t Task) {
	if t.Slots < 1 {
		t.Slots = 1
	}
	if t.Kind == KindMachine {
		r.machines = append(r.machines, t)
		return
	}
	t.Kind = KindProcess
	r.processes = append(r.processes, t)
}

// SetProcessGroup maps a task name onto a process group.
func (r *Roster) SetProcessGroup(taskName, group string) {
	r.groups[taskName] = group
}

func (r *Roster) addWorker(w *Worker) {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return
	}
	if existing, ok := r.byName[w.Name]; ok {
		// Later rows win, matching a wholesale file reload.
		*existing = *w
		return
	}
	r.workers = append(r.workers, w)
	r.byName[w.Name] = w
}
