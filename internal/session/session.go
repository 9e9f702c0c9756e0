// Package session owns the in-memory allocation state for one shift: the
// available pool, the overtime/temp tags and the task assignments. Every
// mutation preserves the partition invariant — a worker is either in the
// pool or assigned to exactly one task, never both, never two tasks.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Precondition violations. These indicate caller bugs, not recoverable
// conditions, and are never silently coerced.
var (
	// ErrNotAvailable means a worker handed to Allocate is not in the pool.
	ErrNotAvailable = errors.New("session: worker is not in the available pool")

	// ErrAlreadyAllocated means the task already has an assignment; callers
	// wanting to replace it reset the task first.
	ErrAlreadyAllocated = errors.New("session: task is already allocated")
)

// Session is the mutable state of one in-progress shift allocation.
type Session struct {
	Date      string
	ShiftTime string
	Group     string

	available   []string
	overtime    []string
	temp        []string
	allocations map[string][]string
	products    map[string]string
	lots        map[string]string
}

// New starts an empty session for a date and shift time.
func New(date, shiftTime string) *Session {
	return &Session{
		Date:        date,
		ShiftTime:   shiftTime,
		allocations: make(map[string][]string),
		products:    make(map[string]string),
		lots:        make(map[string]string),
	}
}

// SelectGroup sets the shift group and seeds the available pool with a copy
// of its members. Any previous pool and assignments are discarded.
func (s *Session) SelectGroup(group string, members []string) {
	s.Group = group
	s.available = append([]string(nil), members...)
	s.allocations = make(map[string][]string)
	s.products = make(map[string]string)
	s.lots = make(map[string]string)
}

// ConfirmAbsentees shrinks the pool to only the workers marked present.
func (s *Session) ConfirmAbsentees(present []string) {
	keep := make(map[string]bool, len(present))
	for _, w := range present {
		keep[w] = true
	}
	filtered := s.available[:0]
	for _, w := range s.available {
		if keep[w] {
			filtered = append(filtered, w)
		}
	}
	s.available = filtered
}

// AddOvertime tags workers as overtime and adds them to the pool if absent.
func (s *Session) AddOvertime(workers ...string) {
	for _, w := range workers {
		if !contains(s.overtime, w) {
			s.overtime = append(s.overtime, w)
		}
		if !s.Has(w) {
			s.available = append(s.available, w)
		}
	}
}

// AddTemp tags workers as temporary and adds them to the pool if absent.
func (s *Session) AddTemp(workers ...string) {
	for _, w := range workers {
		if !contains(s.temp, w) {
			s.temp = append(s.temp, w)
		}
		if !s.Has(w) {
			s.available = append(s.available, w)
		}
	}
}

// AddShiftSwap removes swapped-out workers from the pool and adds the
// swapped-in replacements.
func (s *Session) AddShiftSwap(removed, added []string) {
	for _, w := range removed {
		s.removeAvailable(w)
	}
	for _, w := range added {
		if !s.Has(w) {
			s.available = append(s.available, w)
		}
	}
}

// Available returns a copy of the current pool.
func (s *Session) Available() []string {
	return append([]string(nil), s.available...)
}

// Has reports whether a worker is anywhere in the session: pool or assigned.
func (s *Session) Has(worker string) bool {
	if contains(s.available, worker) {
		return true
	}
	for _, workers := range s.allocations {
		if contains(workers, worker) {
			return true
		}
	}
	return false
}

// Allocate moves workers from the pool into the task's assignment list.
// Every worker must currently be available and the task must not already be
// allocated; either violation fails loudly and leaves the state untouched.
func (s *Session) Allocate(task string, workers []string) error {
	if _, ok := s.allocations[task]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyAllocated, task)
	}
	seen := make(map[string]struct{}, len(workers))
	for _, w := range workers {
		// A repeated name is no longer in the pool by the time its second
		// occurrence would be taken.
		if _, dup := seen[w]; dup {
			return fmt.Errorf("%w: %s", ErrNotAvailable, w)
		}
		seen[w] = struct{}{}
		if !contains(s.available, w) {
			return fmt.Errorf("%w: %s", ErrNotAvailable, w)
		}
	}
	for _, w := range workers {
		s.removeAvailable(w)
	}
	s.allocations[task] = append([]string(nil), workers...)
	return nil
}

// Reset returns a task's workers to the pool and clears its product and lot
// selection. Resetting an unallocated task is a no-op.
func (s *Session) Reset(task string) {
	workers, ok := s.allocations[task]
	if !ok {
		return
	}
	s.available = append(s.available, workers...)
	delete(s.allocations, task)
	delete(s.products, task)
	delete(s.lots, task)
}

// ResetAll returns every assigned worker to the pool and clears all task
// state.
func (s *Session) ResetAll() {
	for _, workers := range s.allocations {
		s.available = append(s.available, workers...)
	}
	s.allocations = make(map[string][]string)
	s.products = make(map[string]string)
	s.lots = make(map[string]string)
}

// Allocations returns a copy of the task assignments.
func (s *Session) Allocations() map[string][]string {
	out := make(map[string][]string, len(s.allocations))
	for task, workers := range s.allocations {
		out[task] = append([]string(nil), workers...)
	}
	return out
}

// Assigned returns the workers allocated to one task.
func (s *Session) Assigned(task string) []string {
	return append([]string(nil), s.allocations[task]...)
}

// AllocatedTasks returns the names of allocated tasks, sorted.
func (s *Session) AllocatedTasks() []string {
	tasks := make([]string, 0, len(s.allocations))
	for task := range s.allocations {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)
	return tasks
}

// SetProduct records the product selection for a task. Blank or placeholder
// values clear the selection.
func (s *Session) SetProduct(task, product string) {
	product = strings.TrimSpace(product)
	if product == "" {
		delete(s.products, task)
		return
	}
	s.products[task] = product
}

// Product returns the product selected for a task, or "".
func (s *Session) Product(task string) string {
	return s.products[task]
}

// SetLot records the lot number for a task; blank clears it.
func (s *Session) SetLot(task, lot string) {
	lot = strings.TrimSpace(lot)
	if lot == "" {
		delete(s.lots, task)
		return
	}
	s.lots[task] = lot
}

// Lot returns the lot number for a task, or "".
func (s *Session) Lot(task string) string {
	return s.lots[task]
}

// IsOvertime reports whether the worker carries the overtime tag.
func (s *Session) IsOvertime(worker string) bool {
	return contains(s.overtime, worker)
}

// IsTemp reports whether the worker carries the temp tag.
func (s *Session) IsTemp(worker string) bool {
	return contains(s.temp, worker)
}

// Overtime returns the overtime-tagged workers.
func (s *Session) Overtime() []string {
	return append([]string(nil), s.overtime...)
}

// Temp returns the temp-tagged workers.
func (s *Session) Temp() []string {
	return append([]string(nil), s.temp...)
}

// DisplayName decorates a worker name for presentation. The decoration is
// never used as a lookup key; identity stays the bare name.
func (s *Session) DisplayName(worker string) string {
	if s.IsOvertime(worker) {
		return worker + " (OT)"
	}
	if s.IsTemp(worker) {
		return worker + " (Temp)"
	}
	return worker
}

// AllWorkers returns every worker known to the session: pool plus assigned.
func (s *Session) AllWorkers() []string {
	out := append([]string(nil), s.available...)
	for _, workers := range s.allocations {
		out = append(out, workers...)
	}
	return out
}

func (s *Session) removeAvailable(worker string) {
	for i, w := range s.available {
		if w == worker {
			s.available = append(s.available[:i], s.available[i+1:]...)
			return
		}
	}
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}
