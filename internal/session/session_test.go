package session

import (
	"errors"
	"sort"
	"testing"
)

var crew = []string{"Alice", "Bob", "Carol", "Dave"}

func newTestSession() *Session {
	s := New("2025-03-15", "Morning")
	s.SelectGroup("Group A", crew)
	return s
}

// checkPartition verifies the core invariant: the pool and the task lists
// partition the session's workers with no duplicates.
func checkPartition(t *testing.T, s *Session, want []string) {
	t.Helper()
	seen := map[string]int{}
	for _, w := range s.Available() {
		seen[w]++
	}
	for _, workers := range s.Allocations() {
		for _, w := range workers {
			seen[w]++
		}
	}
	if len(seen) != len(want) {
		t.Fatalf("partition covers %d workers, want %d", len(seen), len(want))
	}
	for _, w := range want {
		if seen[w] != 1 {
			t.Fatalf("worker %s appears %d times, want exactly 1", w, seen[w])
		}
	}
}

func TestSelectGroupCopiesMembers(t *testing.T) {
	s := newTestSession()
	got := s.Available()
	if len(got) != len(crew) {
		t.Fatalf("pool = %d workers, want %d", len(got), len(crew))
	}
	got[0] = "Mallory"
	if s.Available()[0] != "Alice" {
		t.Fatal("Available returned a live reference to the pool")
	}
}

func TestConfirmAbsentees(t *testing.T) {
	s := newTestSession()
	s.ConfirmAbsentees([]string{"Alice", "Carol"})
	got := s.Available()
	if len(got) != 2 || got[0] != "Alice" || got[1] != "Carol" {
		t.Fatalf("pool = %v, want [Alice Carol]", got)
	}
}

func TestAllocateMovesWorkersOut(t *testing.T) {
	s := newTestSession()
	if err := s.Allocate("Granulation", []string{"Alice", "Bob"}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := s.Assigned("Granulation"); len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Fatalf("assigned = %v, want [Alice Bob]", got)
	}
	for _, w := range s.Available() {
		if w == "Alice" || w == "Bob" {
			t.Fatalf("worker %s still in pool after allocation", w)
		}
	}
	checkPartition(t, s, crew)
}

func TestAllocateRejectsUnavailableWorker(t *testing.T) {
	s := newTestSession()
	err := s.Allocate("Granulation", []string{"Alice", "Mallory"})
	if !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("err = %v, want ErrNotAvailable", err)
	}
	// The failed call must not have moved anyone.
	if len(s.Available()) != len(crew) {
		t.Fatalf("pool = %d workers after failed allocate, want %d", len(s.Available()), len(crew))
	}
	if len(s.Allocations()) != 0 {
		t.Fatal("failed allocate left a task assignment behind")
	}
}

func TestAllocateRejectsRepeatedWorker(t *testing.T) {
	s := newTestSession()
	err := s.Allocate("Granulation", []string{"Alice", "Alice"})
	if !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("err = %v, want ErrNotAvailable", err)
	}
	if len(s.Allocations()) != 0 {
		t.Fatal("failed allocate left a task assignment behind")
	}
	// A repeat must not be able to multiply a worker through a reset cycle.
	s.ResetAll()
	checkPartition(t, s, crew)
}

func TestDoubleAllocateRaises(t *testing.T) {
	s := newTestSession()
	if err := s.Allocate("Granulation", []string{"Alice"}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	err := s.Allocate("Granulation", []string{"Bob"})
	if !errors.Is(err, ErrAlreadyAllocated) {
		t.Fatalf("err = %v, want ErrAlreadyAllocated", err)
	}
	if got := s.Assigned("Granulation"); len(got) != 1 || got[0] != "Alice" {
		t.Fatalf("assigned = %v, want [Alice] untouched", got)
	}
	checkPartition(t, s, crew)
}

func TestResetReturnsWorkersAndClearsSelections(t *testing.T) {
	s := newTestSession()
	if err := s.Allocate("Granulation", []string{"Alice", "Bob"}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	s.SetProduct("Granulation", "Loratadine")
	s.SetLot("Granulation", "L-1001")

	s.Reset("Granulation")
	if len(s.Allocations()) != 0 {
		t.Fatal("reset left the allocation behind")
	}
	if s.Product("Granulation") != "" || s.Lot("Granulation") != "" {
		t.Fatal("reset left product/lot selection behind")
	}
	checkPartition(t, s, crew)
}

func TestResetAll(t *testing.T) {
	s := newTestSession()
	if err := s.Allocate("Granulation", []string{"Alice"}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := s.Allocate("Blending", []string{"Bob", "Carol"}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	s.SetProduct("Blending", "Gabapentin")

	s.ResetAll()
	if len(s.Allocations()) != 0 {
		t.Fatal("resetAll left allocations behind")
	}
	if s.Product("Blending") != "" {
		t.Fatal("resetAll left product selection behind")
	}
	got := s.Available()
	sort.Strings(got)
	if len(got) != len(crew) {
		t.Fatalf("pool = %v, want all of %v", got, crew)
	}
	checkPartition(t, s, crew)
}

func TestPartitionHoldsAcrossMutationSequence(t *testing.T) {
	s := newTestSession()
	steps := []func() error{
		func() error { return s.Allocate("Granulation", []string{"Alice", "Bob"}) },
		func() error { s.Reset("Granulation"); return nil },
		func() error { return s.Allocate("Blending", []string{"Carol"}) },
		func() error { return s.Allocate("Granulation", []string{"Alice"}) },
		func() error { s.ResetAll(); return nil },
		func() error { return s.Allocate("Tablet Press A", []string{"Dave", "Bob"}) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		checkPartition(t, s, crew)
	}
}

func TestOvertimeAndTempTags(t *testing.T) {
	s := newTestSession()
	s.AddOvertime("Eve")
	s.AddTemp("Frank")
	s.AddOvertime("Eve") // tagging twice must not duplicate

	all := append([]string(nil), crew...)
	all = append(all, "Eve", "Frank")
	checkPartition(t, s, all)

	if !s.IsOvertime("Eve") || s.IsTemp("Eve") {
		t.Fatal("Eve should be overtime only")
	}
	if got := s.DisplayName("Eve"); got != "Eve (OT)" {
		t.Fatalf("display = %q, want Eve (OT)", got)
	}
	if got := s.DisplayName("Frank"); got != "Frank (Temp)" {
		t.Fatalf("display = %q, want Frank (Temp)", got)
	}
	if got := s.DisplayName("Alice"); got != "Alice" {
		t.Fatalf("display = %q, want bare name", got)
	}
	if got := len(s.Overtime()); got != 1 {
		t.Fatalf("overtime list = %d entries, want 1", got)
	}
}

func TestAddShiftSwap(t *testing.T) {
	s := newTestSession()
	s.AddShiftSwap([]string{"Alice"}, []string{"Grace"})
	got := s.Available()
	for _, w := range got {
		if w == "Alice" {
			t.Fatal("swapped-out worker still in pool")
		}
	}
	if !s.Has("Grace") {
		t.Fatal("swapped-in worker missing from pool")
	}
}

func TestSetProductBlankClears(t *testing.T) {
	s := newTestSession()
	s.SetProduct("Granulation", "Loratadine")
	s.SetProduct("Granulation", "  ")
	if got := s.Product("Granulation"); got != "" {
		t.Fatalf("product = %q, want cleared", got)
	}
	s.SetLot("Granulation", " L-1 ")
	if got := s.Lot("Granulation"); got != "L-1" {
		t.Fatalf("lot = %q, want trimmed L-1", got)
	}
}
