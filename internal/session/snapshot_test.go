package session

import (
	"path/filepath"
	"sort"
	"testing"
	"time"
)

var snapNow = time.Date(2025, time.March, 15, 14, 0, 0, 0, time.UTC)

func buildPopulatedSession(t *testing.T) *Session {
	t.Helper()
	s := New("2025-03-15", "Morning")
	s.SelectGroup("Group A", []string{"Alice", "Bob", "Carol", "Dave"})
	s.AddOvertime("Eve")
	s.AddTemp("Frank")
	if err := s.Allocate("Granulation", []string{"Alice", "Eve"}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := s.Allocate("Tablet Press A", []string{"Bob"}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	s.SetProduct("Granulation", "Loratadine")
	s.SetLot("Granulation", "L-1001")
	return s
}

func TestBuildSnapshotShape(t *testing.T) {
	s := buildPopulatedSession(t)
	snap := s.BuildSnapshot([]string{"Granulation", "Blending"}, []string{"Tablet Press A"}, snapNow)

	if snap.Metadata.Date != "2025-03-15" || snap.Metadata.ShiftTime != "Morning" || snap.Metadata.ShiftGroup != "Group A" {
		t.Fatalf("metadata = %+v", snap.Metadata)
	}
	if snap.Metadata.ExportedAt != "2025-03-15 14:00:00" {
		t.Fatalf("exported_at = %q", snap.Metadata.ExportedAt)
	}
	// Blending was never allocated, so only one process appears.
	if len(snap.Processes) != 1 || snap.Processes[0].Name != "Granulation" {
		t.Fatalf("processes = %v", snap.Processes)
	}
	proc := snap.Processes[0]
	if proc.Product != "Loratadine" || proc.LotNumber != "L-1001" || proc.WorkerCount != 2 {
		t.Fatalf("process = %+v", proc)
	}
	if proc.Workers[1].DisplayName != "Eve (OT)" || !proc.Workers[1].IsOvertime {
		t.Fatalf("overtime worker snapshot = %+v", proc.Workers[1])
	}
	if len(snap.Machines) != 1 || snap.Machines[0].Product != "N/A" || snap.Machines[0].LotNumber != "N/A" {
		t.Fatalf("machines = %v", snap.Machines)
	}
	// Unassigned: Carol, Dave, Frank — sorted.
	var names []string
	for _, w := range snap.Unassigned {
		names = append(names, w.Name)
	}
	if !sort.StringsAreSorted(names) || len(names) != 3 {
		t.Fatalf("unassigned = %v, want 3 sorted names", names)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := buildPopulatedSession(t)
	dir := t.TempDir()
	path, err := s.SaveSnapshot(dir, []string{"Granulation", "Blending"}, []string{"Tablet Press A"}, snapNow)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "Allocation_2025-03-15_Morning.json" {
		t.Fatalf("filename = %s", filepath.Base(path))
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Date != s.Date || loaded.ShiftTime != s.ShiftTime || loaded.Group != s.Group {
		t.Fatalf("metadata mismatch: %s/%s/%s", loaded.Date, loaded.ShiftTime, loaded.Group)
	}
	wantAlloc := s.Allocations()
	gotAlloc := loaded.Allocations()
	if len(gotAlloc) != len(wantAlloc) {
		t.Fatalf("allocations = %d tasks, want %d", len(gotAlloc), len(wantAlloc))
	}
	for task, want := range wantAlloc {
		got := gotAlloc[task]
		if len(got) != len(want) {
			t.Fatalf("task %s = %v, want %v", task, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("task %s = %v, want %v", task, got, want)
			}
		}
	}
	if loaded.Product("Granulation") != "Loratadine" || loaded.Lot("Granulation") != "L-1001" {
		t.Fatalf("product/lot = %q/%q", loaded.Product("Granulation"), loaded.Lot("Granulation"))
	}
	if loaded.Product("Tablet Press A") != "" {
		t.Fatalf("N/A product restored as %q, want unset", loaded.Product("Tablet Press A"))
	}
	if !loaded.IsOvertime("Eve") || !loaded.IsTemp("Frank") {
		t.Fatal("tags lost in round trip")
	}

	wantPool := s.Available()
	gotPool := loaded.Available()
	sort.Strings(wantPool)
	sort.Strings(gotPool)
	if len(gotPool) != len(wantPool) {
		t.Fatalf("pool = %v, want %v", gotPool, wantPool)
	}
	for i := range wantPool {
		if gotPool[i] != wantPool[i] {
			t.Fatalf("pool = %v, want %v", gotPool, wantPool)
		}
	}
}

func TestSnapshotExists(t *testing.T) {
	dir := t.TempDir()
	ok, _ := SnapshotExists(dir, "2025-03-15", "Morning")
	if ok {
		t.Fatal("exists before save")
	}
	s := buildPopulatedSession(t)
	if _, err := s.SaveSnapshot(dir, []string{"Granulation"}, nil, snapNow); err != nil {
		t.Fatalf("save: %v", err)
	}
	ok, path := SnapshotExists(dir, "2025-03-15", "Morning")
	if !ok {
		t.Fatal("missing after save")
	}
	if filepath.Base(path) != "Allocation_2025-03-15_Morning.json" {
		t.Fatalf("path = %s", path)
	}
}
