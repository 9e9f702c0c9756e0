package session

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"shiftalloc/internal/storage"
)

// noValue is what the snapshot writes for an absent product or lot number.
const noValue = "N/A"

// Snapshot is the persisted JSON form of an allocation, one file per
// date+shift. The shape is shared with the viewers and exporters, so field
// names are part of the on-disk contract.
type Snapshot struct {
	Metadata   SnapshotMetadata `json:"metadata"`
	Processes  []TaskSnapshot   `json:"processes"`
	Machines   []TaskSnapshot   `json:"machines"`
	Unassigned []WorkerSnapshot `json:"unassigned_workers"`
}

// SnapshotMetadata identifies the shift the snapshot belongs to.
type SnapshotMetadata struct {
	Date       string `json:"date"`
	ShiftTime  string `json:"shift_time"`
	ShiftGroup string `json:"shift_group"`
	ExportedAt string `json:"exported_at"`
}

// TaskSnapshot is one allocated process or machine.
type TaskSnapshot struct {
	Name        string           `json:"name"`
	Product     string           `json:"product"`
	LotNumber   string           `json:"lot_number"`
	Workers     []WorkerSnapshot `json:"workers"`
	WorkerCount int              `json:"worker_count"`
}

// WorkerSnapshot records a worker with their display decoration and tags.
// Identity is Name; DisplayName is presentation only.
type WorkerSnapshot struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	IsOvertime  bool   `json:"is_overtime"`
	IsTemp      bool   `json:"is_temp"`
}

// Filename returns the snapshot filename for a date and shift time.
func Filename(date, shiftTime string) string {
	return fmt.Sprintf("Allocation_%s_%s.json", date, shiftTime)
}

// SnapshotPath returns the full path of the snapshot for a date and shift.
func SnapshotPath(dir, date, shiftTime string) string {
	return filepath.Join(dir, Filename(date, shiftTime))
}

// SnapshotExists reports whether an allocation was already saved for the
// date and shift, and where.
func SnapshotExists(dir, date, shiftTime string) (bool, string) {
	path := SnapshotPath(dir, date, shiftTime)
	return storage.Exists(path), path
}

// BuildSnapshot assembles the snapshot for the session. Tasks appear in the
// order of the supplied name lists (roster file order) and only when
// allocated; unassigned workers are sorted by name.
func (s *Session) BuildSnapshot(processes, machines []string, now time.Time) Snapshot {
	snap := Snapshot{
		Metadata: SnapshotMetadata{
			Date:       s.Date,
			ShiftTime:  s.ShiftTime,
			ShiftGroup: s.Group,
			ExportedAt: now.Format("2006-01-02 15:04:05"),
		},
		Processes:  []TaskSnapshot{},
		Machines:   []TaskSnapshot{},
		Unassigned: []WorkerSnapshot{},
	}
	for _, name := range processes {
		if t, ok := s.taskSnapshot(name); ok {
			snap.Processes = append(snap.Processes, t)
		}
	}
	for _, name := range machines {
		if t, ok := s.taskSnapshot(name); ok {
			snap.Machines = append(snap.Machines, t)
		}
	}
	unassigned := s.Available()
	sort.Strings(unassigned)
	for _, w := range unassigned {
		snap.Unassigned = append(snap.Unassigned, s.workerSnapshot(w))
	}
	return snap
}

// SaveSnapshot writes the snapshot for this session into dir, atomically.
func (s *Session) SaveSnapshot(dir string, processes, machines []string, now time.Time) (string, error) {
	path := SnapshotPath(dir, s.Date, s.ShiftTime)
	snap := s.BuildSnapshot(processes, machines, now)
	if err := storage.WriteJSON(path, snap); err != nil {
		return "", err
	}
	return path, nil
}

// LoadSnapshot reads a snapshot file and reconstructs the session it
// captured: allocations, product and lot selections, overtime/temp tags and
// the unassigned pool.
func LoadSnapshot(path string) (*Session, error) {
	var snap Snapshot
	if err := storage.ReadJSON(path, &snap); err != nil {
		return nil, err
	}

	s := New(snap.Metadata.Date, snap.Metadata.ShiftTime)
	s.Group = snap.Metadata.ShiftGroup

	restore := func(tasks []TaskSnapshot) {
		for _, t := range tasks {
			workers := make([]string, 0, len(t.Workers))
			for _, w := range t.Workers {
				workers = append(workers, w.Name)
				s.restoreTags(w)
			}
			s.allocations[t.Name] = workers
			if t.Product != noValue && t.Product != "" {
				s.products[t.Name] = t.Product
			}
			if t.LotNumber != noValue && t.LotNumber != "" {
				s.lots[t.Name] = t.LotNumber
			}
		}
	}
	restore(snap.Processes)
	restore(snap.Machines)

	for _, w := range snap.Unassigned {
		s.available = append(s.available, w.Name)
		s.restoreTags(w)
	}
	return s, nil
}

func (s *Session) restoreTags(w WorkerSnapshot) {
	if w.IsOvertime && !contains(s.overtime, w.Name) {
		s.overtime = append(s.overtime, w.Name)
	}
	if w.IsTemp && !contains(s.temp, w.Name) {
		s.temp = append(s.temp, w.Name)
	}
}

func (s *Session) taskSnapshot(name string) (TaskSnapshot, bool) {
	workers, ok := s.allocations[name]
	if !ok {
		return TaskSnapshot{}, false
	}
	t := TaskSnapshot{
		Name:        name,
		Product:     valueOr(s.products[name]),
		LotNumber:   valueOr(s.lots[name]),
		Workers:     make([]WorkerSnapshot, 0, len(workers)),
		WorkerCount: len(workers),
	}
	for _, w := range workers {
		t.Workers = append(t.Workers, s.workerSnapshot(w))
	}
	return t, true
}

func (s *Session) workerSnapshot(name string) WorkerSnapshot {
	return WorkerSnapshot{
		Name:        name,
		DisplayName: s.DisplayName(name),
		IsOvertime:  s.IsOvertime(name),
		IsTemp:      s.IsTemp(name),
	}
}

func valueOr(v string) string {
	if v == "" {
		return noValue
	}
	return v
}
