// Package history tracks which process groups each worker has recently been
// allocated to, and turns that into the frequency penalty the scoring engine
// subtracts. The log is append-only per date and persisted write-through to
// a single JSON file.
package history

import (
	"time"

	"go.uber.org/zap"

	"shiftalloc/internal/storage"
)

const (
	// DateLayout is the format allocation dates are stored in.
	DateLayout = "2006-01-02"

	// DefaultWindowDays is the lookback used when a caller passes no window.
	DefaultWindowDays = 30

	// DefaultRetentionDays is the cleanup horizon.
	DefaultRetentionDays = 90
)

// GroupResolver maps a task name to its process group. Tasks with no
// explicit mapping resolve to their own name.
type GroupResolver func(taskName string) string

// Tracker is the allocation history: process group -> worker -> dates.
type Tracker struct {
	path    string
	resolve GroupResolver
	logger  *zap.Logger
	now     func() time.Time

	// entries mirrors the on-disk JSON shape exactly.
	entries map[string]map[string][]string
}

// Option customizes a Tracker during construction.
type Option func(*Tracker)

// WithClock overrides the clock, for tests that pin "today".
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		t.now = clock
	}
}

// Load reads the history file into a new tracker. A missing or corrupt file
// starts from empty history; that is logged, never fatal.
func Load(path string, resolve GroupResolver, logger *zap.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolve == nil {
		resolve = func(name string) string { return name }
	}
	t := &Tracker{
		path:    path,
		resolve: resolve,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]map[string][]string),
	}
	for _, opt := range opts {
		opt(t)
	}

	var loaded map[string]map[string][]string
	if err := storage.ReadJSON(path, &loaded); err != nil {
		if !storage.IsNotExist(err) {
			logger.Warn("allocation history unreadable, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return t
	}
	if loaded != nil {
		t.entries = loaded
	}
	return t
}

// Record logs that worker was allocated to the task's process group on the
// given date. A zero date means today. Recording the same date twice is a
// no-op. The file is rewritten after every new date; a write failure is
// returned but the in-memory entry stays.
func (t *Tracker) Record(taskName, worker string, date time.Time) error {
	if date.IsZero() {
		date = t.now()
	}
	day := date.Format(DateLayout)
	group := t.resolve(taskName)

	workers, ok := t.entries[group]
	if !ok {
		workers = make(map[string][]string)
		t.entries[group] = workers
	}
	for _, existing := range workers[worker] {
		if existing == day {
			return nil
		}
	}
	workers[worker] = append(workers[worker], day)
	return t.save()
}

// CountSince counts the distinct dates within the last windowDays
// (inclusive of both today and the window boundary) that worker was
// allocated to the task's process group. Unparseable dates are skipped.
func (t *Tracker) CountSince(taskName, worker string, windowDays int) int {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	group := t.resolve(taskName)
	workers, ok := t.entries[group]
	if !ok {
		return 0
	}
	today := truncateToDay(t.now())
	cutoff := today.AddDate(0, 0, -windowDays)

	count := 0
	for _, raw := range workers[worker] {
		date, err := time.Parse(DateLayout, raw)
		if err != nil {
			continue
		}
		if !date.Before(cutoff) && !date.After(today) {
			count++
		}
	}
	return count
}

// Penalty converts the recent allocation count into the 0-3 scoring
// deduction. The thresholds are load-bearing for ranking order:
// 5+ allocations cost 3 points, 3-4 cost 2, 1-2 cost 1.
func (t *Tracker) Penalty(taskName, worker string, windowDays int) int {
	count := t.CountSince(taskName, worker, windowDays)
	switch {
	case count >= 5:
		return 3
	case count >= 3:
		return 2
	case count >= 1:
		return 1
	default:
		return 0
	}
}

// Stats returns per-group allocation counts for one worker over the window.
// Groups without recent allocations are omitted.
func (t *Tracker) Stats(worker string, windowDays int) map[string]int {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	today := truncateToDay(t.now())
	cutoff := today.AddDate(0, 0, -windowDays)

	stats := make(map[string]int)
	for group, workers := range t.entries {
		count := 0
		for _, raw := range workers[worker] {
			date, err := time.Parse(DateLayout, raw)
			if err != nil {
				continue
			}
			if !date.Before(cutoff) && !date.After(today) {
				count++
			}
		}
		if count > 0 {
			stats[group] = count
		}
	}
	return stats
}

// Groups returns every process group with recorded history.
func (t *Tracker) Groups() []string {
	groups := make([]string, 0, len(t.entries))
	for group := range t.entries {
		groups = append(groups, group)
	}
	return groups
}

// Cleanup drops dates older than retentionDays, then removes workers left
// with no dates and groups left with no workers. Counts for any window at
// or inside the retention horizon are unchanged by construction.
func (t *Tracker) Cleanup(retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	cutoff := truncateToDay(t.now()).AddDate(0, 0, -retentionDays)

	for group, workers := range t.entries {
		for worker, dates := range workers {
			kept := dates[:0]
			for _, raw := range dates {
				date, err := time.Parse(DateLayout, raw)
				if err != nil {
					continue
				}
				if !date.Before(cutoff) {
					kept = append(kept, raw)
				}
			}
			if len(kept) == 0 {
				delete(workers, worker)
			} else {
				workers[worker] = kept
			}
		}
		if len(workers) == 0 {
			delete(t.entries, group)
		}
	}
	return t.save()
}

func (t *Tracker) save() error {
	if err := storage.WriteJSON(t.path, t.entries); err != nil {
		t.logger.Warn("failed to persist allocation history", zap.Error(err))
		return err
	}
	return nil
}

func truncateToDay(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
