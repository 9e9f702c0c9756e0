// Package allocator wires the roster, the history tracker, the scoring
// engine and the audit trail into the operations a shift session performs:
// ranking candidates, saving an allocation and reloading a saved one.
package allocator

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"shiftalloc/internal/audit"
	"shiftalloc/internal/config"
	"shiftalloc/internal/history"
	"shiftalloc/internal/roster"
	"shiftalloc/internal/scoring"
	"shiftalloc/internal/session"
)

// Allocator coordinates one process-wide set of stores. Constructed once in
// main and passed by reference; there are no package-level singletons.
type Allocator struct {
	cfg     *config.Config
	roster  *roster.Roster
	history *history.Tracker
	trail   *audit.Trail
	engine  *scoring.Engine
	logger  *zap.Logger
	now     func() time.Time
}

// Option customizes an Allocator during construction.
type Option func(*Allocator)

// WithClock overrides the clock used for snapshots and history records.
func WithClock(clock func() time.Time) Option {
	return func(a *Allocator) {
		a.now = clock
	}
}

// New builds an allocator over already-loaded stores.
func New(cfg *config.Config, r *roster.Roster, h *history.Tracker, trail *audit.Trail, logger *zap.Logger, opts ...Option) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Allocator{
		cfg:     cfg,
		roster:  r,
		history: h,
		trail:   trail,
		engine:  scoring.New(r, h, cfg.Settings.WindowDays),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config exposes the runtime configuration.
func (a *Allocator) Config() *config.Config { return a.cfg }

// Roster exposes the loaded admin data.
func (a *Allocator) Roster() *roster.Roster { return a.roster }

// History exposes the allocation history tracker.
func (a *Allocator) History() *history.Tracker { return a.history }

// Trail exposes the audit trail.
func (a *Allocator) Trail() *audit.Trail { return a.trail }

// Engine exposes the scoring engine.
func (a *Allocator) Engine() *scoring.Engine { return a.engine }

// StartSession opens a session for a date, shift time and shift group, with
// the group's members as the available pool.
func (a *Allocator) StartSession(date, shiftTime, group string) *session.Session {
	s := session.New(date, shiftTime)
	s.SelectGroup(group, a.roster.GroupMembers(group))
	return s
}

// Candidates ranks the session's still-available workers for a task,
// filtered by the configured minimum rating. Call again whenever the pool
// changes; ranking is always against the current pool.
func (a *Allocator) Candidates(s *session.Session, taskName string, kind roster.TaskKind, product string) []scoring.Breakdown {
	return a.engine.RankEligible(taskName, kind, product, s.Available(), a.cfg.Settings.MinRating)
}

// SnapshotExists reports whether an allocation was already saved for the
// date and shift.
func (a *Allocator) SnapshotExists(date, shiftTime string) (bool, string) {
	return session.SnapshotExists(a.cfg.SnapshotsDir(), date, shiftTime)
}

// LoadSession reconstructs a previously saved allocation.
func (a *Allocator) LoadSession(date, shiftTime string) (*session.Session, error) {
	path := session.SnapshotPath(a.cfg.SnapshotsDir(), date, shiftTime)
	s, err := session.LoadSnapshot(path)
	if err != nil {
		return nil, fmt.Errorf("allocator: load allocation %s %s: %w", date, shiftTime, err)
	}
	return s, nil
}

// Save persists the session: the JSON snapshot is written, every allocation
// to a frequency-tracked task is recorded in the history, and one audit
// entry is logged. Beyond filling in a blank date, the session state is not
// modified, so a failed write can simply be retried.
func (a *Allocator) Save(s *session.Session) (string, error) {
	// A blank date is normalized to today on the session itself so the
	// snapshot filename, history records and audit entry all agree.
	if s.Date == "" {
		s.Date = a.now().Format(history.DateLayout)
	}
	date := s.Date

	existed, _ := a.SnapshotExists(date, s.ShiftTime)

	processes := taskNames(a.roster.Tasks(roster.KindProcess))
	machines := taskNames(a.roster.Tasks(roster.KindMachine))
	path, err := s.SaveSnapshot(a.cfg.SnapshotsDir(), processes, machines, a.now())
	if err != nil {
		return "", err
	}

	allocDate, parseErr := time.Parse(history.DateLayout, date)
	if parseErr != nil {
		allocDate = a.now()
	}
	for task, workers := range s.Allocations() {
		if !a.tracksFrequency(task) {
			continue
		}
		for _, worker := range workers {
			if err := a.history.Record(task, worker, allocDate); err != nil {
				a.logger.Warn("history record failed",
					zap.String("task", task), zap.String("worker", worker), zap.Error(err))
			}
		}
	}

	changeType := audit.AllocationCreated
	if existed {
		changeType = audit.AllocationEdited
	}
	snap := s.BuildSnapshot(processes, machines, a.now())
	details := map[string]string{
		"processes_allocated":    strconv.Itoa(len(snap.Processes)),
		"machines_allocated":     strconv.Itoa(len(snap.Machines)),
		"total_workers_assigned": strconv.Itoa(assignedCount(snap)),
		"unassigned_workers":     strconv.Itoa(len(snap.Unassigned)),
		"group":                  s.Group,
	}
	if _, err := a.trail.LogEdit(changeType, date, s.ShiftTime, details, a.cfg.Settings.User); err != nil {
		a.logger.Warn("audit log failed", zap.Error(err))
	}

	a.logger.Info("allocation saved",
		zap.String("date", date), zap.String("shift", s.ShiftTime), zap.String("path", path))
	return path, nil
}

// LogWorkerChange records a post-save structural edit (a worker added to or
// removed from a task) in the audit trail.
func (a *Allocator) LogWorkerChange(added bool, s *session.Session, task, worker string) {
	changeType := audit.WorkerRemoved
	if added {
		changeType = audit.WorkerAdded
	}
	details := map[string]string{"task": task, "worker": worker}
	if _, err := a.trail.LogEdit(changeType, s.Date, s.ShiftTime, details, a.cfg.Settings.User); err != nil {
		a.logger.Warn("audit log failed", zap.Error(err))
	}
}

// CleanupHistory prunes allocation history past the configured retention.
func (a *Allocator) CleanupHistory() error {
	return a.history.Cleanup(a.cfg.Settings.RetentionDays)
}

func (a *Allocator) tracksFrequency(task string) bool {
	return a.roster.TracksFrequency(task, roster.KindProcess) ||
		a.roster.TracksFrequency(task, roster.KindMachine)
}

func taskNames(tasks []roster.Task) []string {
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name)
	}
	return names
}

func assignedCount(snap session.Snapshot) int {
	total := 0
	for _, t := range snap.Processes {
		total += t.WorkerCount
	}
	for _, t := range snap.Machines {
		total += t.WorkerCount
	}
	return total
}
