// Package audit keeps the append-only log of structural edits made to saved
// allocations. Entries are never mutated or deleted individually; queries
// filter by allocation date and shift or by recency. This log is separate
// from the allocation history the scoring penalty reads.
package audit

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"shiftalloc/internal/storage"
)

// ChangeType enumerates the structural edits the trail records.
type ChangeType string

const (
	AllocationCreated ChangeType = "ALLOCATION_CREATED"
	AllocationEdited  ChangeType = "ALLOCATION_EDITED"
	AllocationDeleted ChangeType = "ALLOCATION_DELETED"
	WorkerAdded       ChangeType = "WORKER_ADDED"
	WorkerRemoved     ChangeType = "WORKER_REMOVED"
	ProductChanged    ChangeType = "PRODUCT_CHANGED"
	LotNumberChanged  ChangeType = "LOT_NUMBER_CHANGED"
)

const timestampLayout = "2006-01-02 15:04:05"

// Entry is one immutable audit record.
type Entry struct {
	ID             string            `json:"id"`
	Timestamp      string            `json:"timestamp"`
	ChangeType     ChangeType        `json:"change_type"`
	AllocationDate string            `json:"allocation_date"`
	ShiftTime      string            `json:"shift_time"`
	User           string            `json:"user"`
	Details        map[string]string `json:"details"`
}

// Trail is the file-backed audit log. Loaded once at startup and rewritten
// after every appended entry.
type Trail struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	entries []Entry

	// lastID and dupCount guard entry IDs against same-microsecond calls.
	mu       sync.Mutex
	lastID   string
	dupCount int
}

// Option customizes a Trail during construction.
type Option func(*Trail)

// WithClock overrides the clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(t *Trail) {
		t.now = clock
	}
}

// Load reads the audit file into a new trail. A missing or corrupt file
// starts an empty trail; that is logged, never fatal.
func Load(path string, logger *zap.Logger, opts ...Option) *Trail {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Trail{path: path, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	var loaded []Entry
	if err := storage.ReadJSON(path, &loaded); err != nil {
		if !storage.IsNotExist(err) {
			logger.Warn("audit trail unreadable, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return t
	}
	t.entries = loaded
	return t
}

// LogEdit appends one entry and persists the trail. The returned ID is
// unique and monotonically increasing under normal clock behavior. A write
// failure is returned but the in-memory entry stays appended.
func (t *Trail) LogEdit(changeType ChangeType, allocationDate, shiftTime string, details map[string]string, user string) (string, error) {
	if details == nil {
		details = map[string]string{}
	}
	ts := t.now()
	entry := Entry{
		ID:             t.nextID(ts),
		Timestamp:      ts.Format(timestampLayout),
		ChangeType:     changeType,
		AllocationDate: allocationDate,
		ShiftTime:      shiftTime,
		User:           user,
		Details:        details,
	}
	t.entries = append(t.entries, entry)
	if err := storage.WriteJSON(t.path, t.entries); err != nil {
		t.logger.Warn("failed to persist audit trail", zap.Error(err))
		return entry.ID, err
	}
	return entry.ID, nil
}

// nextID derives an ID from the timestamp down to microseconds. Rapid
// successive calls inside the same microsecond get a counter suffix so IDs
// stay unique and ordered.
func (t *Trail) nextID(ts time.Time) string {
	id := ts.Format("20060102150405") + fmt.Sprintf("%06d", ts.Nanosecond()/1000)
	t.mu.Lock()
	defer t.mu.Unlock()
	if id == t.lastID {
		t.dupCount++
		// Fixed width so "-10" still sorts after "-9".
		return fmt.Sprintf("%s-%03d", id, t.dupCount)
	}
	t.lastID = id
	t.dupCount = 0
	return id
}

// ForAllocation returns every entry for one allocation, in insertion order.
func (t *Trail) ForAllocation(allocationDate, shiftTime string) []Entry {
	var out []Entry
	for _, e := range t.entries {
		if e.AllocationDate == allocationDate && e.ShiftTime == shiftTime {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns up to limit of the newest entries, oldest first.
func (t *Trail) Recent(limit int) []Entry {
	if limit <= 0 || limit >= len(t.entries) {
		return append([]Entry(nil), t.entries...)
	}
	return append([]Entry(nil), t.entries[len(t.entries)-limit:]...)
}

// ByDateRange returns entries whose allocation date falls within
// [start, end], inclusive. Dates compare lexically in YYYY-MM-DD form.
func (t *Trail) ByDateRange(start, end string) []Entry {
	var out []Entry
	for _, e := range t.entries {
		if e.AllocationDate >= start && e.AllocationDate <= end {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries in the trail.
func (t *Trail) Len() int {
	return len(t.entries)
}
