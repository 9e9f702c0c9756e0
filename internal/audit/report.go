package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Report renders every entry as readable text, in insertion order. It is a
// pure read-side transform of the trail.
func (t *Trail) Report() string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	b.WriteString(rule + "\n")
	b.WriteString("ALLOCATION SYSTEM AUDIT TRAIL REPORT\n")
	fmt.Fprintf(&b, "Generated: %s\n", t.now().Format(timestampLayout))
	fmt.Fprintf(&b, "Total Entries: %d\n", len(t.entries))
	b.WriteString(rule + "\n\n")

	for _, e := range t.entries {
		fmt.Fprintf(&b, "Entry ID: %s\n", e.ID)
		fmt.Fprintf(&b, "Timestamp: %s\n", e.Timestamp)
		fmt.Fprintf(&b, "Change Type: %s\n", e.ChangeType)
		fmt.Fprintf(&b, "Allocation: %s - %s\n", e.AllocationDate, e.ShiftTime)
		fmt.Fprintf(&b, "User: %s\n", e.User)
		b.WriteString("Details:\n")
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, e.Details[k])
		}
		b.WriteString(strings.Repeat("-", 80) + "\n\n")
	}
	return b.String()
}

// ExportReport writes the report into dir and returns the file path.
func (t *Trail) ExportReport(dir string) (string, error) {
	name := fmt.Sprintf("audit_report_%s.txt", t.now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("audit: ensure report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(t.Report()), 0o644); err != nil {
		return "", fmt.Errorf("audit: write report %s: %w", path, err)
	}
	return path, nil
}
