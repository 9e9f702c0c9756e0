// internal/config/config.go
//
// This package handles configuration and the .shiftalloc directory structure.
// Every data directory the tool runs against gets a .shiftalloc/ folder
// holding the admin CSVs, the persisted JSON state and the logs.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DataDir is the name of the directory we create in the working root.
	DataDir = ".shiftalloc"

	defaultWindowDays    = 30
	defaultRetentionDays = 90
	defaultUser          = "Admin"
)

const defaultSettingsYAML = `# shiftalloc settings
version: 1

# Number of days the frequency penalty looks back over.
history_window_days: 30

# Allocation history entries older than this are removed by cleanup.
history_retention_days: 90

# Minimum combined skill required to appear in a candidate list.
min_rating: 1

# Name recorded in the audit trail for edits made from this machine.
user: Admin

# Shift groups available on the start screen.
groups:
  - Group A
  - Group B
  - General Shift

# Shift times selectable for an allocation.
shift_times:
  - Morning
  - Evening
`

// Settings models .shiftalloc/settings.yaml.
type Settings struct {
	Version       int      `yaml:"version"`
	WindowDays    int      `yaml:"history_window_days"`
	RetentionDays int      `yaml:"history_retention_days"`
	MinRating     int      `yaml:"min_rating"`
	User          string   `yaml:"user"`
	Groups        []string `yaml:"groups"`
	ShiftTimes    []string `yaml:"shift_times"`
	// AdminHash is the bcrypt hash gating the data editor. Usually supplied
	// via the SHIFTALLOC_ADMIN_HASH environment variable rather than the file.
	AdminHash string `yaml:"admin_hash,omitempty"`
}

// Config holds the runtime configuration for shiftalloc.
type Config struct {
	// RootDir is the directory the tool was started from.
	RootDir string

	// DataRoot is RootDir/.shiftalloc.
	DataRoot string

	Settings Settings
}

// Init creates the .shiftalloc directory structure in the given root.
//
// Structure created:
// .shiftalloc/
// ├── utils/            <- workers.csv, tasks.csv, products.csv, process_groups.csv
// ├── allocations_json/ <- one snapshot per date+shift
// ├── exports/          <- generated reports
// └── logs/             <- shiftalloc.log
func Init(rootDir string) error {
	dataRoot := filepath.Join(rootDir, DataDir)

	dirs := []string{
		filepath.Join(dataRoot, "utils"),
		filepath.Join(dataRoot, "allocations_json"),
		filepath.Join(dataRoot, "exports"),
		filepath.Join(dataRoot, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return ensureSettings(filepath.Join(dataRoot, "settings.yaml"))
}

// New creates a Config populated from .shiftalloc/settings.yaml. A missing
// settings file yields the defaults.
func New(rootDir string) (*Config, error) {
	cfg := &Config{
		RootDir:  rootDir,
		DataRoot: filepath.Join(rootDir, DataDir),
		Settings: defaultSettings(),
	}
	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}
	if hash := strings.TrimSpace(os.Getenv("SHIFTALLOC_ADMIN_HASH")); hash != "" {
		cfg.Settings.AdminHash = hash
	}
	return cfg, nil
}

// UtilsDir returns the directory holding the admin CSV files.
func (c *Config) UtilsDir() string {
	return filepath.Join(c.DataRoot, "utils")
}

// WorkersCSVPath returns the path to the worker skill matrix.
func (c *Config) WorkersCSVPath() string {
	return filepath.Join(c.UtilsDir(), "workers.csv")
}

// TasksCSVPath returns the path to the task list.
func (c *Config) TasksCSVPath() string {
	return filepath.Join(c.UtilsDir(), "tasks.csv")
}

// ProductsCSVPath returns the path to the product skill matrix.
func (c *Config) ProductsCSVPath() string {
	return filepath.Join(c.UtilsDir(), "products.csv")
}

// ProcessGroupsCSVPath returns the path to the process-group map.
func (c *Config) ProcessGroupsCSVPath() string {
	return filepath.Join(c.UtilsDir(), "process_groups.csv")
}

// HistoryPath returns the path to the allocation history JSON file.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataRoot, "allocation_history.json")
}

// AuditPath returns the path to the audit trail JSON file.
func (c *Config) AuditPath() string {
	return filepath.Join(c.DataRoot, "audit_trail.json")
}

// SnapshotsDir returns the directory holding allocation snapshots.
func (c *Config) SnapshotsDir() string {
	return filepath.Join(c.DataRoot, "allocations_json")
}

// ExportsDir returns the directory generated reports are written to.
func (c *Config) ExportsDir() string {
	return filepath.Join(c.DataRoot, "exports")
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataRoot, "logs")
}

// SettingsPath returns the on-disk location of the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataRoot, "settings.yaml")
}

func (c *Config) loadSettings() error {
	path := c.SettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Settings = parsed
	return nil
}

func defaultSettings() Settings {
	return Settings{
		Version:       1,
		WindowDays:    defaultWindowDays,
		RetentionDays: defaultRetentionDays,
		MinRating:     1,
		User:          defaultUser,
		Groups:        []string{"Group A", "Group B", "General Shift"},
		ShiftTimes:    []string{"Morning", "Evening"},
	}
}

func (s *Settings) applyDefaults() {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.WindowDays == 0 {
		s.WindowDays = defaultWindowDays
	}
	if s.RetentionDays == 0 {
		s.RetentionDays = defaultRetentionDays
	}
	if s.User == "" {
		s.User = defaultUser
	}
	if len(s.Groups) == 0 {
		s.Groups = []string{"Group A", "Group B", "General Shift"}
	}
	if len(s.ShiftTimes) == 0 {
		s.ShiftTimes = []string{"Morning", "Evening"}
	}
}

func (s *Settings) normalize() {
	s.User = strings.TrimSpace(s.User)
	for i := range s.Groups {
		s.Groups[i] = strings.TrimSpace(s.Groups[i])
	}
	for i := range s.ShiftTimes {
		s.ShiftTimes[i] = strings.TrimSpace(s.ShiftTimes[i])
	}
}

func (s Settings) validate() error {
	if s.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	if s.WindowDays < 1 {
		return fmt.Errorf("history_window_days must be >= 1")
	}
	if s.RetentionDays < s.WindowDays {
		return fmt.Errorf("history_retention_days must be >= history_window_days")
	}
	if s.MinRating < 0 {
		return fmt.Errorf("min_rating must be >= 0")
	}
	for i, g := range s.Groups {
		if g == "" {
			return fmt.Errorf("groups[%d] is empty", i)
		}
	}
	return nil
}

func ensureSettings(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultSettingsYAML), 0o644)
}
