package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Paths names the four admin CSV files the roster loads from.
type Paths struct {
	Workers       string
	Tasks         string
	Products      string
	ProcessGroups string
}

// Load reads the admin CSVs into a fresh roster. Missing files are treated
// as absence of information: the corresponding section stays empty and a
// warning is logged, never an error. Order matters: tasks and products name
// the skill columns the worker rows are read against.
func Load(paths Paths, logger *zap.Logger) (*Roster, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := New()
	if err := r.loadProcessGroups(paths.ProcessGroups, logger); err != nil {
		return nil, err
	}
	if err := r.loadTasks(paths.Tasks, logger); err != nil {
		return nil, err
	}
	if err := r.loadProducts(paths.Products, logger); err != nil {
		return nil, err
	}
	if err := r.loadWorkers(paths.Workers, logger); err != nil {
		return nil, err
	}
	return r, nil
}

func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("roster: parse %s: %w", path, err)
	}
	return records, nil
}

// trackFlagSet are the accepted spellings of an enabled Track_Frequency cell.
func trackFlagSet(value string) bool {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "YES", "TRUE", "1", "Y":
		return true
	}
	return false
}

func (r *Roster) loadProcessGroups(path string, logger *zap.Logger) error {
	records, err := readRecords(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("process groups file missing, no grouping", zap.String("path", path))
			return nil
		}
		return err
	}
	if len(records) == 0 {
		return nil
	}
	header := records[0]
	nameIdx, groupIdx := columnIndex(header, "Process_Name"), columnIndex(header, "Group_Name")
	if nameIdx < 0 || groupIdx < 0 {
		logger.Warn("process groups file missing Process_Name/Group_Name columns", zap.String("path", path))
		return nil
	}
	for _, row := range records[1:] {
		if len(row) <= nameIdx || len(row) <= groupIdx {
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		group := strings.TrimSpace(row[groupIdx])
		if name == "" || group == "" {
			continue
		}
		r.groups[name] = group
	}
	logger.Info("loaded process groupings", zap.Int("count", len(r.groups)))
	return nil
}

func (r *Roster) loadTasks(path string, logger *zap.Logger) error {
	records, err := readRecords(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("tasks file missing", zap.String("path", path))
			return nil
		}
		return err
	}
	if len(records) == 0 {
		return nil
	}
	header := records[0]
	typeIdx := columnIndex(header, "Type")
	nameIdx := columnIndex(header, "Name")
	slotsIdx := columnIndex(header, "Workers_Needed")
	trackIdx := columnIndex(header, "Track_Frequency")
	if typeIdx < 0 || nameIdx < 0 {
		logger.Warn("tasks file missing Type/Name columns", zap.String("path", path))
		return nil
	}
	for _, row := range records[1:] {
		if len(row) <= typeIdx || len(row) <= nameIdx {
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		if name == "" {
			continue
		}
		slots := 1
		if slotsIdx >= 0 && len(row) > slotsIdx {
			if n, err := strconv.Atoi(strings.TrimSpace(row[slotsIdx])); err == nil && n >= 1 {
				slots = n
			}
		}
		track := false
		if trackIdx >= 0 && len(row) > trackIdx {
			track = trackFlagSet(row[trackIdx])
		}
		task := Task{Name: name, Slots: slots, TrackFrequency: track}
		switch strings.TrimSpace(row[typeIdx]) {
		case string(KindProcess):
			task.Kind = KindProcess
			r.processes = append(r.processes, task)
		case string(KindMachine):
			task.Kind = KindMachine
			r.machines = append(r.machines, task)
		default:
			logger.Warn("skipping task with unknown type",
				zap.String("task", name), zap.String("type", row[typeIdx]))
		}
	}
	logger.Info("loaded tasks",
		zap.Int("processes", len(r.processes)), zap.Int("machines", len(r.machines)))
	return nil
}

// loadProducts reads the product skill matrix: the first column holds worker
// names, every further header cell is a product name.
func (r *Roster) loadProducts(path string, logger *zap.Logger) error {
	records, err := readRecords(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("products file missing, no products available", zap.String("path", path))
			return nil
		}
		return err
	}
	if len(records) < 1 || len(records[0]) < 2 {
		return nil
	}
	header := records[0]
	r.products = nil
	for _, name := range header[1:] {
		if name = strings.TrimSpace(name); name != "" {
			r.products = append(r.products, name)
		}
	}
	r.productRatings = make(map[string]map[string]int)
	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		worker := strings.TrimSpace(row[0])
		if worker == "" {
			continue
		}
		ratings := make(map[string]int, len(r.products))
		for i, product := range header[1:] {
			product = strings.TrimSpace(product)
			if product == "" || len(row) <= i+1 {
				continue
			}
			ratings[product] = parseRating(row[i+1])
		}
		r.productRatings[worker] = ratings
	}
	logger.Info("loaded products", zap.Int("count", len(r.products)))
	return nil
}

func (r *Roster) loadWorkers(path string, logger *zap.Logger) error {
	records, err := readRecords(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("workers file missing, empty roster", zap.String("path", path))
			return nil
		}
		return err
	}
	if len(records) == 0 {
		return nil
	}
	header := records[0]
	groupIdx := columnIndex(header, "Group")
	workerIdx := columnIndex(header, "Worker")
	if groupIdx < 0 || workerIdx < 0 {
		logger.Warn("workers file missing Group/Worker columns", zap.String("path", path))
		return nil
	}
	for _, row := range records[1:] {
		if len(row) <= workerIdx {
			continue
		}
		w := &Worker{
			Name:          strings.TrimSpace(row[workerIdx]),
			ProcessSkills: make(map[string]int),
			MachineSkills: make(map[string]int),
			ProductSkills: make(map[string]int),
		}
		if len(row) > groupIdx {
			w.Group = strings.TrimSpace(row[groupIdx])
		}
		for i, column := range header {
			if i == groupIdx || i == workerIdx || len(row) <= i {
				continue
			}
			column = strings.TrimSpace(column)
			rating := parseRating(row[i])
			if _, ok := r.TaskMeta(column, KindProcess); ok {
				w.ProcessSkills[column] = rating
			} else if _, ok := r.TaskMeta(column, KindMachine); ok {
				w.MachineSkills[column] = rating
			}
		}
		if ratings, ok := r.productRatings[w.Name]; ok {
			w.ProductSkills = ratings
		}
		r.addWorker(w)
	}
	logger.Info("loaded workers", zap.Int("count", len(r.workers)))
	return nil
}

// parseRating turns a CSV cell into a 0-5 rating. Unparseable cells read as
// zero; out-of-range values are clamped.
func parseRating(cell string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0
	}
	if n < MinRating {
		return MinRating
	}
	if n > MaxRating {
		return MaxRating
	}
	return n
}

func columnIndex(header []string, name string) int {
	for i, column := range header {
		if strings.EqualFold(strings.TrimSpace(column), name) {
			return i
		}
	}
	return -1
}

// SaveWorkersCSV writes the skill matrix back out in the same column layout
// it was loaded from: Group, Worker, then every process and machine.
func (r *Roster) SaveWorkersCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("roster: write %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := []string{"Group", "Worker"}
	for _, t := range r.processes {
		header = append(header, t.Name)
	}
	for _, t := range r.machines {
		header = append(header, t.Name)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("roster: write %s: %w", path, err)
	}
	for _, w := range r.workers {
		row := []string{w.Group, w.Name}
		for _, t := range r.processes {
			row = append(row, strconv.Itoa(w.ProcessSkills[t.Name]))
		}
		for _, t := range r.machines {
			row = append(row, strconv.Itoa(w.MachineSkills[t.Name]))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("roster: write %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("roster: write %s: %w", path, err)
	}
	return nil
}
