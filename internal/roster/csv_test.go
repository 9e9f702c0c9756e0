package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func writeFixtureCSVs(t *testing.T, dir string) Paths {
	t.Helper()
	files := map[string]string{
		"tasks.csv": strings.Join([]string{
			"Type,Name,Workers_Needed,Track_Frequency",
			"Process,Granulation,2,Yes",
			"Process,Blending,1,No",
			"Machine,Tablet Press A,2,true",
			"Machine,Tablet Press B,bad,",
		}, "\n"),
		"process_groups.csv": strings.Join([]string{
			"Process_Name,Group_Name",
			"Tablet Press A,Compression",
			"Tablet Press B,Compression",
		}, "\n"),
		"products.csv": strings.Join([]string{
			"Product,Loratadine,Gabapentin",
			"Alice,2,0",
			"Bob,5,x",
		}, "\n"),
		"workers.csv": strings.Join([]string{
			"Group,Worker,Granulation,Blending,Tablet Press A,Tablet Press B",
			"Group A,Alice,4,2,4,0",
			"Group A,Bob,4,0,3,1",
			"Group B,Carol,5,n/a,0,0",
		}, "\n"),
	}
	paths := Paths{
		Workers:       filepath.Join(dir, "workers.csv"),
		Tasks:         filepath.Join(dir, "tasks.csv"),
		Products:      filepath.Join(dir, "products.csv"),
		ProcessGroups: filepath.Join(dir, "process_groups.csv"),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func TestLoadFromCSVs(t *testing.T) {
	paths := writeFixtureCSVs(t, t.TempDir())
	r, err := Load(paths, zap.NewNop())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if got := len(r.Workers()); got != 3 {
		t.Fatalf("workers = %d, want 3", got)
	}
	if got := r.SkillFor("Alice", "Granulation", KindProcess); got != 4 {
		t.Fatalf("Alice Granulation = %d, want 4", got)
	}
	if got := r.SkillFor("Carol", "Blending", KindProcess); got != 0 {
		t.Fatalf("unparseable cell = %d, want 0", got)
	}
	if got := r.SkillFor("Bob", "Tablet Press A", KindMachine); got != 3 {
		t.Fatalf("Bob Tablet Press A = %d, want 3", got)
	}
	if got := r.ProductSkillFor("Bob", "Loratadine"); got != 5 {
		t.Fatalf("Bob Loratadine = %d, want 5", got)
	}
	if got := r.ProductSkillFor("Bob", "Gabapentin"); got != 0 {
		t.Fatalf("unparseable product cell = %d, want 0", got)
	}

	// tasks.csv parsing rules.
	task, ok := r.TaskMeta("Granulation", KindProcess)
	if !ok || !task.TrackFrequency || task.Slots != 2 {
		t.Fatalf("Granulation meta = %+v, want 2 slots tracked", task)
	}
	task, ok = r.TaskMeta("Tablet Press B", KindMachine)
	if !ok {
		t.Fatal("Tablet Press B missing")
	}
	if task.Slots != 1 {
		t.Fatalf("bad Workers_Needed defaulted to %d, want 1", task.Slots)
	}
	if task.TrackFrequency {
		t.Fatal("empty Track_Frequency parsed as enabled")
	}

	if got := r.GroupFor("Tablet Press A"); got != "Compression" {
		t.Fatalf("GroupFor = %q, want Compression", got)
	}
	if got := len(r.Products()); got != 2 {
		t.Fatalf("products = %d, want 2", got)
	}
}

func TestLoadMissingFilesIsEmptyNotFatal(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Workers:       filepath.Join(dir, "workers.csv"),
		Tasks:         filepath.Join(dir, "tasks.csv"),
		Products:      filepath.Join(dir, "products.csv"),
		ProcessGroups: filepath.Join(dir, "process_groups.csv"),
	}
	r, err := Load(paths, zap.NewNop())
	if err != nil {
		t.Fatalf("Load returned error for missing files: %v", err)
	}
	if got := len(r.Workers()); got != 0 {
		t.Fatalf("workers = %d, want 0", got)
	}
	if got := r.SkillFor("Anyone", "Anything", KindProcess); got != 0 {
		t.Fatalf("skill on empty roster = %d, want 0", got)
	}
}

func TestTrackFlagSpellings(t *testing.T) {
	cases := map[string]bool{
		"Yes": true, "yes": true, "TRUE": true, "True": true, "1": true, "y": true,
		"No": false, "false": false, "0": false, "": false, "maybe": false,
	}
	for value, want := range cases {
		if got := trackFlagSet(value); got != want {
			t.Fatalf("trackFlagSet(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestSaveWorkersCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	paths := writeFixtureCSVs(t, dir)
	r, err := Load(paths, zap.NewNop())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	r.SetSkill("Alice", "Blending", KindProcess, 5)
	if err := r.SaveWorkersCSV(paths.Workers); err != nil {
		t.Fatalf("SaveWorkersCSV returned error: %v", err)
	}

	reloaded, err := Load(paths, zap.NewNop())
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if got := reloaded.SkillFor("Alice", "Blending", KindProcess); got != 5 {
		t.Fatalf("reloaded skill = %d, want 5", got)
	}
	if got := len(reloaded.Workers()); got != 3 {
		t.Fatalf("reloaded workers = %d, want 3", got)
	}
}
