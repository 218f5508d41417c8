package project_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/mvscope/internal/analysis"
	"github.com/KaramelBytes/mvscope/internal/project"
)

func smallResult(t *testing.T) *analysis.Result {
	t.Helper()
	rows := [][]string{{"a", "x"}, {"b", "y"}, {"a", "x"}, {"c", "y"}, {"b", "x"}}
	ds, err := analysis.NewDataset("small.csv", []string{"P", "Q"}, rows)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	opts := analysis.DefaultOptions()
	opts.Seed = 5
	opts.Clusters = 2
	opts.SkipTSNE = true
	p, err := analysis.NewPipeline(opts)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	res, err := p.Run(context.Background(), ds)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func TestAddRunPersistsArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	proj := project.NewProject("test", "survey runs", dir)

	run, err := proj.AddRun("small.csv", "", smallResult(t), map[string][]byte{
		"report.md":   []byte("[DATASET SUMMARY]\n"),
		"report.json": []byte("{}"),
	})
	if err != nil {
		t.Fatalf("add run: %v", err)
	}
	if run.Rows != 5 || run.Columns != 2 || run.Seed != 5 || run.Clusters != 2 {
		t.Fatalf("run = %+v", run)
	}
	if len(run.Artifacts) != 2 || run.Artifacts[0] != "report.json" {
		t.Fatalf("artifacts = %v", run.Artifacts)
	}
	b, err := os.ReadFile(filepath.Join(proj.RunDir(run.ID), "report.md"))
	if err != nil || string(b) != "[DATASET SUMMARY]\n" {
		t.Fatalf("report.md = %q, %v", b, err)
	}
	if err := proj.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := project.LoadProject(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Name != "test" || len(loaded.Runs) != 1 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if got := loaded.SortedRuns()[0].ID; got != run.ID {
		t.Fatalf("run id = %q, want %q", got, run.ID)
	}
}

func TestAddRunRequiresRoot(t *testing.T) {
	proj := project.NewProject("test", "", "")
	if _, err := proj.AddRun("x.csv", "", smallResult(t), nil); err == nil {
		t.Fatalf("expected error without root dir")
	}
}

func TestLoadProjectMissing(t *testing.T) {
	if _, err := project.LoadProject(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing project.json")
	}
}

func TestConfigSetAndApply(t *testing.T) {
	c := &project.ProjectConfig{}
	for k, v := range map[string]string{"clusters": "3", "max_k": "6", "pca_components": "2", "perplexity": "12.5", "seed": "99"} {
		if err := c.Set(k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if err := c.Set("bogus", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if err := c.Set("clusters", "-1"); err == nil {
		t.Fatalf("expected invalid value error")
	}

	opts := analysis.DefaultOptions()
	c.Apply(&opts)
	if opts.Clusters != 3 || opts.MaxK != 6 || opts.PCA.Components != 2 || opts.TSNE.Perplexity != 12.5 || opts.Seed != 99 {
		t.Fatalf("opts = %+v", opts)
	}

	if err := c.Set("clusters", ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	opts = analysis.DefaultOptions()
	c.Apply(&opts)
	if opts.Clusters != 4 {
		t.Fatalf("cleared override still applied: %d", opts.Clusters)
	}
}

func TestCreateSeedsConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "survey")
	cfg := &project.ProjectConfig{}
	if err := cfg.Set("clusters", "3"); err != nil {
		t.Fatal(err)
	}
	if _, err := project.Create(dir, "survey", "waves", cfg); err != nil {
		t.Fatalf("create: %v", err)
	}
	loaded, err := project.LoadProject(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, ok := loaded.Config.Get("clusters"); !ok || v != "3" {
		t.Fatalf("clusters override = %q, %v", v, ok)
	}
	if _, ok := loaded.Config.Get("seed"); ok {
		t.Fatalf("seed should be unset")
	}

	if _, err := project.Create(dir, "survey", "", nil); !errors.Is(err, project.ErrProjectExists) {
		t.Fatalf("expected ErrProjectExists, got %v", err)
	}
}

func TestCreateRejectsNonEmptyDirAndBadName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := project.Create(dir, "p", "", nil); err == nil || errors.Is(err, project.ErrProjectExists) {
		t.Fatalf("expected non-empty directory error, got %v", err)
	}
	if _, err := project.Create(filepath.Join(t.TempDir(), "x"), "a/b", "", nil); err == nil {
		t.Fatalf("expected invalid name error")
	}
}

func TestFindRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	proj, err := project.Create(dir, "proj", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	run, err := proj.AddRun("small.csv", "", smallResult(t), map[string][]byte{"report.md": []byte("x")})
	if err != nil {
		t.Fatal(err)
	}
	got, err := project.FindRoot(proj.RunDir(run.ID))
	if err != nil {
		t.Fatalf("find root: %v", err)
	}
	if got != dir {
		t.Fatalf("root = %q, want %q", got, dir)
	}
}

func TestAddRunRejectsNestedArtifactName(t *testing.T) {
	proj := project.NewProject("test", "", filepath.Join(t.TempDir(), "proj"))
	if _, err := proj.AddRun("x.csv", "", smallResult(t), map[string][]byte{"../x.md": nil}); err == nil {
		t.Fatalf("expected error for artifact path outside the run dir")
	}
	if len(proj.Runs) != 0 {
		t.Fatalf("failed run was recorded")
	}
}
