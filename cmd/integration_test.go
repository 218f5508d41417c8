package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/mvscope/internal/project"
)

// resetFlags restores every flag to its default so values set by one
// invocation do not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

func execCmd(args ...string) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// isolateHome points HOME at a temp dir for config and projects.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg = nil
	return home
}

// writeSurvey writes a 20-row semicolon CSV where the third column repeats
// the first.
func writeSurvey(t *testing.T, dir, name string) string {
	t.Helper()
	ages := []string{"18-24", "25-34", "35-44", "25-34", "45-54"}
	areas := []string{"Frontend", "Backend", "Design", "Backend"}
	var b strings.Builder
	b.WriteString("1 - Age;2 - Area;3 - Age again\n")
	for i := 0; i < 20; i++ {
		a := ages[i%len(ages)]
		fmt.Fprintf(&b, "%s;%s;%s\n", a, areas[(i*3)%len(areas)], a)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write survey: %v", err)
	}
	return p
}

func TestCLI_Init_Analyze_ListRuns(t *testing.T) {
	home := isolateHome(t)
	data := writeSurvey(t, home, "survey.csv")
	out := filepath.Join(home, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}

	runCmd(t, "init", "itest", "-d", "integration test")
	runCmd(t, "analyze", data, "-p", "itest", "--seed", "7", "--clusters", "3", "--no-tsne",
		"-o", filepath.Join(out, "report.md"),
		"--json", filepath.Join(out, "report.json"),
		"--html", filepath.Join(out, "report.html"),
		"--clusters-csv", filepath.Join(out, "clusters.csv"),
		"--correlations-csv", filepath.Join(out, "correlations.csv"))

	for _, name := range []string{"report.md", "report.json", "report.html", "clusters.csv", "correlations.csv"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing export %s: %v", name, err)
		}
	}
	md, err := os.ReadFile(filepath.Join(out, "report.md"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(md), "1 - Age ~ 3 - Age again: rho=1.000") {
		t.Fatalf("expected perfect correlation in report:\n%s", md)
	}

	dir, err := resolveProjectDirByName("itest")
	if err != nil {
		t.Fatalf("resolve project: %v", err)
	}
	p, err := project.LoadProject(dir)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	if len(p.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(p.Runs))
	}
	run := p.SortedRuns()[0]
	if run.Seed != 7 || run.Clusters != 3 || run.Rows != 20 {
		t.Fatalf("run = %+v", run)
	}
	if len(run.Artifacts) != 5 {
		t.Fatalf("artifacts = %v", run.Artifacts)
	}
	if _, err := os.Stat(filepath.Join(p.RunDir(run.ID), "clusters.csv")); err != nil {
		t.Fatalf("missing stored clusters.csv: %v", err)
	}

	runCmd(t, "list", "--runs", "-p", "itest")
	runCmd(t, "list", "--projects")
}

func TestCLI_ProjectOverrideApplies(t *testing.T) {
	home := isolateHome(t)
	data := writeSurvey(t, home, "survey.csv")

	runCmd(t, "init", "ovr")
	runCmd(t, "project", "set", "-p", "ovr", "clusters", "2")
	runCmd(t, "project", "set", "-p", "ovr", "seed", "11")
	runCmd(t, "project", "show", "-p", "ovr")
	runCmd(t, "analyze", data, "-p", "ovr", "--no-tsne", "--no-hierarchical")

	dir, _ := resolveProjectDirByName("ovr")
	p, err := project.LoadProject(dir)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	run := p.SortedRuns()[0]
	if run.Clusters != 2 || run.Seed != 11 {
		t.Fatalf("override not applied: %+v", run)
	}

	// flags beat project overrides
	runCmd(t, "analyze", data, "-p", "ovr", "--no-tsne", "--clusters", "4")
	p, _ = project.LoadProject(dir)
	last := p.SortedRuns()[len(p.Runs)-1]
	if last.Clusters != 4 {
		t.Fatalf("flag did not override project: %+v", last)
	}

	runCmd(t, "project", "set", "-p", "ovr", "clusters", "--clear")
	p, _ = project.LoadProject(dir)
	if p.Config.Clusters != 0 {
		t.Fatalf("override not cleared: %+v", p.Config)
	}
}

func TestCLI_InitSeedsOverrides(t *testing.T) {
	home := isolateHome(t)
	data := writeSurvey(t, home, "survey.csv")

	runCmd(t, "init", "seeded", "--set", "clusters=2", "--set", "seed=21")
	runCmd(t, "analyze", data, "-p", "seeded", "--no-tsne", "--no-hierarchical")

	dir, _ := resolveProjectDirByName("seeded")
	p, err := project.LoadProject(dir)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	if p.Config.Clusters != 2 || p.Config.Seed != 21 {
		t.Fatalf("init overrides not stored: %+v", p.Config)
	}
	run := p.SortedRuns()[0]
	if run.Clusters != 2 || run.Seed != 21 {
		t.Fatalf("init overrides not applied: %+v", run)
	}

	if err := execCmd("init", "seeded"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
	if err := execCmd("init", "bad", "--set", "clusters"); err == nil {
		t.Fatalf("expected error for --set without value")
	}
	if err := execCmd("init", "bad2", "--set", "bogus=1"); err == nil {
		t.Fatalf("expected error for unknown override key")
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolateHome(t)

	runCmd(t, "config", "set", "clusters", "5")
	runCmd(t, "config", "set", "spearman_ties", "average")
	runCmd(t, "config", "show")

	b, err := os.ReadFile(filepath.Join(home, ".mvscope", "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "clusters: 5") || !strings.Contains(string(b), "spearman_ties: average") {
		t.Fatalf("config file = %s", b)
	}
	if err := execCmd("config", "set", "clusters", "0"); err == nil {
		t.Fatalf("expected error for clusters=0")
	}
	if err := execCmd("config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestCLI_ChisqAndDescribe(t *testing.T) {
	home := isolateHome(t)
	data := writeSurvey(t, home, "survey.csv")

	runCmd(t, "chisq", data, "1 - Age", "3 - Age again")
	runCmd(t, "chisq", data, "1 - Age", "2 - Area", "--pvalue", "exact", "--json")
	runCmd(t, "describe", data)
	runCmd(t, "describe", data, "--column", "2 - Area")

	if err := execCmd("chisq", data, "1 - Age", "missing"); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestCLI_AnalyzeErrors(t *testing.T) {
	home := isolateHome(t)
	data := writeSurvey(t, home, "survey.csv")

	if err := execCmd("analyze", filepath.Join(home, "nope.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if err := execCmd("analyze", data, "--ties", "bogus"); err == nil {
		t.Fatalf("expected error for bad --ties")
	}
	if err := execCmd("analyze", data, "-p", "ghost"); err == nil {
		t.Fatalf("expected error for unknown project")
	}
	err := execCmd("analyze", data, "--timeout", "1ns", "--tsne-iterations", "5000", "-o", filepath.Join(home, "x.md"))
	if err == nil || !strings.Contains(err.Error(), "deadline") {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
