package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.json")
	if err := SafeWriteFile(p, []byte("one"), ArtifactPerm); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := SafeWriteFile(p, []byte("two"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "two" {
		t.Fatalf("content = %q, %v", b, err)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs", "r1")
	names, err := WriteArtifacts(dir, map[string][]byte{
		"report.md":    []byte("# r"),
		"clusters.csv": []byte("a,Cluster\n"),
	})
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if len(names) != 2 || names[0] != "clusters.csv" || names[1] != "report.md" {
		t.Fatalf("names = %v", names)
	}
	b, err := os.ReadFile(filepath.Join(dir, "report.md"))
	if err != nil || string(b) != "# r" {
		t.Fatalf("report.md = %q, %v", b, err)
	}
}

func TestWriteArtifactsRejectsPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"../escape.md", "sub/x.csv", "..", ""} {
		if _, err := WriteArtifacts(dir, map[string][]byte{name: nil}); err == nil {
			t.Fatalf("expected error for artifact name %q", name)
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.md")); !os.IsNotExist(err) {
		t.Fatalf("artifact written outside run dir")
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ExpandHome("~/.mvscope/projects")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".mvscope", "projects"); got != want {
		t.Fatalf("expanded = %q, want %q", got, want)
	}
	if got, _ := ExpandHome("/tmp/x/../y"); got != "/tmp/y" {
		t.Fatalf("plain path = %q", got)
	}
}

func TestFindUpWalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "project.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "runs", "abc")
	if err := EnsureDir(nested); err != nil {
		t.Fatal(err)
	}
	got, err := FindUp(nested, "project.json")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != root {
		t.Fatalf("root = %q, want %q", got, root)
	}
	if _, err := FindUp(t.TempDir(), "project.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound outside a project, got %v", err)
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"k": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\n  \"k\": 1\n}" {
		t.Fatalf("json = %q", b)
	}
}
