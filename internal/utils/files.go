package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	DirPerm      os.FileMode = 0o755
	ArtifactPerm os.FileMode = 0o644
)

// ErrNotFound is returned by FindUp when no ancestor holds the marker.
var ErrNotFound = errors.New("not found")

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, DirPerm)
}

// SafeWriteFile writes data to a temp file next to path and renames it into
// place with the given permissions. Readers see either the old or the new
// content, never a partial write.
func SafeWriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	fail := func(stage string, err error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%s: %w", stage, err)
	}
	if _, err := f.Write(data); err != nil {
		return fail("write temp file", err)
	}
	if err := f.Chmod(perm); err != nil {
		return fail("chmod temp file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// WriteArtifacts writes every named file into dir in name order and returns
// the sorted names. Names must be plain file names; dir is created if needed.
func WriteArtifacts(dir string, files map[string][]byte) ([]string, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
			return nil, fmt.Errorf("invalid artifact name %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if err := EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	for _, name := range names {
		if err := SafeWriteFile(filepath.Join(dir, name), files[name], ArtifactPerm); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return names, nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// ExpandHome resolves a leading "~" to the user's home directory and cleans
// the result.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return filepath.Clean(path), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// FindUp returns the nearest directory at or above start that contains an
// entry named marker. An empty start means the working directory; a file
// starts from its parent.
func FindUp(start, marker string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = wd
	}
	info, err := os.Stat(start)
	if err != nil {
		return "", err
	}
	dir := start
	if !info.IsDir() {
		dir = filepath.Dir(start)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s above %s: %w", marker, start, ErrNotFound)
		}
		dir = parent
	}
}
