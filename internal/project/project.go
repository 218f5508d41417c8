package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/KaramelBytes/mvscope/internal/analysis"
	"github.com/KaramelBytes/mvscope/internal/utils"
)

const (
	projectFileName = "project.json"
	runsDirName     = "runs"
)

// Project represents an mvscope workspace persisted on disk.
type Project struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Runs        map[string]*Run `json:"runs"`
	Config      *ProjectConfig  `json:"config"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Not serialized: on-disk location of the project.json
	rootDir string `json:"-"`
}

// ProjectConfig holds per-project overrides. Zero values inherit the global
// configuration.
type ProjectConfig struct {
	Clusters      int     `json:"clusters,omitempty"`
	MaxK          int     `json:"max_k,omitempty"`
	PCAComponents int     `json:"pca_components,omitempty"`
	Perplexity    float64 `json:"perplexity,omitempty"`
	Seed          int64   `json:"seed,omitempty"`
}

// ConfigKeys lists the keys accepted by Set.
var ConfigKeys = []string{"clusters", "max_k", "pca_components", "perplexity", "seed"}

// ErrProjectExists is returned by Create when the directory already holds a
// project.json.
var ErrProjectExists = errors.New("project already exists")

// Get returns the formatted override for key and whether it is set.
func (c *ProjectConfig) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	switch key {
	case "clusters":
		return strconv.Itoa(c.Clusters), c.Clusters > 0
	case "max_k":
		return strconv.Itoa(c.MaxK), c.MaxK > 0
	case "pca_components":
		return strconv.Itoa(c.PCAComponents), c.PCAComponents > 0
	case "perplexity":
		return strconv.FormatFloat(c.Perplexity, 'g', -1, 64), c.Perplexity > 0
	case "seed":
		return strconv.FormatInt(c.Seed, 10), c.Seed != 0
	}
	return "", false
}

// Set parses and stores one override. An empty value clears it.
func (c *ProjectConfig) Set(key, val string) error {
	if val == "" {
		val = "0"
	}
	switch key {
	case "clusters", "max_k", "pca_components":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "clusters":
			c.Clusters = i
		case "max_k":
			c.MaxK = i
		default:
			c.PCAComponents = i
		}
	case "perplexity":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for perplexity: %v", val)
		}
		c.Perplexity = f
	case "seed":
		s, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for seed: %w", err)
		}
		c.Seed = s
	default:
		return fmt.Errorf("unknown key: %s (use one of %v)", key, ConfigKeys)
	}
	return nil
}

// Apply overlays non-zero overrides onto opts.
func (c *ProjectConfig) Apply(opts *analysis.Options) {
	if c == nil {
		return
	}
	if c.Clusters > 0 {
		opts.Clusters = c.Clusters
	}
	if c.MaxK > 0 {
		opts.MaxK = c.MaxK
	}
	if c.PCAComponents > 0 {
		opts.PCA.Components = c.PCAComponents
	}
	if c.Perplexity > 0 {
		opts.TSNE.Perplexity = c.Perplexity
	}
	if c.Seed != 0 {
		opts.Seed = c.Seed
	}
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	return &Project{
		Name:        name,
		Description: description,
		Runs:        make(map[string]*Run),
		Config:      &ProjectConfig{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// Create initializes a project in dir and saves it. dir must be missing or
// empty. A nil cfg starts with no overrides.
func Create(dir, name, description string, cfg *ProjectConfig) (*Project, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid project name %q", name)
	}
	entries, err := os.ReadDir(dir)
	switch {
	case err == nil && len(entries) > 0:
		if _, err := os.Stat(filepath.Join(dir, projectFileName)); err == nil {
			return nil, fmt.Errorf("%w at %s", ErrProjectExists, dir)
		}
		return nil, fmt.Errorf("directory %s is not empty; refusing to initialize project", dir)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("inspect project directory: %w", err)
	}
	p := NewProject(name, description, dir)
	if cfg != nil {
		p.Config = cfg
	}
	if err := p.Save(); err != nil {
		return nil, err
	}
	return p, nil
}

// FindRoot returns the project directory enclosing start.
func FindRoot(start string) (string, error) {
	dir, err := utils.FindUp(start, projectFileName)
	if err != nil {
		return "", fmt.Errorf("project root not found: %w", err)
	}
	return dir, nil
}

// LoadProject loads a project.json from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, projectFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if p.Runs == nil {
		p.Runs = make(map[string]*Run)
	}
	p.rootDir = dir
	return &p, nil
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// Save writes project.json using atomic write.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := utils.EnsureDir(p.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	p.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, projectFileName), data, utils.ArtifactPerm)
}

// SortedRuns returns runs oldest first.
func (p *Project) SortedRuns() []*Run {
	out := make([]*Run, 0, len(p.Runs))
	for _, r := range p.Runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
