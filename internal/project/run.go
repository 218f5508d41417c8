package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/mvscope/internal/analysis"
	"github.com/KaramelBytes/mvscope/internal/utils"
)

// Run is the metadata of one stored analysis. Artifacts are file names
// relative to the run directory.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Sheet     string    `json:"sheet,omitempty"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	Seed      int64     `json:"seed"`
	Clusters  int       `json:"clusters"`
	Inertia   float64   `json:"inertia"`
	Warnings  int       `json:"warnings"`
	Duration  string    `json:"duration"`
	Artifacts []string  `json:"artifacts"`
	CreatedAt time.Time `json:"created_at"`
}

// RunDir returns the directory holding the run's artifacts.
func (p *Project) RunDir(id string) string {
	return filepath.Join(p.rootDir, runsDirName, id)
}

// AddRun records a finished analysis and writes its artifacts (file name to
// content) under runs/<id>/. Call Save() to persist the metadata.
func (p *Project) AddRun(source, sheet string, res *analysis.Result, artifacts map[string][]byte) (*Run, error) {
	if p.rootDir == "" {
		return nil, errors.New("project root directory not set")
	}
	if res == nil || res.Dataset == nil {
		return nil, errors.New("run has no result")
	}
	r := &Run{
		ID:        uuid.NewString(),
		Source:    source,
		Sheet:     sheet,
		Rows:      res.Dataset.Len(),
		Columns:   len(res.Dataset.Columns),
		Seed:      res.Seed,
		Warnings:  len(res.Warnings),
		Duration:  res.Duration.Round(time.Millisecond).String(),
		CreatedAt: time.Now(),
	}
	if res.KMeans != nil {
		r.Clusters = res.KMeans.K
		r.Inertia = res.KMeans.Inertia
	}

	names, err := utils.WriteArtifacts(p.RunDir(r.ID), artifacts)
	if err != nil {
		return nil, fmt.Errorf("store run artifacts: %w", err)
	}
	r.Artifacts = names

	if p.Runs == nil {
		p.Runs = make(map[string]*Run)
	}
	p.Runs[r.ID] = r
	p.UpdatedAt = time.Now()
	return r, nil
}
