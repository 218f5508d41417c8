package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/mvscope/internal/config"
	"github.com/KaramelBytes/mvscope/internal/project"
	"github.com/KaramelBytes/mvscope/internal/utils"
)

var (
	initDescription string
	initSettings    []string
)

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Initialize a new mvscope project",
	Long: `Initialize a new mvscope project under the configured projects directory.

Analysis overrides can be seeded at creation time, e.g.
  mvscope init survey --set clusters=3 --set seed=42
Keys: ` + strings.Join(project.ConfigKeys, ", ") + ".",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		pc, err := parseSettings(initSettings)
		if err != nil {
			return err
		}
		root, err := defaultProjectsDir()
		if err != nil {
			return err
		}
		p, err := project.Create(filepath.Join(root, name), name, initDescription, pc)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Project initialized: %s\n", p.RootDir())
		for _, k := range project.ConfigKeys {
			if v, ok := pc.Get(k); ok {
				fmt.Printf("  %s = %s\n", k, v)
			}
		}
		return nil
	},
}

// parseSettings turns key=value pairs into project overrides.
func parseSettings(pairs []string) (*project.ProjectConfig, error) {
	pc := &project.ProjectConfig{}
	for _, kv := range pairs {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(val) == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		if err := pc.Set(strings.TrimSpace(key), strings.TrimSpace(val)); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

// defaultProjectsDir returns the configured projects directory, creating it
// when missing.
func defaultProjectsDir() (string, error) {
	var dir string
	if cfg != nil {
		dir = cfg.ProjectsDir
	}
	if dir == "" {
		base, err := cfgpkg.Dir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "projects")
	}
	dir, err := utils.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveProjectDirByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("project name is required")
	}
	// "." selects the project enclosing the working directory
	if name == "." {
		return project.FindRoot("")
	}
	root, err := defaultProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "project description")
	initCmd.Flags().StringArrayVar(&initSettings, "set", nil, "seed an analysis override as key=value (repeatable)")
}
