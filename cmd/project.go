package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mvscope/internal/project"
)

var (
	pmProject string
	pmClear   bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage per-project settings",
}

var projectSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set or clear a per-project analysis override",
	Long:  "Set or clear a per-project analysis override. Keys: " + strings.Join(project.ConfigKeys, ", ") + ".",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadNamedProject(pmProject)
		if err != nil {
			return err
		}
		key, val := args[0], ""
		if !pmClear {
			if len(args) < 2 || args[1] == "" {
				return fmt.Errorf("value is required unless --clear is set")
			}
			val = args[1]
		}
		if err := p.Config.Set(key, val); err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		if pmClear {
			fmt.Printf("✓ Cleared %s for %s\n", key, pmProject)
		} else {
			fmt.Printf("✓ Set %s for %s: %s\n", key, pmProject, val)
		}
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a project's overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadNamedProject(pmProject)
		if err != nil {
			return err
		}
		fmt.Printf("name: %s\n", p.Name)
		if p.Description != "" {
			fmt.Printf("description: %s\n", p.Description)
		}
		fmt.Printf("runs: %d\n", len(p.Runs))
		for _, k := range project.ConfigKeys {
			if v, ok := p.Config.Get(k); ok {
				fmt.Printf("%s: %s\n", k, v)
			}
		}
		return nil
	},
}

func loadNamedProject(name string) (*project.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("--project is required")
	}
	dir, err := resolveProjectDirByName(name)
	if err != nil {
		return nil, err
	}
	p, err := project.LoadProject(dir)
	if err != nil {
		return nil, err
	}
	if p.Config == nil {
		p.Config = &project.ProjectConfig{}
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectSetCmd)
	projectCmd.AddCommand(projectShowCmd)

	projectCmd.PersistentFlags().StringVarP(&pmProject, "project", "p", "", "project name")
	projectSetCmd.Flags().BoolVar(&pmClear, "clear", false, "clear the override instead of setting it")
}
