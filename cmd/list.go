package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mvscope/internal/project"
)

var (
	listProjects bool
	listRuns     bool
	listProjName string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects or stored analysis runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listProjects == listRuns { // either both true or both false
			return fmt.Errorf("specify exactly one of --projects or --runs")
		}
		if listProjects {
			return listAllProjects()
		}
		if listProjName == "" {
			return fmt.Errorf("--project is required when using --runs")
		}
		projDir, err := resolveProjectDirByName(listProjName)
		if err != nil {
			return err
		}
		p, err := project.LoadProject(projDir)
		if err != nil {
			return err
		}
		if len(p.Runs) == 0 {
			fmt.Println("(no runs)")
			return nil
		}
		for _, r := range p.SortedRuns() {
			src := r.Source
			if r.Sheet != "" {
				src += "#" + r.Sheet
			}
			fmt.Printf("- %s: %s (%d rows, k=%d, seed %d, %s)\n",
				r.ID, src, r.Rows, r.Clusters, r.Seed, r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func listAllProjects() error {
	root, err := defaultProjectsDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		pj := filepath.Join(root, e.Name(), "project.json")
		if _, err := os.Stat(pj); err == nil {
			fmt.Printf("- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Println("(no projects)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listProjects, "projects", false, "list projects")
	listCmd.Flags().BoolVar(&listRuns, "runs", false, "list analysis runs in a project")
	listCmd.Flags().StringVarP(&listProjName, "project", "p", "", "project name for --runs")
}
