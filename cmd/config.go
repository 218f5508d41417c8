package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mvscope/internal/analysis"
	cfgpkg "github.com/KaramelBytes/mvscope/internal/config"
	"github.com/KaramelBytes/mvscope/internal/dataset"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set mvscope configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("projects_dir: %s\n", cfg.ProjectsDir)
		fmt.Printf("delimiter: %s\n", cfg.Delimiter)
		fmt.Printf("max_rows: %d\n", cfg.MaxRows)
		fmt.Printf("clusters: %d\n", cfg.Clusters)
		fmt.Printf("max_k: %d\n", cfg.MaxK)
		fmt.Printf("kmeans_max_iter: %d\n", cfg.KMeansMaxIter)
		fmt.Printf("elbow_max_iter: %d\n", cfg.ElbowMaxIter)
		fmt.Printf("elbow_restarts: %d\n", cfg.ElbowRestarts)
		fmt.Printf("hierarchical_max_obs: %d\n", cfg.HierarchicalMaxObs)
		fmt.Printf("pca_components: %d\n", cfg.PCAComponents)
		fmt.Printf("power_iterations: %d\n", cfg.PowerIterations)
		if cfg.PowerTolerance > 0 {
			fmt.Printf("power_tolerance: %g\n", cfg.PowerTolerance)
		}
		fmt.Printf("tsne_enabled: %t\n", cfg.TSNEEnabled)
		fmt.Printf("tsne_perplexity: %g\n", cfg.TSNEPerplexity)
		fmt.Printf("tsne_iterations: %d\n", cfg.TSNEIterations)
		fmt.Printf("tsne_learning_rate: %g\n", cfg.TSNELearningRate)
		fmt.Printf("seed: %d\n", cfg.Seed)
		fmt.Printf("spearman_ties: %s\n", cfg.SpearmanTies)
		fmt.Printf("pvalue_method: %s\n", cfg.PValueMethod)
		fmt.Printf("top_correlations: %d\n", cfg.TopCorrelations)
		if len(cfg.ProfileColumns) > 0 {
			fmt.Printf("profile_columns: %s\n", strings.Join(cfg.ProfileColumns, ", "))
		}
		for _, p := range cfg.ChiSquarePairs {
			fmt.Printf("chi_square_pair: %s × %s\n", p.Var1, p.Var2)
		}
		fmt.Printf("short_names: %t\n", cfg.ShortNames)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if _, err := c.AnalysisOptions(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func(lo int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < lo {
			return 0, fmt.Errorf("invalid int %q (minimum %d)", val, lo)
		}
		return i, nil
	}
	posFloat := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid non-negative float %q", val)
		}
		return f, nil
	}
	var err error
	switch key {
	case "projects_dir":
		c.ProjectsDir = val
	case "delimiter":
		if _, err := dataset.ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "max_rows":
		c.MaxRows, err = atoi(0)
	case "clusters":
		c.Clusters, err = atoi(1)
	case "max_k":
		c.MaxK, err = atoi(2)
	case "kmeans_max_iter":
		c.KMeansMaxIter, err = atoi(1)
	case "elbow_max_iter":
		c.ElbowMaxIter, err = atoi(1)
	case "elbow_restarts":
		c.ElbowRestarts, err = atoi(1)
	case "hierarchical_max_obs":
		c.HierarchicalMaxObs, err = atoi(0)
	case "pca_components":
		c.PCAComponents, err = atoi(1)
	case "power_iterations":
		c.PowerIterations, err = atoi(1)
	case "power_tolerance":
		c.PowerTolerance, err = posFloat()
	case "tsne_enabled":
		c.TSNEEnabled, err = strconv.ParseBool(val)
	case "tsne_perplexity":
		c.TSNEPerplexity, err = posFloat()
	case "tsne_iterations":
		c.TSNEIterations, err = atoi(1)
	case "tsne_learning_rate":
		c.TSNELearningRate, err = posFloat()
	case "seed":
		c.Seed, err = strconv.ParseInt(val, 10, 64)
	case "spearman_ties":
		var t analysis.TieMode
		if t, err = analysis.ParseTieMode(val); err == nil {
			c.SpearmanTies = string(t)
		}
	case "pvalue_method":
		var m analysis.PValueMethod
		if m, err = analysis.ParsePValueMethod(val); err == nil {
			c.PValueMethod = string(m)
		}
	case "top_correlations":
		c.TopCorrelations, err = atoi(0)
	case "profile_columns":
		c.ProfileColumns = nil
		for _, col := range strings.Split(val, ",") {
			if col = strings.TrimSpace(col); col != "" {
				c.ProfileColumns = append(c.ProfileColumns, col)
			}
		}
	case "short_names":
		c.ShortNames, err = strconv.ParseBool(val)
	case "chi_square_pairs":
		return fmt.Errorf("chi_square_pairs is a list of {var1, var2}; edit the config file directly")
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
