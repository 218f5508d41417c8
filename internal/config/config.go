package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/mvscope/internal/analysis"
)

const appDir = ".mvscope"

// Global configuration structure.
type Global struct {
	ProjectsDir string `mapstructure:"projects_dir" yaml:"projects_dir"`

	// Loading
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	MaxRows   int    `mapstructure:"max_rows" yaml:"max_rows"`

	// Clustering
	Clusters           int `mapstructure:"clusters" yaml:"clusters"`
	MaxK               int `mapstructure:"max_k" yaml:"max_k"`
	KMeansMaxIter      int `mapstructure:"kmeans_max_iter" yaml:"kmeans_max_iter"`
	ElbowMaxIter       int `mapstructure:"elbow_max_iter" yaml:"elbow_max_iter"`
	ElbowRestarts      int `mapstructure:"elbow_restarts" yaml:"elbow_restarts"`
	HierarchicalMaxObs int `mapstructure:"hierarchical_max_obs" yaml:"hierarchical_max_obs"`

	// PCA
	PCAComponents   int     `mapstructure:"pca_components" yaml:"pca_components"`
	PowerIterations int     `mapstructure:"power_iterations" yaml:"power_iterations"`
	PowerTolerance  float64 `mapstructure:"power_tolerance" yaml:"power_tolerance"`

	// t-SNE
	TSNEEnabled      bool    `mapstructure:"tsne_enabled" yaml:"tsne_enabled"`
	TSNEPerplexity   float64 `mapstructure:"tsne_perplexity" yaml:"tsne_perplexity"`
	TSNEIterations   int     `mapstructure:"tsne_iterations" yaml:"tsne_iterations"`
	TSNELearningRate float64 `mapstructure:"tsne_learning_rate" yaml:"tsne_learning_rate"`

	Seed            int64                 `mapstructure:"seed" yaml:"seed"`
	SpearmanTies    string                `mapstructure:"spearman_ties" yaml:"spearman_ties"`
	PValueMethod    string                `mapstructure:"pvalue_method" yaml:"pvalue_method"`
	TopCorrelations int                   `mapstructure:"top_correlations" yaml:"top_correlations"`
	ProfileColumns  []string              `mapstructure:"profile_columns" yaml:"profile_columns"`
	ChiSquarePairs  []analysis.ColumnPair `mapstructure:"chi_square_pairs" yaml:"chi_square_pairs"`
	ShortNames      bool                  `mapstructure:"short_names" yaml:"short_names"`
}

// Dir returns ~/.mvscope.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, appDir), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.mvscope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadDotEnv reads a .env file from the working directory into the process
// environment. Variables already set are not overridden. It reports whether
// a file was found.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("MVSCOPE")
	v.AutomaticEnv()

	def := analysis.DefaultOptions()
	v.SetDefault("projects_dir", "")
	v.SetDefault("delimiter", "auto")
	v.SetDefault("max_rows", 0)
	v.SetDefault("clusters", def.Clusters)
	v.SetDefault("max_k", def.MaxK)
	v.SetDefault("kmeans_max_iter", def.KMeansMaxIter)
	v.SetDefault("elbow_max_iter", def.ElbowIterations)
	v.SetDefault("elbow_restarts", def.ElbowRestarts)
	v.SetDefault("hierarchical_max_obs", def.HierarchicalMaxObs)
	v.SetDefault("pca_components", def.PCA.Components)
	v.SetDefault("power_iterations", def.PCA.Iterations)
	v.SetDefault("power_tolerance", 0.0)
	v.SetDefault("tsne_enabled", true)
	v.SetDefault("tsne_perplexity", def.TSNE.Perplexity)
	v.SetDefault("tsne_iterations", def.TSNE.Iterations)
	v.SetDefault("tsne_learning_rate", def.TSNE.LearningRate)
	v.SetDefault("seed", 0)
	v.SetDefault("spearman_ties", string(def.Ties))
	v.SetDefault("pvalue_method", string(def.PValue))
	v.SetDefault("top_correlations", def.TopCorrelations)
	v.SetDefault("profile_columns", []string{})
	v.SetDefault("short_names", true)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ProjectsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.ProjectsDir = filepath.Join(dir, "projects")
	}
	return &c, nil
}

// AnalysisOptions converts the configuration into pipeline options. Invalid
// enum values are reported here rather than at run time.
func (c *Global) AnalysisOptions() (analysis.Options, error) {
	opts := analysis.DefaultOptions()
	ties, err := analysis.ParseTieMode(c.SpearmanTies)
	if err != nil {
		return opts, fmt.Errorf("spearman_ties: %w", err)
	}
	pv, err := analysis.ParsePValueMethod(c.PValueMethod)
	if err != nil {
		return opts, fmt.Errorf("pvalue_method: %w", err)
	}
	opts.Clusters = c.Clusters
	opts.MaxK = c.MaxK
	opts.KMeansMaxIter = c.KMeansMaxIter
	opts.ElbowIterations = c.ElbowMaxIter
	opts.ElbowRestarts = c.ElbowRestarts
	opts.HierarchicalMaxObs = c.HierarchicalMaxObs
	opts.PCA.Components = c.PCAComponents
	opts.PCA.Iterations = c.PowerIterations
	opts.PCA.Tolerance = c.PowerTolerance
	opts.SkipTSNE = !c.TSNEEnabled
	opts.TSNE.Perplexity = c.TSNEPerplexity
	opts.TSNE.Iterations = c.TSNEIterations
	opts.TSNE.LearningRate = c.TSNELearningRate
	opts.Seed = c.Seed
	opts.Ties = ties
	opts.PValue = pv
	opts.TopCorrelations = c.TopCorrelations
	opts.ProfileColumns = append([]string(nil), c.ProfileColumns...)
	opts.ChiSquarePairs = append([]analysis.ColumnPair(nil), c.ChiSquarePairs...)
	opts.ShortNames = c.ShortNames
	return opts, nil
}
