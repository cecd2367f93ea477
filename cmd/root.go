package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cfgpkg "github.com/civistat/embsurvey/internal/config"
	"github.com/civistat/embsurvey/internal/scales"
	"github.com/civistat/embsurvey/internal/utils"
)

var (
	// Global flags (wired later to config/viper)
	cfgFile string
	debug   bool
	// Directory/threshold flags (override config if set)
	flagOutDir    string
	flagThreshold float64
	flagScales    string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "embsurvey",
	Short: "embsurvey: normalize survey exports and derive election-management metrics",
	Long: `embsurvey turns a raw multi-column survey export into a clean dataset and a
set of derived reports: descriptive statistics, regional and infrastructure
segments, pain-point rankings, and pilot candidate scores. Each stage reads
the previous stage's files, so stages can be rerun independently.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.embsurvey/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVarP(&flagOutDir, "out-dir", "o", "", "directory for stage outputs (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&flagThreshold, "threshold", 0, "completion threshold in [0,1] (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagScales, "scales", "", "YAML file overriding the built-in scale tables (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("out-dir") && flagOutDir != "" {
		cfg.OutDir = flagOutDir
	}
	if f.Changed("threshold") {
		cfg.CompletionThreshold = flagThreshold
	}
	if f.Changed("scales") && flagScales != "" {
		cfg.ScalesFile = flagScales
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// outDir resolves and creates the output directory.
func outDir() (string, error) {
	dir := "out"
	if cfg != nil && cfg.OutDir != "" {
		dir = cfg.OutDir
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}

func outPath(dir, name string) string {
	return filepath.Join(dir, name)
}

// loadScaleSet loads the lookup tables, applying the configured override
// file when one is set.
func loadScaleSet() (*scales.Set, error) {
	path := ""
	if cfg != nil {
		path = cfg.ScalesFile
	}
	set, err := scales.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load scale tables: %w", err)
	}
	return set, nil
}
