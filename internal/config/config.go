package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/civistat/embsurvey/internal/consolidate"
	"github.com/civistat/embsurvey/internal/pilot"
)

// Global configuration structure.
type Global struct {
	// OutDir is where every stage writes its artifacts.
	OutDir string `mapstructure:"out_dir" yaml:"out_dir"`
	// CompletionThreshold is the minimum completion score a response needs
	// to enter the clean dataset, in [0, 1].
	CompletionThreshold float64 `mapstructure:"completion_threshold" yaml:"completion_threshold"`
	// ScalesFile optionally overrides the built-in scale tables, region
	// map, and field rules with a YAML file.
	ScalesFile string `mapstructure:"scales_file" yaml:"scales_file"`

	// Pilot composite weights.
	NeedWeight        float64 `mapstructure:"need_weight" yaml:"need_weight"`
	CapabilityWeight  float64 `mapstructure:"capability_weight" yaml:"capability_weight"`
	WillingnessWeight float64 `mapstructure:"willingness_weight" yaml:"willingness_weight"`
}

// ScoringWeights returns the pilot weights the configuration selects.
func (c *Global) ScoringWeights() pilot.Weights {
	return pilot.Weights{
		Need:        c.NeedWeight,
		Capability:  c.CapabilityWeight,
		Willingness: c.WillingnessWeight,
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.embsurvey/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".embsurvey")
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

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EMBSURVEY")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("out_dir", "out")
	v.SetDefault("completion_threshold", consolidate.DefaultThreshold)
	v.SetDefault("scales_file", "")
	defaults := pilot.DefaultWeights()
	v.SetDefault("need_weight", defaults.Need)
	v.SetDefault("capability_weight", defaults.Capability)
	v.SetDefault("willingness_weight", defaults.Willingness)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".embsurvey")
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
	if c.CompletionThreshold < 0 || c.CompletionThreshold > 1 {
		return nil, fmt.Errorf("completion_threshold %v outside [0, 1]", c.CompletionThreshold)
	}
	return &c, nil
}
