package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/civistat/embsurvey/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set embsurvey configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("out_dir: %s\n", cfg.OutDir)
		fmt.Printf("completion_threshold: %.3f\n", cfg.CompletionThreshold)
		if cfg.ScalesFile != "" {
			fmt.Printf("scales_file: %s\n", cfg.ScalesFile)
		}
		fmt.Printf("need_weight: %.3f\n", cfg.NeedWeight)
		fmt.Printf("capability_weight: %.3f\n", cfg.CapabilityWeight)
		fmt.Printf("willingness_weight: %.3f\n", cfg.WillingnessWeight)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "out_dir":
			cfg.OutDir = val
		case "scales_file":
			cfg.ScalesFile = val
		case "completion_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 || f > 1 {
				return fmt.Errorf("invalid completion_threshold: %v (use a value in [0,1])", val)
			}
			cfg.CompletionThreshold = f
		case "need_weight":
			f, err := parseWeight(val)
			if err != nil {
				return fmt.Errorf("invalid need_weight: %w", err)
			}
			cfg.NeedWeight = f
		case "capability_weight":
			f, err := parseWeight(val)
			if err != nil {
				return fmt.Errorf("invalid capability_weight: %w", err)
			}
			cfg.CapabilityWeight = f
		case "willingness_weight":
			f, err := parseWeight(val)
			if err != nil {
				return fmt.Errorf("invalid willingness_weight: %w", err)
			}
			cfg.WillingnessWeight = f
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func parseWeight(val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("weights cannot be negative")
	}
	return f, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
