package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civistat/embsurvey/internal/qualitative"
)

var runQualitativeFile string

var runCmd = &cobra.Command{
	Use:   "run <export>",
	Short: "Run every stage in order: clean, explore, segment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("── clean ──")
		if err := runClean(args[0]); err != nil {
			return fmt.Errorf("clean stage: %w", err)
		}
		fmt.Println("── explore ──")
		if err := runExplore(); err != nil {
			return fmt.Errorf("explore stage: %w", err)
		}
		fmt.Println("── segment ──")
		if err := runSegment(); err != nil {
			return fmt.Errorf("segment stage: %w", err)
		}
		if runQualitativeFile != "" {
			dir, err := outDir()
			if err != nil {
				return err
			}
			if err := qualitative.ImportThemes(runQualitativeFile, outPath(dir, "qualitative_themes.json")); err != nil {
				return fmt.Errorf("qualitative synthesis: %w", err)
			}
			fmt.Println("✓ qualitative themes copied to qualitative_themes.json")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runQualitativeFile, "qualitative", "",
		"externally produced theme synthesis JSON to validate and copy")
	rootCmd.AddCommand(runCmd)
}
