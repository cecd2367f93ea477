package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/civistat/embsurvey/internal/consolidate"
	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/qualitative"
	"github.com/civistat/embsurvey/internal/schema"
	"github.com/civistat/embsurvey/internal/utils"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <export>",
	Short: "Derive the schema from a raw export and build the clean dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClean(args[0])
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

// runClean is the cleaning stage; the run command reuses it.
func runClean(input string) error {
	dir, err := outDir()
	if err != nil {
		return err
	}
	set, err := loadScaleSet()
	if err != nil {
		return err
	}

	raw, err := dataset.ReadRaw(input)
	if err != nil {
		return err
	}
	sch, err := schema.Derive(raw.Questions, raw.Options, set)
	if err != nil {
		return fmt.Errorf("derive schema: %w", err)
	}

	threshold := consolidate.DefaultThreshold
	if cfg != nil {
		threshold = cfg.CompletionThreshold
	}
	if threshold == 0 {
		threshold = -1 // explicit zero keeps every response
	}
	res, err := consolidate.Run(raw, sch, set, consolidate.Options{
		Threshold: threshold,
		Source:    input,
		Logger:    slog.Default(),
	})
	if err != nil {
		return err
	}

	if err := utils.WriteJSONFile(outPath(dir, "column_mapping.json"), sch); err != nil {
		return fmt.Errorf("write column mapping: %w", err)
	}
	if err := res.Clean.WriteJSON(outPath(dir, "survey_clean.json")); err != nil {
		return fmt.Errorf("write clean dataset: %w", err)
	}
	if err := res.Clean.WriteCSV(outPath(dir, "survey_clean.csv")); err != nil {
		return fmt.Errorf("write clean csv: %w", err)
	}

	// The unfiltered view keeps the excluded responses inspectable.
	all := *res.Clean
	all.Responses = res.All
	all.Excluded = 0
	if err := all.WriteCSV(outPath(dir, "survey_all_responses.csv")); err != nil {
		return fmt.Errorf("write unfiltered csv: %w", err)
	}

	open := qualitative.Collect(res.Clean)
	if err := utils.WriteJSONFile(outPath(dir, "open_responses.json"), open); err != nil {
		return fmt.Errorf("write open responses: %w", err)
	}

	fmt.Printf("✓ Parsed %d columns into %d question groups\n", sch.Columns, len(sch.Groups))
	fmt.Printf("✓ Kept %d of %d responses (threshold %.2f, %d excluded)\n",
		len(res.Clean.Responses), len(res.All), res.Clean.Threshold, res.Clean.Excluded)
	fmt.Printf("✓ Collected %d open-text answers\n", open.Count)
	if len(res.Warnings) > 0 {
		fmt.Printf("⚠ %d warnings; see column_mapping.json and logs\n", len(res.Warnings))
	}
	fmt.Printf("✓ Stage outputs written to %s\n", dir)
	return nil
}
