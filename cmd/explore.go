package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/explore"
	"github.com/civistat/embsurvey/internal/utils"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Compute descriptive statistics over the clean dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExplore()
	},
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}

func runExplore() error {
	dir, err := outDir()
	if err != nil {
		return err
	}
	set, err := loadScaleSet()
	if err != nil {
		return err
	}
	c, err := dataset.ReadClean(outPath(dir, "survey_clean.json"))
	if err != nil {
		return fmt.Errorf("load clean dataset (run 'embsurvey clean' first): %w", err)
	}

	summary := explore.Summarize(c, set)
	if err := utils.WriteJSONFile(outPath(dir, "summary_stats.json"), summary); err != nil {
		return fmt.Errorf("write summary stats: %w", err)
	}
	completion := explore.AnalyzeCompletion(c)
	if err := utils.WriteJSONFile(outPath(dir, "completion_analysis.json"), completion); err != nil {
		return fmt.Errorf("write completion analysis: %w", err)
	}

	fmt.Printf("✓ Summarized %d responses from %d countries across %d sections\n",
		summary.Responses, summary.Countries.UniqueCount, len(summary.Sections))
	fmt.Printf("✓ Mean completion %.2f; worst-answered field: %s\n",
		completion.MeanScore, worstField(completion))
	fmt.Printf("✓ Stage outputs written to %s\n", dir)
	return nil
}

func worstField(rep *explore.CompletionReport) string {
	if len(rep.FieldMissing) == 0 {
		return "n/a"
	}
	return rep.FieldMissing[0].Field
}
