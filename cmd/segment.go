package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/pilot"
	"github.com/civistat/embsurvey/internal/segment"
	"github.com/civistat/embsurvey/internal/utils"
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Segment respondents and rank pain points and pilot candidates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSegment()
	},
}

func init() {
	rootCmd.AddCommand(segmentCmd)
}

func runSegment() error {
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

	regions := segment.CompareRegions(c)
	if err := utils.WriteJSONFile(outPath(dir, "regional_comparison.json"), regions); err != nil {
		return fmt.Errorf("write regional comparison: %w", err)
	}

	infra := segment.SegmentInfrastructure(c, set)
	if err := utils.WriteJSONFile(outPath(dir, "infrastructure_segments.json"), infra); err != nil {
		return fmt.Errorf("write infrastructure segments: %w", err)
	}

	pains := segment.RankPainPoints(c, set)
	if err := utils.WriteJSONFile(outPath(dir, "pain_point_rankings.json"), pains); err != nil {
		return fmt.Errorf("write pain point rankings: %w", err)
	}

	weights := pilot.DefaultWeights()
	if cfg != nil {
		weights = cfg.ScoringWeights()
	}
	candidates, err := pilot.Score(c, set, weights)
	if err != nil {
		return fmt.Errorf("score pilot candidates: %w", err)
	}
	if err := utils.WriteJSONFile(outPath(dir, "pilot_candidates.json"), candidates); err != nil {
		return fmt.Errorf("write pilot candidates: %w", err)
	}

	fmt.Printf("✓ Compared %d regions\n", len(regions.Regions))
	fmt.Printf("✓ Banded %d respondents by infrastructure maturity (%d unscored)\n",
		len(c.Responses)-infra.Unscored, infra.Unscored)
	if len(pains.Rankings) > 0 {
		top := pains.Rankings[0]
		fmt.Printf("✓ Worst pain point: %s (severity %.1f/10)\n", top.Area, top.Severity)
	}
	fmt.Printf("✓ Scored %d pilot candidates (%d HIGH, %d insufficient data)\n",
		candidates.Summary.TotalAssessed, candidates.Summary.HighCount, len(candidates.Insufficient))
	fmt.Printf("✓ Stage outputs written to %s\n", dir)
	return nil
}
