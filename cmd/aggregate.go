package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/model"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Search every configured source for one shoe without storing anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("aggregate"); err != nil {
			return err
		}

		brand, _ := cmd.Flags().GetString("brand")
		modelName, _ := cmd.Flags().GetString("model")
		kinds, _ := cmd.Flags().GetStringSlice("sources")
		maxResults, _ := cmd.Flags().GetInt("max")
		locale, _ := cmd.Flags().GetString("locale")
		noImages, _ := cmd.Flags().GetBool("no-images")
		asJSON, _ := cmd.Flags().GetBool("json")

		if maxResults == 0 {
			maxResults = cfg.Aggregate.MaxResults
		}
		sources, err := parseKinds(kinds)
		if err != nil {
			return err
		}

		p, err := initProviders(cfg)
		if err != nil {
			return err
		}
		agg := initAggregator(cfg, p, newPageFetcher(cfg))

		out, err := agg.Aggregate(cmd.Context(), aggregate.Params{
			Brand:         brand,
			ModelName:     modelName,
			MaxResults:    maxResults,
			Sources:       sources,
			Locale:        locale,
			IncludeImages: !noImages,
		})
		if err != nil {
			return err
		}
		if err := out.Err(); err != nil {
			return err
		}

		if asJSON {
			return writeJSON(os.Stdout, out)
		}
		formatOutcome(os.Stdout, out)
		return nil
	},
}

// parseKinds converts case-insensitive kind names.
func parseKinds(names []string) ([]model.SourceType, error) {
	var out []model.SourceType
	for _, n := range names {
		t, ok := model.ParseSourceType(n)
		if !ok {
			return nil, eris.Errorf("unknown source kind %q (want one of %v)", n, model.AllSourceTypes())
		}
		out = append(out, t)
	}
	return out, nil
}

func init() {
	aggregateCmd.Flags().String("brand", "", "shoe brand (required)")
	aggregateCmd.Flags().String("model", "", "shoe model name (required)")
	aggregateCmd.Flags().StringSlice("sources", nil, "source kinds to search (default all configured)")
	aggregateCmd.Flags().Int("max", 0, "max results (default from config)")
	aggregateCmd.Flags().String("locale", "ja", "result locale, e.g. ja or en-US")
	aggregateCmd.Flags().Bool("no-images", false, "drop thumbnails")
	aggregateCmd.Flags().Bool("json", false, "print the full outcome as JSON")
	_ = aggregateCmd.MarkFlagRequired("brand")
	_ = aggregateCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(aggregateCmd)
}
