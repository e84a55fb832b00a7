package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/shoe-curation/internal/curation"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Scrape an article or YouTube video into a shoe's AI summary review",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		shoeID, _ := cmd.Flags().GetString("shoe")
		kind, _ := cmd.Flags().GetString("type")
		rawURL, _ := cmd.Flags().GetString("url")

		res, err := env.Curation.Collect(ctx, curation.CollectInput{
			ShoeID:     shoeID,
			SourceType: curation.CollectKind(strings.ToUpper(kind)),
			SourceURL:  rawURL,
		})
		if err != nil {
			return err
		}

		verb := "attached to"
		if res.ReviewCreated {
			verb = "created"
		}
		_, _ = fmt.Fprintf(os.Stdout, "%s review %s (%d sources): %s\n", verb, res.ReviewID, res.SourceCount, res.Source.Title)
		return nil
	},
}

var attachCmd = &cobra.Command{
	Use:   "attach <review-id>",
	Short: "Copy a shoe's published curated sources onto its AI summary review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		enrich, _ := cmd.Flags().GetBool("enrich")

		res, err := env.Curation.AttachCurated(ctx, args[0], curation.AttachOptions{Limit: limit, Enrich: enrich})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "attached %d (skipped %d, enriched %d); review now has %d sources\n",
			res.Attached, res.Skipped, res.Enriched, res.SourceCount)
		return nil
	},
}

func init() {
	collectCmd.Flags().String("shoe", "", "shoe id (required)")
	collectCmd.Flags().String("type", string(curation.CollectWebArticle), "WEB_ARTICLE or YOUTUBE_VIDEO")
	collectCmd.Flags().String("url", "", "article or video URL (required)")
	_ = collectCmd.MarkFlagRequired("shoe")
	_ = collectCmd.MarkFlagRequired("url")

	attachCmd.Flags().Int("limit", 0, "max curated sources to consider (default 12)")
	attachCmd.Flags().Bool("enrich", false, "scrape full article text")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(attachCmd)
}
