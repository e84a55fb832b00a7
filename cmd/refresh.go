package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/shoe-curation/internal/curation"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh <shoe-id>",
	Short: "Aggregate fresh sources for a shoe and store the new ones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "refresh")
		if err != nil {
			return err
		}
		defer env.Close()

		opts := curation.DefaultRefreshOptions()
		opts.MaxResults, _ = cmd.Flags().GetInt("max")
		noVideos, _ := cmd.Flags().GetBool("no-videos")
		noWeb, _ := cmd.Flags().GetBool("no-web")
		opts.IncludeVideos = !noVideos
		opts.IncludeWeb = !noWeb

		res, err := env.Curation.Refresh(ctx, args[0], opts)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(os.Stdout, "created %d, skipped %d of %d candidates\n", res.Created, res.Skipped, res.Total)
		for _, w := range res.Warnings {
			_, _ = fmt.Fprintf(os.Stdout, "warning: %s\n", w)
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().Int("max", curation.DefaultRefreshResults, "max candidates to consider (3-20)")
	refreshCmd.Flags().Bool("no-videos", false, "skip VIDEO sources")
	refreshCmd.Flags().Bool("no-web", false, "skip web, marketplace and community sources")
	rootCmd.AddCommand(refreshCmd)
}
