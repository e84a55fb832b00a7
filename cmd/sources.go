package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shoe-curation/internal/curation"
	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/workbook"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage curated sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list <shoe-id>",
	Short: "List a shoe's curated sources by reliability",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		typeFlag, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		var typ model.SourceType
		if typeFlag != "" {
			t, ok := model.ParseSourceType(typeFlag)
			if !ok {
				return eris.Errorf("unknown source type %q", typeFlag)
			}
			typ = t
		}

		sources, err := env.Curation.List(ctx, args[0], typ, limit)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(os.Stdout, sources)
		}
		if len(sources) == 0 {
			_, _ = fmt.Fprintln(os.Stdout, "No curated sources.")
			return nil
		}
		formatSources(os.Stdout, sources)
		return nil
	},
}

var sourcesCreateCmd = &cobra.Command{
	Use:   "create <shoe-id>",
	Short: "Add a curated source by hand",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		in, err := manualFromFlags(cmd)
		if err != nil {
			return err
		}
		src, err := env.Curation.CreateManual(ctx, args[0], in)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "created %s (%s, reliability %.2f)\n", src.ID, src.Type, src.Reliability)
		return nil
	},
}

// manualFromFlags builds a ManualInput from the create command's flags.
func manualFromFlags(cmd *cobra.Command) (curation.ManualInput, error) {
	typeFlag, _ := cmd.Flags().GetString("type")
	title, _ := cmd.Flags().GetString("title")
	rawURL, _ := cmd.Flags().GetString("url")
	platform, _ := cmd.Flags().GetString("platform")
	excerpt, _ := cmd.Flags().GetString("excerpt")
	author, _ := cmd.Flags().GetString("author")
	published, _ := cmd.Flags().GetString("published")
	tags, _ := cmd.Flags().GetStringSlice("tags")

	in := curation.ManualInput{
		Title:    title,
		URL:      rawURL,
		Type:     model.SourceType(strings.ToUpper(typeFlag)),
		Platform: platform,
		Excerpt:  excerpt,
		Author:   author,
		Tags:     tags,
	}
	if published != "" {
		t, err := model.ParseDate(published)
		if err != nil {
			return in, err
		}
		d := model.Date(t)
		in.PublishedAt = &d
	}
	return in, nil
}

var sourcesStatusCmd = &cobra.Command{
	Use:   "status <source-id> <DRAFT|PUBLISHED|REJECTED>",
	Short: "Change a curated source's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		src, err := env.Curation.SetStatus(ctx, args[0], model.SourceStatus(strings.ToUpper(args[1])))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "%s is now %s\n", src.ID, src.Status)
		return nil
	},
}

var sourcesRescoreCmd = &cobra.Command{
	Use:   "rescore [shoe-id]",
	Short: "Rewrite stored reliability to the current scoring policy",
	Long:  "Rewrite stored reliability to the current scoring policy. Without a shoe id every shoe is rescored.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		var shoeID string
		if len(args) == 1 {
			shoeID = args[0]
		}
		res, err := env.Curation.Rescore(ctx, shoeID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "updated %d sources\n", res.Updated)
		for _, t := range model.AllSourceTypes() {
			if n := res.ByType[t]; n > 0 {
				_, _ = fmt.Fprintf(os.Stdout, "  %s: %d\n", t, n)
			}
		}
		return nil
	},
}

var sourcesImportCmd = &cobra.Command{
	Use:   "import <shoe-id> <file.xlsx>",
	Short: "Create curated sources from a spreadsheet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Store.GetShoe(ctx, args[0]); err != nil {
			return eris.Wrapf(err, "import: shoe %s", args[0])
		}
		rows, err := workbook.ReadManualFile(args[1])
		if err != nil {
			return err
		}

		res, err := workbook.Import(ctx, env.Curation, args[0], rows)
		if err != nil {
			return err
		}
		for _, f := range res.Failed {
			zap.L().Warn("import: row rejected", zap.Int("row", f.Row), zap.Error(f.Err))
			_, _ = fmt.Fprintf(os.Stdout, "row %d: %v\n", f.Row, f.Err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "created %d of %d rows\n", res.Created, len(rows))
		return nil
	},
}

func init() {
	sourcesListCmd.Flags().String("type", "", "filter by source type")
	sourcesListCmd.Flags().Int("limit", 0, "max rows (default 12, max 30)")
	sourcesListCmd.Flags().Bool("json", false, "print JSON")

	sourcesCreateCmd.Flags().String("type", "", "source type (required)")
	sourcesCreateCmd.Flags().String("title", "", "title (required)")
	sourcesCreateCmd.Flags().String("url", "", "source URL (required)")
	sourcesCreateCmd.Flags().String("platform", "", "platform name")
	sourcesCreateCmd.Flags().String("excerpt", "", "short excerpt")
	sourcesCreateCmd.Flags().String("author", "", "author")
	sourcesCreateCmd.Flags().String("published", "", "publication date (YYYY-MM-DD or RFC 3339)")
	sourcesCreateCmd.Flags().StringSlice("tags", nil, "tags")
	_ = sourcesCreateCmd.MarkFlagRequired("type")
	_ = sourcesCreateCmd.MarkFlagRequired("title")
	_ = sourcesCreateCmd.MarkFlagRequired("url")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesCreateCmd)
	sourcesCmd.AddCommand(sourcesStatusCmd)
	sourcesCmd.AddCommand(sourcesRescoreCmd)
	sourcesCmd.AddCommand(sourcesImportCmd)
	rootCmd.AddCommand(sourcesCmd)
}
