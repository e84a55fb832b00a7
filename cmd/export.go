package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/shoe-curation/internal/store"
	"github.com/sells-group/shoe-curation/internal/workbook"
)

var exportCmd = &cobra.Command{
	Use:   "export <shoe-id>",
	Short: "Write a shoe's curated sources to an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		shoe, err := env.Store.GetShoe(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "export: shoe %s", args[0])
		}
		sources, err := env.Store.ListSources(ctx, store.SourceFilter{ShoeID: shoe.ID, Limit: store.MaxListLimit})
		if err != nil {
			return eris.Wrap(err, "export: list sources")
		}

		var buf bytes.Buffer
		if err := workbook.WriteSources(&buf, *shoe, sources); err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = shoe.ID + "-curated-sources.xlsx"
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return eris.Wrap(err, "export: write file")
		}
		_, _ = fmt.Fprintf(os.Stdout, "wrote %d sources to %s\n", len(sources), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "", "output path (default <shoe-id>-curated-sources.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
