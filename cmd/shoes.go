package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/shoe-curation/internal/model"
)

var shoesCmd = &cobra.Command{
	Use:   "shoes",
	Short: "Manage the local shoe catalog",
}

var shoesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a shoe",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		shoe := &model.Shoe{}
		shoe.ID, _ = cmd.Flags().GetString("id")
		shoe.Brand, _ = cmd.Flags().GetString("brand")
		shoe.ModelName, _ = cmd.Flags().GetString("model")
		shoe.Category, _ = cmd.Flags().GetString("category")
		shoe.Keywords, _ = cmd.Flags().GetStringSlice("keywords")
		shoe.Locale, _ = cmd.Flags().GetString("locale")
		shoe.Region, _ = cmd.Flags().GetString("region")

		if err := env.Store.SaveShoe(ctx, shoe); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "saved %s (%s)\n", shoe.ID, shoe.DisplayName())
		return nil
	},
}

var shoesGetCmd = &cobra.Command{
	Use:   "get <shoe-id>",
	Short: "Show a shoe",
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
			return eris.Wrapf(err, "shoe %s", args[0])
		}
		return writeJSON(os.Stdout, shoe)
	},
}

func init() {
	shoesAddCmd.Flags().String("id", "", "shoe id (default: new UUID)")
	shoesAddCmd.Flags().String("brand", "", "brand (required)")
	shoesAddCmd.Flags().String("model", "", "model name (required)")
	shoesAddCmd.Flags().String("category", "", "category, e.g. daily trainer")
	shoesAddCmd.Flags().StringSlice("keywords", nil, "extra search keywords")
	shoesAddCmd.Flags().String("locale", "ja-JP", "catalog locale")
	shoesAddCmd.Flags().String("region", "JP", "catalog region")
	_ = shoesAddCmd.MarkFlagRequired("brand")
	_ = shoesAddCmd.MarkFlagRequired("model")

	shoesCmd.AddCommand(shoesAddCmd)
	shoesCmd.AddCommand(shoesGetCmd)
	rootCmd.AddCommand(shoesCmd)
}
