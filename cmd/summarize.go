package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/shoe-curation/internal/model"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <review-id>",
	Short: "Regenerate an AI summary review from its attached sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "summarize")
		if err != nil {
			return err
		}
		defer env.Close()

		review, err := env.Reviews.Summarize(ctx, args[0])
		if err != nil {
			return err
		}
		sources, err := env.Store.ListAttachedSources(ctx, review.ID)
		if err != nil {
			return eris.Wrap(err, "summarize: list sources")
		}

		raw, _ := cmd.Flags().GetBool("raw")
		return renderReview(os.Stdout, review, sources, raw)
	},
}

// reviewMarkdown renders a review and its sources as markdown.
func reviewMarkdown(r *model.Review, sources []model.AttachedSource) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "%s\n\n", r.Content)
	writeList(&b, "良い点", r.Pros)
	writeList(&b, "気になる点", r.Cons)
	if r.RecommendedFor != "" {
		fmt.Fprintf(&b, "## おすすめ\n\n%s\n\n", r.RecommendedFor)
	}
	if len(sources) > 0 {
		fmt.Fprintf(&b, "## 情報源 (%d)\n\n", len(sources))
		for i, s := range sources {
			title := s.Title
			if title == "" {
				title = s.URL
			}
			fmt.Fprintf(&b, "%d. [%s](%s) `%s`\n", i+1, title, s.URL, s.Type)
		}
	}
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

// renderReview writes the review as terminal-styled markdown, or as plain
// markdown when raw is set.
func renderReview(out io.Writer, r *model.Review, sources []model.AttachedSource, raw bool) error {
	md := reviewMarkdown(r, sources)
	if raw {
		_, err := io.WriteString(out, md)
		return err
	}
	tr, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return eris.Wrap(err, "summarize: init renderer")
	}
	styled, err := tr.Render(md)
	if err != nil {
		return eris.Wrap(err, "summarize: render")
	}
	_, err = io.WriteString(out, styled)
	return err
}

func init() {
	summarizeCmd.Flags().Bool("raw", false, "print plain markdown instead of styled output")
	rootCmd.AddCommand(summarizeCmd)
}
