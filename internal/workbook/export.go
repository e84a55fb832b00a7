// Package workbook writes curated sources to XLSX for editorial review and
// reads admin-prepared sheets of manual sources.
package workbook

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/shoe-curation/internal/model"
)

// Sheet names.
const (
	SourcesSheet = "Sources"
	SummarySheet = "Summary"
)

// sourceHeader is the column order of the Sources sheet. ReadManual accepts
// the same header names, so an exported sheet can be edited and imported.
var sourceHeader = []string{
	"type", "title", "url", "platform", "author", "excerpt", "tags",
	"reliability", "status", "published_at", "thumbnail_url",
}

// WriteSources writes one shoe's curated sources as a two-sheet workbook:
// every source row, then per-kind counts and mean reliability.
func WriteSources(w io.Writer, shoe model.Shoe, sources []model.CuratedSource) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet(SourcesSheet)
	if err != nil {
		return eris.Wrap(err, "workbook: add sources sheet")
	}
	addStringRow(sheet, sourceHeader...)
	for _, s := range sources {
		row := sheet.AddRow()
		row.AddCell().SetString(string(s.Type))
		row.AddCell().SetString(s.Title)
		row.AddCell().SetString(s.URL)
		row.AddCell().SetString(s.Platform)
		row.AddCell().SetString(s.Author)
		row.AddCell().SetString(s.Excerpt)
		row.AddCell().SetString(strings.Join(s.Tags, ", "))
		row.AddCell().SetFloat(s.Reliability)
		row.AddCell().SetString(string(s.Status))
		published := ""
		if s.PublishedAt != nil {
			published = s.PublishedAt.UTC().Format(time.DateOnly)
		}
		row.AddCell().SetString(published)
		row.AddCell().SetString(s.ThumbnailURL)
	}

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "workbook: add summary sheet")
	}
	addStringRow(summary, "shoe", shoe.Brand+" "+shoe.ModelName)
	addStringRow(summary, "total", strconv.Itoa(len(sources)))
	addStringRow(summary, "type", "count", "mean_reliability")
	for _, ks := range kindSummary(sources) {
		row := summary.AddRow()
		row.AddCell().SetString(string(ks.kind))
		row.AddCell().SetInt(ks.count)
		row.AddCell().SetFloat(ks.mean)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "workbook: write")
	}
	return nil
}

type kindStat struct {
	kind  model.SourceType
	count int
	mean  float64
}

// kindSummary counts sources per kind in display order, skipping empty kinds.
func kindSummary(sources []model.CuratedSource) []kindStat {
	counts := make(map[model.SourceType]int)
	sums := make(map[model.SourceType]float64)
	for _, s := range sources {
		counts[s.Type]++
		sums[s.Type] += s.Reliability
	}
	var out []kindStat
	for _, k := range model.AllSourceTypes() {
		c := counts[k]
		if c == 0 {
			continue
		}
		mean := math.Round(sums[k]/float64(c)*100) / 100
		out = append(out, kindStat{kind: k, count: c, mean: mean})
	}
	return out
}

func addStringRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
