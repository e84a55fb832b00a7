package workbook

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/shoe-curation/internal/curation"
	"github.com/sells-group/shoe-curation/internal/model"
)

// ManualRow is one parsed sheet row. Row is the 1-based sheet row number.
type ManualRow struct {
	Row   int
	Input curation.ManualInput
}

// ReadManualFile opens path and parses it with ParseManual.
func ReadManualFile(path string) ([]ManualRow, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open file")
	}
	return parseManual(f)
}

// ParseManual reads manual sources from an XLSX payload. The first sheet
// named Sources is used, falling back to the first sheet. Its first row
// is a header using the WriteSources column names; "type", "title" and
// "url" are required, other columns are optional and may be in any order.
// Blank rows are skipped. Reliability and status columns are ignored.
func ParseManual(data []byte) ([]ManualRow, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open payload")
	}
	return parseManual(f)
}

func parseManual(f *xlsx.File) ([]ManualRow, error) {
	sheet, err := getSheet(f)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("workbook: sheet %q is empty", sheet.Name)
	}

	cols := make(map[string]int)
	for i, name := range rowToStrings(sheet.Rows[0]) {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"type", "title", "url"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("workbook: missing %q column", required)
		}
	}

	var out []ManualRow
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		get := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[idx])
		}
		if blank(cells) {
			continue
		}

		rowNum := i + 2
		typ, _ := model.ParseSourceType(get("type"))
		in := curation.ManualInput{
			Title:        get("title"),
			URL:          get("url"),
			Type:         typ,
			Platform:     get("platform"),
			Excerpt:      get("excerpt"),
			Author:       get("author"),
			ThumbnailURL: get("thumbnail_url"),
			Tags:         splitTags(get("tags")),
		}
		if raw := get("published_at"); raw != "" {
			t, err := model.ParseDate(raw)
			if err != nil {
				return nil, eris.Wrapf(err, "workbook: row %d published_at", rowNum)
			}
			d := model.Date(t)
			in.PublishedAt = &d
		}
		out = append(out, ManualRow{Row: rowNum, Input: in})
	}
	return out, nil
}

func getSheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if sheet, ok := f.Sheet[SourcesSheet]; ok {
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("workbook: file has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '、' }) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// RowError ties an import failure to its sheet row.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// ManualCreator stores one manual source. *curation.Service satisfies it.
type ManualCreator interface {
	CreateManual(ctx context.Context, shoeID string, in curation.ManualInput) (*model.CuratedSource, error)
}

var _ ManualCreator = (*curation.Service)(nil)

// ImportResult reports an import run.
type ImportResult struct {
	Created int         `json:"created"`
	Failed  []*RowError `json:"-"`
}

// Import creates every row for shoeID. Row failures are collected and do
// not stop the run; a cancelled context does.
func Import(ctx context.Context, c ManualCreator, shoeID string, rows []ManualRow) (*ImportResult, error) {
	res := &ImportResult{}
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "workbook: import cancelled")
		}
		if _, err := c.CreateManual(ctx, shoeID, r.Input); err != nil {
			res.Failed = append(res.Failed, &RowError{Row: r.Row, Err: err})
			continue
		}
		res.Created++
	}
	return res, nil
}
