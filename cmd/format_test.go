//go:build !integration

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/model"
)

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("12345678-abcd-efgh"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "ペガサス...", truncateRunes("ペガサス41レビュー", 7))
	assert.Equal(t, "abcdefghij", truncateRunes("abcdefghij", 10))
}

func TestFormatSources(t *testing.T) {
	var buf bytes.Buffer
	formatSources(&buf, []model.CuratedSource{{
		ID:          "aaaaaaaa-1111-2222-3333-444444444444",
		Type:        model.SourceVideo,
		Status:      model.StatusPublished,
		Reliability: 0.7,
		Title:       "Pegasus 41 review",
		URL:         "https://youtu.be/abc",
	}})

	out := buf.String()
	assert.Contains(t, out, "RELIABILITY")
	assert.Contains(t, out, "aaaaaaaa")
	assert.NotContains(t, out, "aaaaaaaa-1111")
	assert.Contains(t, out, "VIDEO")
	assert.Contains(t, out, "PUBLISHED")
	assert.Contains(t, out, "0.70")
	assert.Contains(t, out, "https://youtu.be/abc")
}

func TestFormatOutcome(t *testing.T) {
	var buf bytes.Buffer
	formatOutcome(&buf, &aggregate.Outcome{
		Success: true,
		Data: []model.RawSource{
			{SourceType: model.SourceArticle, Platform: "example.com", Title: "Long run test", URL: "https://example.com/a"},
		},
		Warnings: []string{"VIDEO: quota exceeded"},
		Stats: &aggregate.Stats{
			Total:          1,
			ByKind:         []aggregate.KindStat{{Kind: model.SourceArticle, Count: 1, Share: 1}},
			RecommendedFor: []string{"初心者"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "example.com")
	assert.Contains(t, out, "1 candidates")
	assert.Contains(t, out, "ARTICLE=1")
	assert.Contains(t, out, "recommended for: [初心者]")
	assert.Contains(t, out, "warning: VIDEO: quota exceeded")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, writeJSON(&buf, map[string]int{"created": 2}))
	assert.Equal(t, "{\n  \"created\": 2\n}\n", buf.String())
}
