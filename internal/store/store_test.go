package store

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shoe-curation/internal/model"
)

func TestSourceFilter_EffectiveLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultListLimit},
		{-3, DefaultListLimit},
		{5, 5},
		{30, 30},
		{31, MaxListLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SourceFilter{Limit: tt.limit}.EffectiveLimit(), "limit %d", tt.limit)
	}
}

func TestListSourcesQuery(t *testing.T) {
	query, args, err := listSourcesQuery(SourceFilter{
		ShoeID: "shoe-1", Status: model.StatusPublished, Type: model.SourceVideo, Limit: 5,
	}, sq.Question)
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE shoe_id = ? AND status = ? AND type = ?")
	assert.Contains(t, query, "ORDER BY reliability DESC, published_at DESC NULLS LAST, created_at DESC LIMIT 5")
	assert.Equal(t, []any{"shoe-1", "PUBLISHED", "VIDEO"}, args)

	query, args, err = listSourcesQuery(SourceFilter{}, sq.Dollar)
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "LIMIT 12")
	assert.Empty(t, args)
}

func TestUpdateReliabilityQuery(t *testing.T) {
	query, args, err := updateReliabilityQuery("", model.SourceMarketplace, 0.85, "now", sq.Dollar)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE curated_sources SET reliability = $1, updated_at = $2 WHERE type = $3 AND reliability <> $4", query)
	assert.Equal(t, []any{0.85, "now", "MARKETPLACE", 0.85}, args)
}

func TestMarshalList(t *testing.T) {
	assert.Equal(t, "[]", marshalList(nil))
	assert.Equal(t, `["a","b"]`, marshalList([]string{"a", "b"}))

	var out []string
	require.NoError(t, unmarshalList(nil, &out))
	assert.Equal(t, []string{}, out)
	require.NoError(t, unmarshalList([]byte(`["x"]`), &out))
	assert.Equal(t, []string{"x"}, out)
}
