package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HibiscusSOS/internal/models"
)

func newTestIndex(t *testing.T) *HistoryIndex {
	t.Helper()
	idx, err := New(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func archivedAlert(id, userID, transcript string, severity models.Severity, rt models.ResolutionType) *models.Alert {
	now := models.Now()
	return &models.Alert{
		ID:             id,
		Timestamp:      now,
		Status:         severity,
		Location:       "1.0,2.0",
		UserID:         userID,
		Transcript:     transcript,
		Resolved:       true,
		ResolvedAt:     &now,
		ResolutionType: rt,
	}
}

func TestIndexAndKeywordSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexAlert(ctx, archivedAlert("a1", "u1", "house fire on elm street", models.SeverityCritical, models.ResolutionResolved)))
	require.NoError(t, idx.IndexAlert(ctx, archivedAlert("a2", "u2", "cat stuck in a tree", models.SeverityLow, models.ResolutionResolved)))

	res, err := idx.Search(ctx, Query{Keyword: "fire"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
	assert.Equal(t, "a1", res.Hits[0].ID)
	assert.NotEmpty(t, res.Hits[0].Fragments)
}

func TestSearchFilters(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexAlert(ctx, archivedAlert("a1", "u1", "flooding", models.SeverityCritical, models.ResolutionResolved)))
	require.NoError(t, idx.IndexAlert(ctx, archivedAlert("a2", "u1", "prank call", models.SeverityLow, models.ResolutionRejected)))
	require.NoError(t, idx.IndexAlert(ctx, archivedAlert("a3", "u2", "gas leak", models.SeverityCritical, models.ResolutionResolved)))

	res, err := idx.Search(ctx, Query{Severity: string(models.SeverityCritical)})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Total)

	res, err = idx.Search(ctx, Query{Resolution: string(models.ResolutionRejected)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
	assert.Equal(t, "a2", res.Hits[0].ID)

	res, err = idx.Search(ctx, Query{UserID: "u1", Severity: string(models.SeverityCritical)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
	assert.Equal(t, "a1", res.Hits[0].ID)
}

func TestSearchMatchAllAndPaging(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	for _, id := range []string{"a1", "a2", "a3"} {
		require.NoError(t, idx.IndexAlert(ctx, archivedAlert(id, "u", "incident "+id, models.SeverityMedium, models.ResolutionResolved)))
	}

	res, err := idx.Search(ctx, Query{Size: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Total)
	assert.Len(t, res.Hits, 2)

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestDelete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexAlert(ctx, archivedAlert("a1", "u", "x", models.SeverityLow, models.ResolutionResolved)))
	require.NoError(t, idx.Delete(ctx, "a1"))

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestClosedIndexRejectsOps(t *testing.T) {
	idx, err := New(Config{})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	assert.ErrorIs(t, idx.IndexAlert(context.Background(), archivedAlert("a", "u", "x", models.SeverityLow, models.ResolutionResolved)), ErrClosed)
	_, err = idx.Search(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, idx.Close())
}
