package curation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticlesCurator/internal/domain"
)

var curatorNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func curatorRequest() domain.CurationRequest {
	return domain.CurationRequest{
		Recipient:           "alice",
		Window:              domain.TimeWindow{Start: curatorNow.Add(-24 * time.Hour), End: curatorNow},
		MaxPerCategory:      10,
		TopK:                5,
		SimilarityThreshold: 0.75,
		MaxClusters:         20,
	}
}

func newTestCurator(store *memoryStore) *Curator {
	brute := NewBruteForceRetriever(store, store, nil)
	return NewCurator(CuratorDeps{
		Candidates: store,
		Retriever:  brute,
		DecayDays:  4,
	})
}

func TestCurateEmptyWindow(t *testing.T) {
	t.Parallel()

	curator := newTestCurator(newMemoryStore())

	clusters, err := curator.Curate(context.Background(), curatorNow, curatorRequest())
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestCurateOrdersClustersByRank(t *testing.T) {
	t.Parallel()

	quiet := domain.Item{
		ID: 1, Title: "quiet", Categories: []string{"local"},
		PublishedAt:  curatorNow.Add(-20 * time.Hour),
		UrgencyScore: 10, ImpactScore: 10,
	}
	breaking := domain.Item{
		ID: 2, Title: "breaking", Categories: []string{"world"},
		PublishedAt:  curatorNow.Add(-time.Hour),
		UrgencyScore: 95, ImpactScore: 90,
	}

	curator := newTestCurator(newMemoryStore(quiet, breaking))

	clusters, err := curator.Curate(context.Background(), curatorNow, curatorRequest())
	require.NoError(t, err)

	require.Len(t, clusters, 2)
	assert.Equal(t, int64(2), clusters[0].Items[0].ID, "high-value cluster ranks first")
	assert.Equal(t, int64(1), clusters[1].Items[0].ID)
}

func TestCurateTruncatesToMaxClusters(t *testing.T) {
	t.Parallel()

	var items []domain.Item
	for i := int64(1); i <= 6; i++ {
		items = append(items, domain.Item{
			ID:          i,
			Categories:  []string{"tech"},
			PublishedAt: curatorNow.Add(-time.Duration(i) * time.Hour),
		})
	}

	curator := newTestCurator(newMemoryStore(items...))

	req := curatorRequest()
	req.MaxClusters = 3

	clusters, err := curator.Curate(context.Background(), curatorNow, req)
	require.NoError(t, err)
	assert.Len(t, clusters, 3)
}

func TestCurateAttachesRecipientSimilarity(t *testing.T) {
	t.Parallel()

	item := domain.Item{
		ID: 1, Categories: []string{"tech"},
		PublishedAt: curatorNow.Add(-time.Hour),
		Embedding:   []float64{1, 0},
	}

	curator := newTestCurator(newMemoryStore(item))

	req := curatorRequest()
	req.RecipientEmbedding = []float64{1, 0}

	clusters, err := curator.Curate(context.Background(), curatorNow, req)
	require.NoError(t, err)

	require.Len(t, clusters, 1)
	assert.InDelta(t, 1.0, clusters[0].Items[0].Similarity, 1e-6)
}

func TestCurateSimilarityBoostReordersClusters(t *testing.T) {
	t.Parallel()

	// Equal base scores; the recipient's interest in item 2 breaks the tie.
	plain := domain.Item{
		ID: 1, Categories: []string{"local"},
		PublishedAt:  curatorNow.Add(-time.Hour),
		UrgencyScore: 50, ImpactScore: 50,
		Embedding: []float64{0, 1},
	}
	favored := domain.Item{
		ID: 2, Categories: []string{"world"},
		PublishedAt:  curatorNow.Add(-time.Hour),
		UrgencyScore: 50, ImpactScore: 50,
		Embedding: []float64{1, 0},
	}

	curator := newTestCurator(newMemoryStore(plain, favored))

	req := curatorRequest()
	req.RecipientEmbedding = []float64{1, 0}

	clusters, err := curator.Curate(context.Background(), curatorNow, req)
	require.NoError(t, err)

	require.Len(t, clusters, 2)
	assert.Equal(t, int64(2), clusters[0].Items[0].ID)
}

func TestCurateCandidateFetchFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.candidateErr = errors.New("database offline")
	curator := newTestCurator(store)

	_, err := curator.Curate(context.Background(), curatorNow, curatorRequest())
	assert.Error(t, err)
}

func TestCurateDeterminism(t *testing.T) {
	t.Parallel()

	items := []domain.Item{
		{ID: 1, Categories: []string{"tech"}, PublishedAt: curatorNow.Add(-time.Hour), UrgencyScore: 60, ImpactScore: 40, Embedding: []float64{1, 0}},
		{ID: 2, Categories: []string{"tech"}, PublishedAt: curatorNow.Add(-2 * time.Hour), UrgencyScore: 30, ImpactScore: 20, Embedding: []float64{0.9, 0.43}},
		{ID: 3, Categories: []string{"world"}, PublishedAt: curatorNow.Add(-3 * time.Hour), UrgencyScore: 80, ImpactScore: 70, Embedding: []float64{0, 1}},
	}

	curator := newTestCurator(newMemoryStore(items...))
	req := curatorRequest()
	req.RecipientEmbedding = []float64{0.5, 0.5}

	first, err := curator.Curate(context.Background(), curatorNow, req)
	require.NoError(t, err)
	second, err := curator.Curate(context.Background(), curatorNow, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
