package curation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"ArticlesCurator/internal/domain"
	"ArticlesCurator/internal/ports"
)

// SimilarityQuery carries everything needed to find items similar to a
// reference item within one curation pass.
type SimilarityQuery struct {
	ReferenceID int64
	Embedding   []float64
	TopK        int
	Threshold   float64
	Window      domain.TimeWindow
	Exclude     map[int64]struct{}
}

func (q SimilarityQuery) excluded(id int64) bool {
	if id == q.ReferenceID {
		return true
	}
	_, ok := q.Exclude[id]
	return ok
}

// Retriever finds candidate items similar to a reference embedding, each
// annotated with its similarity score, ordered by descending similarity.
type Retriever interface {
	FindSimilar(ctx context.Context, q SimilarityQuery) ([]domain.Item, error)
}

// scoredID keeps a similarity alongside an item identifier until the items
// are resolved from the store.
type scoredID struct {
	id    int64
	score float64
}

// resolveScored loads the items behind the scored identifiers, preserving
// score order and attaching each similarity.
func resolveScored(ctx context.Context, items ports.CandidateStore, scored []scoredID) ([]domain.Item, error) {
	if len(scored) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(scored))
	for i, s := range scored {
		ids[i] = s.id
	}

	resolved, err := items.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve items: %w", err)
	}

	byID := make(map[int64]domain.Item, len(resolved))
	for _, item := range resolved {
		byID[item.ID] = item
	}

	result := make([]domain.Item, 0, len(scored))
	for _, s := range scored {
		item, ok := byID[s.id]
		if !ok {
			continue
		}
		item.Similarity = s.score
		result = append(result, item)
	}

	return result, nil
}

// sortScored orders by descending similarity, breaking ties on identifier so
// a pass over fixed inputs is deterministic.
func sortScored(scored []scoredID) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id < scored[j].id
	})
}

// IndexRetriever serves similarity queries from the external vector index.
type IndexRetriever struct {
	index  ports.VectorIndex
	items  ports.CandidateStore
	logger *slog.Logger
}

var _ Retriever = (*IndexRetriever)(nil)

// NewIndexRetriever wires the approximate-search backend.
func NewIndexRetriever(index ports.VectorIndex, items ports.CandidateStore, logger *slog.Logger) *IndexRetriever {
	return &IndexRetriever{index: index, items: items, logger: logger}
}

// FindSimilar issues a nearest-neighbour query and applies the threshold,
// self-exclusion, and ordering contract on top of the raw hits.
func (r *IndexRetriever) FindSimilar(ctx context.Context, q SimilarityQuery) ([]domain.Item, error) {
	if len(q.Embedding) == 0 {
		return nil, nil
	}

	filter := ports.SearchFilter{Window: q.Window, ExcludeID: q.ReferenceID}
	hits, err := r.index.KNNSearch(ctx, q.Embedding, q.TopK+len(q.Exclude), filter)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	scored := make([]scoredID, 0, len(hits))
	for _, hit := range hits {
		if q.excluded(hit.ItemID) || hit.Score < q.Threshold {
			continue
		}
		scored = append(scored, scoredID{id: hit.ItemID, score: hit.Score})
	}

	sortScored(scored)
	if q.TopK > 0 && len(scored) > q.TopK {
		scored = scored[:q.TopK]
	}

	return resolveScored(ctx, r.items, scored)
}

// BruteForceRetriever serves similarity queries by scanning every embedding
// in the window and computing cosine similarity directly. It is the fallback
// when the vector index is unavailable, and the only backend when no index
// is configured.
type BruteForceRetriever struct {
	embeddings ports.EmbeddingStore
	items      ports.CandidateStore
	logger     *slog.Logger
}

var _ Retriever = (*BruteForceRetriever)(nil)

// NewBruteForceRetriever wires the exhaustive-scan backend.
func NewBruteForceRetriever(embeddings ports.EmbeddingStore, items ports.CandidateStore, logger *slog.Logger) *BruteForceRetriever {
	return &BruteForceRetriever{embeddings: embeddings, items: items, logger: logger}
}

// FindSimilar scans embeddings in the window. A missing reference embedding
// yields an empty result, not an error; the caller proceeds with a
// single-item cluster.
func (r *BruteForceRetriever) FindSimilar(ctx context.Context, q SimilarityQuery) ([]domain.Item, error) {
	if len(q.Embedding) == 0 {
		return nil, nil
	}

	embeddings, err := r.embeddings.GetEmbeddings(ctx, q.Window)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	scored := make([]scoredID, 0, len(embeddings))
	for _, e := range embeddings {
		if q.excluded(e.ItemID) {
			continue
		}
		sim := Cosine(q.Embedding, e.Vector)
		if sim < q.Threshold {
			continue
		}
		scored = append(scored, scoredID{id: e.ItemID, score: sim})
	}

	sortScored(scored)
	if q.TopK > 0 && len(scored) > q.TopK {
		scored = scored[:q.TopK]
	}

	return resolveScored(ctx, r.items, scored)
}

// FallbackRetriever prefers the primary backend and degrades to the
// secondary within the same call on any primary error.
type FallbackRetriever struct {
	primary   Retriever
	secondary Retriever
	logger    *slog.Logger
}

var _ Retriever = (*FallbackRetriever)(nil)

// NewFallbackRetriever composes the two backends.
func NewFallbackRetriever(primary, secondary Retriever, logger *slog.Logger) *FallbackRetriever {
	return &FallbackRetriever{primary: primary, secondary: secondary, logger: logger}
}

// FindSimilar tries the primary backend first. Failures are logged and
// recovered locally; they never surface while the secondary can still serve.
func (f *FallbackRetriever) FindSimilar(ctx context.Context, q SimilarityQuery) ([]domain.Item, error) {
	if f.primary == nil {
		return f.secondary.FindSimilar(ctx, q)
	}

	items, err := f.primary.FindSimilar(ctx, q)
	if err == nil {
		return items, nil
	}

	indexFallbacks.Inc()
	if f.logger != nil {
		f.logger.Warn("similarity search degraded to brute force", "reference", q.ReferenceID, "error", err)
	}

	return f.secondary.FindSimilar(ctx, q)
}
