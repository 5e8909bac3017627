package ports

import (
	"context"
	"errors"
	"time"

	"ArticlesCurator/internal/domain"
)

// ErrIndexUnavailable reports that the vector index cannot serve queries at
// all, as opposed to serving a query that happens to match nothing. The
// engine falls back to brute-force retrieval on this condition.
var ErrIndexUnavailable = errors.New("vector index unavailable")

// CandidateStore reads candidate items from the relational store.
type CandidateStore interface {
	// GetCandidates returns items published inside the window, optionally
	// narrowed to category and source allow-lists.
	GetCandidates(ctx context.Context, window domain.TimeWindow, categories, sources []string) ([]domain.Item, error)

	// GetItems resolves items by identifier, preserving the requested order.
	// Unknown identifiers are skipped, not errors.
	GetItems(ctx context.Context, ids []int64) ([]domain.Item, error)
}

// ItemEmbedding pairs an item identifier with its embedding vector.
type ItemEmbedding struct {
	ItemID int64
	Vector []float64
}

// EmbeddingStore maps item identifiers to fixed-length embedding vectors.
type EmbeddingStore interface {
	// GetEmbeddings bulk-fetches embeddings for items published inside the
	// window. Items without a computed embedding are omitted.
	GetEmbeddings(ctx context.Context, window domain.TimeWindow) ([]ItemEmbedding, error)

	// GetEmbedding returns a single item's embedding, or nil when absent.
	GetEmbedding(ctx context.Context, id int64) ([]float64, error)
}

// SearchFilter constrains a nearest-neighbour query.
type SearchFilter struct {
	Window    domain.TimeWindow
	ExcludeID int64
}

// VectorHit is a single nearest-neighbour match.
type VectorHit struct {
	ItemID int64
	Score  float64
}

// VectorIndex is the approximate-search backend. Implementations must return
// ErrIndexUnavailable (wrapped or bare) when the service is unreachable so
// the engine can tell "down" apart from "no results".
type VectorIndex interface {
	KNNSearch(ctx context.Context, embedding []float64, k int, filter SearchFilter) ([]VectorHit, error)
}

// ModelStore persists per-recipient ranking models.
type ModelStore interface {
	// GetRankerModel returns the stored model, or nil when none exists.
	GetRankerModel(ctx context.Context, recipient string) (*domain.RankingModel, error)
	StoreRankerModel(ctx context.Context, recipient string, model domain.RankingModel) error
	ClearRankerModel(ctx context.Context, recipient string) error
}

// FeedbackStore accumulates engagement feedback for batch retraining.
type FeedbackStore interface {
	GetFeedback(ctx context.Context, recipient string) ([]domain.Feedback, error)
}

// Scheduler controls when curation passes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
