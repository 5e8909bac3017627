package curation

import (
	"context"

	"ArticlesCurator/internal/domain"
	"ArticlesCurator/internal/ports"
)

// memoryStore implements the candidate and embedding read contracts over an
// in-memory item set, ordered by insertion.
type memoryStore struct {
	items        []domain.Item
	candidateErr error
}

func newMemoryStore(items ...domain.Item) *memoryStore {
	return &memoryStore{items: items}
}

func (m *memoryStore) GetCandidates(_ context.Context, window domain.TimeWindow, categories, sources []string) ([]domain.Item, error) {
	if m.candidateErr != nil {
		return nil, m.candidateErr
	}

	allowCategory := toSet(categories)
	allowSource := toSet(sources)

	var out []domain.Item
	for _, item := range m.items {
		if item.PublishedAt.IsZero() || !window.Contains(item.PublishedAt) {
			continue
		}
		if len(allowSource) > 0 {
			if _, ok := allowSource[item.Source]; !ok {
				continue
			}
		}
		if len(allowCategory) > 0 && !intersects(item.CategorySet(), allowCategory) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *memoryStore) GetItems(_ context.Context, ids []int64) ([]domain.Item, error) {
	byID := make(map[int64]domain.Item, len(m.items))
	for _, item := range m.items {
		byID[item.ID] = item
	}

	var out []domain.Item
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memoryStore) GetEmbeddings(_ context.Context, window domain.TimeWindow) ([]ports.ItemEmbedding, error) {
	var out []ports.ItemEmbedding
	for _, item := range m.items {
		if len(item.Embedding) == 0 || item.PublishedAt.IsZero() || !window.Contains(item.PublishedAt) {
			continue
		}
		out = append(out, ports.ItemEmbedding{ItemID: item.ID, Vector: item.Embedding})
	}
	return out, nil
}

func (m *memoryStore) GetEmbedding(_ context.Context, id int64) ([]float64, error) {
	for _, item := range m.items {
		if item.ID == id {
			return item.Embedding, nil
		}
	}
	return nil, nil
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func intersects(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

// fakeIndex implements ports.VectorIndex with canned hits or a canned error.
type fakeIndex struct {
	hits []ports.VectorHit
	err  error
}

func (f *fakeIndex) KNNSearch(_ context.Context, _ []float64, k int, _ ports.SearchFilter) ([]ports.VectorHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if k > 0 && len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

// stubRetriever returns canned similar items per reference identifier.
type stubRetriever struct {
	similar map[int64][]domain.Item
	err     error
	calls   int
}

func (s *stubRetriever) FindSimilar(_ context.Context, q SimilarityQuery) ([]domain.Item, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.similar[q.ReferenceID], nil
}

// memoryModelStore implements ports.ModelStore over a map.
type memoryModelStore struct {
	models map[string]domain.RankingModel
	getErr error
}

func newMemoryModelStore() *memoryModelStore {
	return &memoryModelStore{models: make(map[string]domain.RankingModel)}
}

func (m *memoryModelStore) GetRankerModel(_ context.Context, recipient string) (*domain.RankingModel, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	model, ok := m.models[recipient]
	if !ok {
		return nil, nil
	}
	clone := model.Clone()
	return &clone, nil
}

func (m *memoryModelStore) StoreRankerModel(_ context.Context, recipient string, model domain.RankingModel) error {
	m.models[recipient] = model.Clone()
	return nil
}

func (m *memoryModelStore) ClearRankerModel(_ context.Context, recipient string) error {
	delete(m.models, recipient)
	return nil
}

// memoryFeedbackStore implements ports.FeedbackStore over a slice.
type memoryFeedbackStore struct {
	pairs []domain.Feedback
}

func (m *memoryFeedbackStore) GetFeedback(context.Context, string) ([]domain.Feedback, error) {
	return m.pairs, nil
}
