package curation

import (
	"context"
	"log/slog"

	"ArticlesCurator/internal/domain"
)

// Clusterer greedily partitions a candidate list into clusters of similar
// items, enforcing a per-category quota on cluster heads.
type Clusterer struct {
	retriever Retriever
	logger    *slog.Logger
}

// NewClusterer wires the similarity backend used to expand cluster heads.
func NewClusterer(retriever Retriever, logger *slog.Logger) *Clusterer {
	return &Clusterer{retriever: retriever, logger: logger}
}

// Cluster walks the candidates in order, making each unused item below quota
// the head of a new cluster and pulling its nearest neighbours in as related
// items. Dedup state and category counts are locals threaded through the
// pass; an item joins at most one cluster.
func (c *Clusterer) Cluster(ctx context.Context, candidates []domain.Item, req domain.CurationRequest) []domain.Cluster {
	used := make(map[int64]struct{}, len(candidates))
	categoryCounts := make(map[string]int)

	var clusters []domain.Cluster
	for _, head := range candidates {
		if _, ok := used[head.ID]; ok {
			continue
		}

		categories := head.CategorySet()
		if !anyBelowQuota(categories, categoryCounts, req.MaxPerCategory) {
			continue
		}

		used[head.ID] = struct{}{}
		members := c.expandHead(ctx, head, used, req)

		// A multi-category head consumes one quota slot per category it
		// declares.
		for _, category := range categories {
			categoryCounts[category]++
		}

		items := make([]domain.Item, 0, len(members)+1)
		items = append(items, head)
		items = append(items, members...)
		clusters = append(clusters, domain.Cluster{Items: items})
	}

	return clusters
}

// expandHead collects the head's similar items, marking each accepted member
// as used. Heads without an embedding stay singletons; retrieval errors
// degrade to a singleton rather than failing the pass.
func (c *Clusterer) expandHead(ctx context.Context, head domain.Item, used map[int64]struct{}, req domain.CurationRequest) []domain.Item {
	if len(head.Embedding) == 0 || c.retriever == nil {
		return nil
	}

	similar, err := c.retriever.FindSimilar(ctx, SimilarityQuery{
		ReferenceID: head.ID,
		Embedding:   head.Embedding,
		TopK:        req.TopK,
		Threshold:   req.SimilarityThreshold,
		Window:      req.Window,
		Exclude:     used,
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("similar item lookup failed, keeping singleton cluster", "head", head.ID, "error", err)
		}
		return nil
	}

	members := make([]domain.Item, 0, len(similar))
	for _, item := range similar {
		if _, ok := used[item.ID]; ok {
			continue
		}
		used[item.ID] = struct{}{}
		members = append(members, item)
	}

	return members
}

// anyBelowQuota reports whether at least one of the categories still has
// room for another cluster head.
func anyBelowQuota(categories []string, counts map[string]int, maxPerCategory int) bool {
	if maxPerCategory <= 0 {
		return true
	}
	for _, category := range categories {
		if counts[category] < maxPerCategory {
			return true
		}
	}
	return false
}
