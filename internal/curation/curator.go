package curation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"ArticlesCurator/internal/domain"
	"ArticlesCurator/internal/ports"
)

// CuratorDeps wires all collaborators into the curation orchestrator.
type CuratorDeps struct {
	Candidates ports.CandidateStore
	Retriever  Retriever
	Logger     *slog.Logger
	DecayDays  float64
}

// Curator composes retrieval, clustering, and scoring into one end-to-end
// curation pass per recipient. It holds no per-pass state; a pass is a
// single synchronous call.
type Curator struct {
	candidates ports.CandidateStore
	clusterer  *Clusterer
	logger     *slog.Logger
	decayDays  float64
}

// NewCurator constructs the orchestration component.
func NewCurator(deps CuratorDeps) *Curator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	decayDays := deps.DecayDays
	if decayDays <= 0 {
		decayDays = DefaultDecayDays
	}
	return &Curator{
		candidates: deps.Candidates,
		clusterer:  NewClusterer(deps.Retriever, logger),
		logger:     logger,
		decayDays:  decayDays,
	}
}

// Curate runs one pass as of the given instant: fetch candidates, cluster,
// attach recipient similarity to the leads, sort, truncate. An empty
// candidate window degrades to an empty cluster list, never an error;
// retrieval trouble inside clustering is recovered by the retriever's
// fallback and singleton degradation.
func (c *Curator) Curate(ctx context.Context, asOf time.Time, req domain.CurationRequest) ([]domain.Cluster, error) {
	log := c.logger.With("pass", uuid.NewString(), "recipient", req.Recipient)

	candidates, err := c.candidates.GetCandidates(ctx, req.Window, req.Categories, req.Sources)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	curationPasses.Inc()
	if len(candidates) == 0 {
		log.Info("no candidates in window", "start", req.Window.Start, "end", req.Window.End)
		return nil, nil
	}

	clusters := c.clusterer.Cluster(ctx, candidates, req)
	attachRecipientSimilarity(clusters, req.RecipientEmbedding)

	sort.SliceStable(clusters, func(i, j int) bool {
		return ClusterSortKey(clusters[i], asOf, c.decayDays) < ClusterSortKey(clusters[j], asOf, c.decayDays)
	})

	if req.MaxClusters > 0 && len(clusters) > req.MaxClusters {
		clusters = clusters[:req.MaxClusters]
	}

	log.Info("curation pass complete", "candidates", len(candidates), "clusters", len(clusters))
	return clusters, nil
}

// attachRecipientSimilarity annotates every cluster lead with its cosine
// similarity to the recipient embedding. Leads without an embedding keep a
// neutral similarity.
func attachRecipientSimilarity(clusters []domain.Cluster, recipientEmbedding []float64) {
	if len(recipientEmbedding) == 0 {
		return
	}
	for i := range clusters {
		if len(clusters[i].Items) == 0 {
			continue
		}
		lead := &clusters[i].Items[0]
		if len(lead.Embedding) == 0 {
			continue
		}
		lead.Similarity = clip(Cosine(recipientEmbedding, lead.Embedding), -1, 1)
	}
}
