package curation

import (
	"math"
	"time"

	"ArticlesCurator/internal/domain"
)

const (
	// DefaultDecayDays is how long a lead item's urgency takes to decay to
	// zero when no decay horizon is configured.
	DefaultDecayDays = 4.0

	// clusterSizeCap saturates the size bonus: clusters with more than this
	// many related items all score the same size term.
	clusterSizeCap = 10.0

	// similarityBonusWeight scales the recipient-similarity bonus added to
	// the normalized lead score.
	similarityBonusWeight = 0.2
)

// ClusterSortKey computes the sort key for a cluster from its lead item.
// The key is the negated rank key, so sorting ascending puts the
// highest-value clusters first. An empty cluster yields the neutral key 0;
// the clustering engine never produces one.
func ClusterSortKey(c domain.Cluster, now time.Time, decayDays float64) float64 {
	lead, ok := c.Lead()
	if !ok {
		return 0
	}
	if decayDays <= 0 {
		decayDays = DefaultDecayDays
	}

	urgency := lead.UrgencyScore * urgencyDecay(lead.PublishedAt, now, decayDays)
	impact := lead.ImpactScore

	size := 0.0
	if c.Size() > 1 {
		size = math.Min(float64(c.Size()-1)/clusterSizeCap, 1)
	}

	score := (urgency + impact) / 200
	if lead.Similarity > 0 {
		score = math.Min(score+lead.Similarity*similarityBonusWeight, 1)
	}

	return -(0.7*score + 0.3*size)
}

// urgencyDecay is a linear ramp from 1 at publication down to 0 after
// decayDays. An unknown publish time decays fully, matching the neutral
// handling of malformed timestamps elsewhere in the engine.
func urgencyDecay(publishedAt, now time.Time, decayDays float64) float64 {
	if publishedAt.IsZero() {
		return 0
	}

	hours := now.Sub(publishedAt).Hours()
	if hours < 0 {
		hours = 0
	}

	return math.Max(0, 1-hours/(decayDays*24))
}
