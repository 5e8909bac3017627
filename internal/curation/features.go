package curation

import (
	"math"
	"time"

	"ArticlesCurator/internal/domain"
)

const (
	// FeatureSchemaVersion tags feature vectors and the models trained on
	// them. Bump it whenever the layout below changes; stored models with a
	// different version are discarded on read.
	FeatureSchemaVersion = "v1"

	// FeatureDim is the fixed feature vector length:
	// [semantic, recency, urgency, impact].
	FeatureDim = 4

	// DefaultHalfLifeHours controls recency decay when no half-life is
	// configured.
	DefaultHalfLifeHours = 24.0
)

// BuildFeatureVector converts an item/recipient pair into the fixed
// 4-dimensional feature vector consumed by the ranking model.
//
// semantic: cosine similarity of the recipient and item embeddings, clipped
// to [-1,1]; 0 when either embedding is absent.
// recency: exponential half-life decay of hours since publication, in [0,1];
// 0 when the publish time is unknown.
// urgency, impact: raw 0-100 scores scaled to [0,1].
func BuildFeatureVector(item domain.Item, recipientEmbedding, itemEmbedding []float64, now time.Time, halfLifeHours float64) []float64 {
	semantic := 0.0
	if len(recipientEmbedding) > 0 && len(itemEmbedding) > 0 {
		semantic = clip(Cosine(recipientEmbedding, itemEmbedding), -1, 1)
	}

	recency := recencyScore(item.PublishedAt, now, halfLifeHours)
	urgency := clip(item.UrgencyScore/100, 0, 1)
	impact := clip(item.ImpactScore/100, 0, 1)

	return []float64{semantic, recency, urgency, impact}
}

// recencyScore computes 0.5^(hours/halfLife). Future-dated items clamp to
// elapsed time zero, so they score the same as items published right now.
func recencyScore(publishedAt, now time.Time, halfLifeHours float64) float64 {
	if publishedAt.IsZero() {
		return 0
	}
	if halfLifeHours <= 0 {
		halfLifeHours = DefaultHalfLifeHours
	}

	hours := now.Sub(publishedAt).Hours()
	if hours < 0 {
		hours = 0
	}

	return clip(math.Pow(0.5, hours/halfLifeHours), 0, 1)
}
