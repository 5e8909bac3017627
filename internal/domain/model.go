package domain

// RankingModel is a per-recipient linear model over the feature vector.
// Version ties the stored weights to the feature schema that produced them;
// a mismatch means the model is stale and must be discarded.
type RankingModel struct {
	Weights []float64
	Bias    float64
	Version string
}

// Clone returns a deep copy so callers can mutate weights safely.
func (m RankingModel) Clone() RankingModel {
	weights := make([]float64, len(m.Weights))
	copy(weights, m.Weights)
	return RankingModel{Weights: weights, Bias: m.Bias, Version: m.Version}
}

// Feedback pairs an engagement signal with the feature vector it was
// observed on. Positive signals mean the recipient engaged with the item.
type Feedback struct {
	Signal   float64
	Features []float64
}
