package curation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ArticlesCurator/internal/domain"
	"ArticlesCurator/internal/ports"
)

const (
	// DefaultLearningRate applies to both the online step and batch retrain.
	DefaultLearningRate = 0.1

	// retrainEpochs is the fixed epoch count for batch retraining. It is a
	// hyperparameter, not tuned adaptively.
	retrainEpochs = 10
)

// defaultWeights is the starter weighting for recipients with no trained
// model yet: semantic similarity dominates, then recency, urgency, impact.
var defaultWeights = []float64{0.6, 0.2, 0.1, 0.1}

// Ranker scores feature vectors against per-recipient linear models and
// folds engagement feedback back into them. Models live in the store; the
// ranker re-reads before every score and update, never caching across calls.
type Ranker struct {
	models   ports.ModelStore
	feedback ports.FeedbackStore
	logger   *slog.Logger
	rate     float64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRanker wires the model and feedback stores. A non-positive learning
// rate falls back to the default.
func NewRanker(models ports.ModelStore, feedback ports.FeedbackStore, logger *slog.Logger, learningRate float64) *Ranker {
	if learningRate <= 0 {
		learningRate = DefaultLearningRate
	}
	return &Ranker{
		models:   models,
		feedback: feedback,
		logger:   logger,
		rate:     learningRate,
		locks:    make(map[string]*sync.Mutex),
	}
}

// recipientLock serializes read-modify-write cycles for a single recipient;
// updates for different recipients proceed independently.
func (r *Ranker) recipientLock(recipient string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[recipient]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[recipient] = lock
	}
	return lock
}

// DefaultModel returns the fixed starter model. It is never persisted until
// an update occurs.
func DefaultModel() domain.RankingModel {
	weights := make([]float64, len(defaultWeights))
	copy(weights, defaultWeights)
	return domain.RankingModel{Weights: weights, Version: FeatureSchemaVersion}
}

// currentModel fetches the recipient's model, reconciling absence, storage
// trouble, and schema drift to the default model.
func (r *Ranker) currentModel(ctx context.Context, recipient string) domain.RankingModel {
	stored, err := r.models.GetRankerModel(ctx, recipient)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("ranking model read failed, using default", "recipient", recipient, "error", err)
		}
		return DefaultModel()
	}
	if stored == nil {
		return DefaultModel()
	}

	if len(stored.Weights) != FeatureDim || stored.Version != FeatureSchemaVersion {
		modelResets.Inc()
		if r.logger != nil {
			r.logger.Warn("discarding stale ranking model",
				"recipient", recipient,
				"stored_version", stored.Version,
				"stored_dim", len(stored.Weights))
		}
		return DefaultModel()
	}

	return stored.Clone()
}

// Score evaluates the recipient's model on a feature vector. The model is
// fetched fresh each call; recoverable model problems degrade to the default
// weighting rather than erroring.
func (r *Ranker) Score(ctx context.Context, recipient string, features []float64) float64 {
	model := r.currentModel(ctx, recipient)
	if len(features) != len(model.Weights) {
		return 0
	}
	return dot(model.Weights, features) + model.Bias
}

// Update applies one perceptron-style step for a single feedback event:
// weights move along the feature vector in the signal's direction and are
// renormalized to unit length, then the new model is persisted.
func (r *Ranker) Update(ctx context.Context, recipient string, features []float64, signal float64) (domain.RankingModel, error) {
	if len(features) != FeatureDim {
		return domain.RankingModel{}, fmt.Errorf("feature vector has %d dimensions, want %d", len(features), FeatureDim)
	}

	lock := r.recipientLock(recipient)
	lock.Lock()
	defer lock.Unlock()

	model := r.currentModel(ctx, recipient)

	direction := 1.0
	if signal <= 0 {
		direction = -1.0
	}

	for i := range model.Weights {
		model.Weights[i] += r.rate * direction * features[i]
	}
	if norm := l2Norm(model.Weights); norm > 0 {
		for i := range model.Weights {
			model.Weights[i] /= norm
		}
	}
	model.Bias += r.rate * direction
	model.Version = FeatureSchemaVersion

	if err := r.models.StoreRankerModel(ctx, recipient, model); err != nil {
		return domain.RankingModel{}, fmt.Errorf("store ranking model: %w", err)
	}

	return model, nil
}

// BulkRetrain rebuilds the recipient's model from all accumulated feedback
// with a fixed number of batch gradient descent epochs and L2
// regularization. It returns nil when no usable feedback pairs exist.
func (r *Ranker) BulkRetrain(ctx context.Context, recipient string, regularization float64) (*domain.RankingModel, error) {
	lock := r.recipientLock(recipient)
	lock.Lock()
	defer lock.Unlock()

	pairs, err := r.feedback.GetFeedback(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}

	features := make([][]float64, 0, len(pairs))
	labels := make([]float64, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair.Features) != FeatureDim {
			continue
		}
		features = append(features, pair.Features)
		label := -1.0
		if pair.Signal > 0 {
			label = 1.0
		}
		labels = append(labels, label)
	}
	if len(features) == 0 {
		return nil, nil
	}

	model := r.currentModel(ctx, recipient)
	n := float64(len(features))

	for epoch := 0; epoch < retrainEpochs; epoch++ {
		gradient := make([]float64, FeatureDim)
		var biasGradient float64

		for i, x := range features {
			residual := labels[i] - dot(model.Weights, x)
			for j := range gradient {
				gradient[j] += x[j] * residual
			}
			biasGradient += residual
		}

		for j := range model.Weights {
			model.Weights[j] += r.rate * (gradient[j]/n - regularization*model.Weights[j])
		}
		model.Bias += r.rate * (biasGradient / n)
	}

	if norm := l2Norm(model.Weights); norm > 0 {
		for i := range model.Weights {
			model.Weights[i] /= norm
		}
	}
	model.Version = FeatureSchemaVersion

	if err := r.models.StoreRankerModel(ctx, recipient, model); err != nil {
		return nil, fmt.Errorf("store retrained model: %w", err)
	}

	return &model, nil
}
