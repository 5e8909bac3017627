package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ArticlesCurator/internal/domain"
	"ArticlesCurator/internal/ports"
)

// PostgresRepository implements the engine's storage contracts against
// Postgres: candidate reads, embedding reads, ranking model persistence,
// and feedback reads.
type PostgresRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var (
	_ ports.CandidateStore = (*PostgresRepository)(nil)
	_ ports.EmbeddingStore = (*PostgresRepository)(nil)
	_ ports.ModelStore     = (*PostgresRepository)(nil)
	_ ports.FeedbackStore  = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var itemColumns = []string{
	"id", "title", "url", "source", "categories",
	"published_at", "urgency_score", "impact_score", "embedding",
}

// candidatesQuery builds the windowed candidate select with optional
// category and source allow-lists.
func (r *PostgresRepository) candidatesQuery(window domain.TimeWindow, categories, sources []string) sq.SelectBuilder {
	query := r.sb.Select(itemColumns...).
		From("items").
		Where(sq.GtOrEq{"published_at": window.Start}).
		Where(sq.Lt{"published_at": window.End}).
		OrderBy("published_at DESC", "id")

	if len(categories) > 0 {
		query = query.Where("categories && ?", pq.Array(categories))
	}
	if len(sources) > 0 {
		query = query.Where(sq.Eq{"source": sources})
	}

	return query
}

// GetCandidates returns items published inside [start, end), newest first.
func (r *PostgresRepository) GetCandidates(ctx context.Context, window domain.TimeWindow, categories, sources []string) ([]domain.Item, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.candidatesQuery(window, categories, sources).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build candidates query: %w", err)
	}

	return r.queryItems(ctx, query, args)
}

// GetItems resolves items by identifier, preserving the requested order.
func (r *PostgresRepository) GetItems(ctx context.Context, ids []int64) ([]domain.Item, error) {
	if r.db == nil || len(ids) == 0 {
		return nil, nil
	}

	query, args, err := r.sb.Select(itemColumns...).
		From("items").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	items, err := r.queryItems(ctx, query, args)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	ordered := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}

	return ordered, nil
}

func (r *PostgresRepository) queryItems(ctx context.Context, query string, args []any) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return items, nil
}

func scanItem(rows *sql.Rows) (domain.Item, error) {
	var (
		item        domain.Item
		categories  pq.StringArray
		publishedAt sql.NullTime
		embedding   pq.Float64Array
	)

	err := rows.Scan(
		&item.ID,
		&item.Title,
		&item.URL,
		&item.Source,
		&categories,
		&publishedAt,
		&item.UrgencyScore,
		&item.ImpactScore,
		&embedding,
	)
	if err != nil {
		return domain.Item{}, fmt.Errorf("scan item: %w", err)
	}

	item.Categories = categories
	if publishedAt.Valid {
		item.PublishedAt = publishedAt.Time
	}
	if len(embedding) > 0 {
		item.Embedding = embedding
	}

	return item, nil
}

// GetEmbeddings bulk-fetches embeddings for items published inside the
// window, omitting items without one.
func (r *PostgresRepository) GetEmbeddings(ctx context.Context, window domain.TimeWindow) ([]ports.ItemEmbedding, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.sb.Select("id", "embedding").
		From("items").
		Where(sq.GtOrEq{"published_at": window.Start}).
		Where(sq.Lt{"published_at": window.End}).
		Where("embedding IS NOT NULL").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build embeddings query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var embeddings []ports.ItemEmbedding
	for rows.Next() {
		var (
			id     int64
			vector pq.Float64Array
		)
		if err := rows.Scan(&id, &vector); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		embeddings = append(embeddings, ports.ItemEmbedding{ItemID: id, Vector: vector})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return embeddings, nil
}

// GetEmbedding returns a single item's embedding, or nil when the item has
// none computed yet.
func (r *PostgresRepository) GetEmbedding(ctx context.Context, id int64) ([]float64, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.sb.Select("embedding").
		From("items").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build embedding query: %w", err)
	}

	var vector pq.Float64Array
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&vector)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	if len(vector) == 0 {
		return nil, nil
	}
	return vector, nil
}

// GetRankerModel loads the stored model for a recipient, nil when absent.
func (r *PostgresRepository) GetRankerModel(ctx context.Context, recipient string) (*domain.RankingModel, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.sb.Select("weights", "bias", "version").
		From("ranker_models").
		Where(sq.Eq{"recipient": recipient}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build model query: %w", err)
	}

	var (
		weights pq.Float64Array
		model   domain.RankingModel
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&weights, &model.Bias, &model.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ranker model: %w", err)
	}

	model.Weights = weights
	return &model, nil
}

// StoreRankerModel upserts the recipient's model snapshot.
func (r *PostgresRepository) StoreRankerModel(ctx context.Context, recipient string, model domain.RankingModel) error {
	if r.db == nil {
		return nil
	}

	query := `INSERT INTO ranker_models (recipient, weights, bias, version)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (recipient) DO UPDATE
              SET weights = EXCLUDED.weights,
                  bias = EXCLUDED.bias,
                  version = EXCLUDED.version,
                  updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		recipient,
		pq.Array(model.Weights),
		model.Bias,
		model.Version,
	)
	if err != nil {
		return fmt.Errorf("upsert ranker model: %w", err)
	}

	return nil
}

// ClearRankerModel drops the recipient's stored model.
func (r *PostgresRepository) ClearRankerModel(ctx context.Context, recipient string) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.sb.Delete("ranker_models").
		Where(sq.Eq{"recipient": recipient}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build model delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete ranker model: %w", err)
	}

	return nil
}

// GetFeedback returns the recipient's accumulated feedback pairs, skipping
// rows without a recorded feature vector.
func (r *PostgresRepository) GetFeedback(ctx context.Context, recipient string) ([]domain.Feedback, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.sb.Select("signal", "features").
		From("ranker_feedback").
		Where(sq.Eq{"recipient": recipient}).
		Where("features IS NOT NULL").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feedback query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var feedback []domain.Feedback
	for rows.Next() {
		var (
			pair     domain.Feedback
			features pq.Float64Array
		)
		if err := rows.Scan(&pair.Signal, &features); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		pair.Features = features
		feedback = append(feedback, pair)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return feedback, nil
}
