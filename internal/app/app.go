package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"ArticlesCurator/internal/config"
	"ArticlesCurator/internal/curation"
	"ArticlesCurator/internal/domain"
	"ArticlesCurator/internal/infrastructure/scheduler"
	"ArticlesCurator/internal/infrastructure/storage"
	"ArticlesCurator/internal/infrastructure/vectorindex"
	"ArticlesCurator/internal/logging"
)

// Application wires configs to the curation engine and lifecycle
// orchestration.
type Application struct {
	cfg     config.Config
	curator *curation.Curator
	ranker  *curation.Ranker
	repo    *storage.PostgresRepository
	db      *sql.DB
	logger  *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := storage.NewPostgresRepository(db)

	brute := curation.NewBruteForceRetriever(repo, repo, baseLogger.With("component", "retriever.brute"))
	var retriever curation.Retriever = brute
	if cfg.VectorIndex.BaseURL != "" {
		index := vectorindex.NewClient(cfg.VectorIndex.BaseURL, cfg.VectorIndex.APIKey, cfg.VectorIndex.Timeout())
		primary := curation.NewIndexRetriever(index, repo, baseLogger.With("component", "retriever.index"))
		retriever = curation.NewFallbackRetriever(primary, brute, baseLogger.With("component", "retriever.fallback"))
	}

	ranker := curation.NewRanker(repo, repo, baseLogger.With("component", "ranker"), cfg.Curation.LearningRate)

	curator := curation.NewCurator(curation.CuratorDeps{
		Candidates: repo,
		Retriever:  retriever,
		Logger:     baseLogger.With("component", "curator"),
		DecayDays:  cfg.Curation.DecayDays,
	})

	return &Application{
		cfg:     cfg,
		curator: curator,
		ranker:  ranker,
		repo:    repo,
		db:      db,
		logger:  baseLogger,
	}, nil
}

// Run executes curation passes on the configured interval until the context
// is cancelled. With no interval configured it runs a single pass.
func (a *Application) Run(ctx context.Context) error {
	defer a.db.Close()

	if a.cfg.Scheduler.IntervalHours <= 0 {
		a.runPass(ctx, time.Now().In(a.cfg.Scheduler.Location()))
		return nil
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval())
	recurring := curation.NewScheduler(driver, a.runPass)
	if err := recurring.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return recurring.Stop(context.Background())
}

// runPass curates one digest per configured recipient and logs the result;
// rendering and delivery belong to downstream consumers.
func (a *Application) runPass(ctx context.Context, asOf time.Time) {
	window := domain.TimeWindow{
		Start: asOf.Add(-time.Duration(a.cfg.Curation.WindowHours) * time.Hour),
		End:   asOf,
	}

	for _, recipient := range a.cfg.Recipients {
		req := domain.CurationRequest{
			Recipient:           recipient.ID,
			Window:              window,
			Categories:          recipient.Categories,
			Sources:             recipient.Sources,
			MaxPerCategory:      a.cfg.Curation.MaxPerCategory,
			TopK:                a.cfg.Curation.TopK,
			SimilarityThreshold: a.cfg.Curation.SimilarityThreshold,
			MaxClusters:         a.cfg.Curation.MaxClusters,
		}

		clusters, err := a.curator.Curate(ctx, asOf, req)
		if err != nil {
			a.logger.Error("curation pass failed", "recipient", recipient.ID, "error", err)
			continue
		}

		a.logger.Info("digest curated",
			"recipient", recipient.ID,
			"clusters", len(clusters),
			"digest", buildDigestSummary(clusters))
	}
}

// buildDigestSummary renders a one-line-per-cluster overview of the curated
// digest for the logs.
func buildDigestSummary(clusters []domain.Cluster) string {
	if len(clusters) == 0 {
		return "(empty)"
	}

	var b strings.Builder
	for i, cluster := range clusters {
		lead, ok := cluster.Lead()
		if !ok {
			continue
		}
		if i > 0 {
			b.WriteString(" | ")
		}
		fmt.Fprintf(&b, "%s (+%d related)", lead.Title, cluster.Size()-1)
	}

	return b.String()
}
