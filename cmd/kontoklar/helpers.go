// Package main contains the kontoklar CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ekervik/kontoklar/internal/bayes"
	"github.com/ekervik/kontoklar/internal/config"
	"github.com/ekervik/kontoklar/internal/embedding"
	"github.com/ekervik/kontoklar/internal/engine"
	"github.com/ekervik/kontoklar/internal/rules"
	"github.com/ekervik/kontoklar/internal/semantic"
	"github.com/ekervik/kontoklar/internal/service"
	"github.com/ekervik/kontoklar/internal/storage"
	"github.com/ekervik/kontoklar/internal/training"
)

// initStorage opens the database from the loaded configuration and
// brings the schema current.
func initStorage(ctx context.Context, cfg config.Config) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openStore is initStorage for commands that need nothing from the
// configuration beyond the database path.
func openStore(ctx context.Context) (service.Storage, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func closeStore(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// loadClassifier loads the persisted model. Until the first training
// run there is nothing on disk and predictions just report no result.
func loadClassifier(cfg config.Config) *bayes.Classifier {
	classifier, err := bayes.LoadFrom(cfg.ModelPath)
	if err != nil {
		slog.Warn("Failed to load classifier model, starting untrained",
			"path", cfg.ModelPath, "error", err)
		return bayes.New()
	}
	return classifier
}

// buildTrainer wires the sample log, audit log and model persistence
// around the shared classifier instance.
func buildTrainer(cfg config.Config, classifier *bayes.Classifier) *training.Pipeline {
	return training.NewPipeline(
		training.NewSampleLog(cfg.TrainingDataPath),
		training.NewAuditLog(cfg.AuditLogPath),
		classifier,
		cfg.ModelPath,
		cfg.MinSamplesPerCategory,
		cfg.RetrainTrigger,
	)
}

// buildEngine assembles the classification waterfall: statistical
// model, semantic matcher, stored rules, then the default bucket. A
// missing or unreachable embedding endpoint only disables the semantic
// layer.
func buildEngine(ctx context.Context, store service.Storage, cfg config.Config) (*engine.Engine, error) {
	classifier := loadClassifier(cfg)
	trainer := buildTrainer(cfg, classifier)

	var provider service.EmbeddingProvider
	if cfg.EmbeddingURL != "" {
		client, err := embedding.NewClient(ctx, cfg.EmbeddingURL, cfg.EmbeddingTimeout)
		if err != nil {
			slog.Warn("Embedding provider unavailable, semantic matching disabled",
				"url", cfg.EmbeddingURL, "error", err)
		} else {
			provider = client
		}
	}

	examples, err := semantic.LoadExamples(cfg.SemanticExamplesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load semantic examples: %w", err)
	}
	matcher := semantic.NewMatcher(ctx, provider, examples, cfg.SemanticThreshold)

	ruleSet, err := store.GetRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	taxonomy, err := store.GetTaxonomy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load taxonomy: %w", err)
	}

	return engine.New(classifier, matcher, rules.NewMatcher(ruleSet), taxonomy, trainer, engine.Config{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		SemanticAutoAccept:  cfg.SemanticAutoAccept,
		RetrainTrigger:      cfg.RetrainTrigger,
	}), nil
}
