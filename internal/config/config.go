package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/ekervik/kontoklar/internal/common"
)

// Config carries every tunable the classification and reconciliation
// core reads. Thresholds are documented with their defaults; paths are
// expanded (~, $VAR) at load time.
type Config struct {
	DatabasePath         string
	ModelPath            string
	TrainingDataPath     string
	AuditLogPath         string
	SemanticExamplesPath string
	EmbeddingURL         string

	EmbeddingTimeout time.Duration

	ConfidenceThreshold float64 // AI acceptance, default 0.65
	SemanticThreshold   float64 // Semantic acceptance, default 0.75
	SemanticAutoAccept  float64 // Semantic review sub-threshold, default 0.85
	AcceptanceThreshold float64 // Reconciliation acceptance, default 0.7
	AmountTolerancePct  float64 // Reconciliation amount tolerance, default 5

	RetrainTrigger        int // Manual overrides before retraining, default 10
	MinSamplesPerCategory int // Per-category training floor, default 2
	DateToleranceDays     int // Reconciliation date window, default 7
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		DatabasePath:          "$HOME/.local/share/kontoklar/kontoklar.db",
		ModelPath:             "$HOME/.local/share/kontoklar/classifier.gob",
		TrainingDataPath:      "$HOME/.local/share/kontoklar/training_data.yaml",
		AuditLogPath:          "$HOME/.local/share/kontoklar/retraining_audit.yaml",
		SemanticExamplesPath:  "$HOME/.config/kontoklar/semantic_examples.yaml",
		EmbeddingURL:          "",
		EmbeddingTimeout:      10 * time.Second,
		ConfidenceThreshold:   0.65,
		SemanticThreshold:     0.75,
		SemanticAutoAccept:    0.85,
		AcceptanceThreshold:   0.7,
		AmountTolerancePct:    5,
		RetrainTrigger:        10,
		MinSamplesPerCategory: 2,
		DateToleranceDays:     7,
	}
}

// Load builds the configuration from Viper with the usual precedence:
// config file or KONTOKLAR_ environment variables first, defaults last.
func Load() (Config, error) {
	cfg := Default()

	if v := viper.GetString("database.path"); v != "" {
		cfg.DatabasePath = v
	}
	if v := viper.GetString("model.path"); v != "" {
		cfg.ModelPath = v
	}
	if v := viper.GetString("training.data_path"); v != "" {
		cfg.TrainingDataPath = v
	}
	if v := viper.GetString("training.audit_path"); v != "" {
		cfg.AuditLogPath = v
	}
	if v := viper.GetString("semantic.examples_path"); v != "" {
		cfg.SemanticExamplesPath = v
	}
	if v := viper.GetString("embedding.url"); v != "" {
		cfg.EmbeddingURL = v
	}
	if v := viper.GetDuration("embedding.timeout"); v > 0 {
		cfg.EmbeddingTimeout = v
	}
	if viper.IsSet("classification.confidence_threshold") {
		cfg.ConfidenceThreshold = viper.GetFloat64("classification.confidence_threshold")
	}
	if viper.IsSet("semantic.similarity_threshold") {
		cfg.SemanticThreshold = viper.GetFloat64("semantic.similarity_threshold")
	}
	if viper.IsSet("semantic.auto_accept_threshold") {
		cfg.SemanticAutoAccept = viper.GetFloat64("semantic.auto_accept_threshold")
	}
	if viper.IsSet("reconcile.acceptance_threshold") {
		cfg.AcceptanceThreshold = viper.GetFloat64("reconcile.acceptance_threshold")
	}
	if viper.IsSet("reconcile.amount_tolerance_percent") {
		cfg.AmountTolerancePct = viper.GetFloat64("reconcile.amount_tolerance_percent")
	}
	if viper.IsSet("training.retrain_trigger") {
		cfg.RetrainTrigger = viper.GetInt("training.retrain_trigger")
	}
	if viper.IsSet("training.min_samples_per_category") {
		cfg.MinSamplesPerCategory = viper.GetInt("training.min_samples_per_category")
	}
	if viper.IsSet("reconcile.date_tolerance_days") {
		cfg.DateToleranceDays = viper.GetInt("reconcile.date_tolerance_days")
	}

	cfg.DatabasePath = ExpandPath(cfg.DatabasePath)
	cfg.ModelPath = ExpandPath(cfg.ModelPath)
	cfg.TrainingDataPath = ExpandPath(cfg.TrainingDataPath)
	cfg.AuditLogPath = ExpandPath(cfg.AuditLogPath)
	cfg.SemanticExamplesPath = ExpandPath(cfg.SemanticExamplesPath)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks threshold ranges and counters.
func (c Config) Validate() error {
	inUnit := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1, got %v", common.ErrInvalidConfig, name, v)
		}
		return nil
	}
	if err := inUnit("classification.confidence_threshold", c.ConfidenceThreshold); err != nil {
		return err
	}
	if err := inUnit("semantic.similarity_threshold", c.SemanticThreshold); err != nil {
		return err
	}
	if err := inUnit("semantic.auto_accept_threshold", c.SemanticAutoAccept); err != nil {
		return err
	}
	if err := inUnit("reconcile.acceptance_threshold", c.AcceptanceThreshold); err != nil {
		return err
	}
	if c.AmountTolerancePct < 0 {
		return fmt.Errorf("%w: reconcile.amount_tolerance_percent cannot be negative", common.ErrInvalidConfig)
	}
	if c.RetrainTrigger < 1 {
		return fmt.Errorf("%w: training.retrain_trigger must be at least 1", common.ErrInvalidConfig)
	}
	if c.MinSamplesPerCategory < 1 {
		return fmt.Errorf("%w: training.min_samples_per_category must be at least 1", common.ErrInvalidConfig)
	}
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("%w: reconcile.date_tolerance_days cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}
