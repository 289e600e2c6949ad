package training

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ekervik/kontoklar/internal/model"
)

// AuditLog records every retraining run, successful or not.
type AuditLog struct {
	path string
}

// auditFile is the on-disk YAML document.
type auditFile struct {
	RetrainingRuns []model.RetrainReport `yaml:"retraining_runs"`
}

// NewAuditLog returns a log backed by the YAML document at path.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

// All returns every recorded run in append order. A missing file is an
// empty history, not an error.
func (l *AuditLog) All() ([]model.RetrainReport, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	var doc auditFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse audit log: %w", err)
	}
	return doc.RetrainingRuns, nil
}

// Append adds one report and rewrites the document.
func (l *AuditLog) Append(report model.RetrainReport) error {
	runs, err := l.All()
	if err != nil {
		return err
	}
	runs = append(runs, report)

	return writeYAML(l.path, auditFile{RetrainingRuns: runs})
}
