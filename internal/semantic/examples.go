package semantic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ekervik/kontoklar/internal/model"
)

// examplesFile is the on-disk document wrapping the curated sets.
type examplesFile struct {
	SemanticExamples []model.SemanticExample `yaml:"semantic_examples"`
}

// LoadExamples reads the curated example phrases. A missing file is not
// an error: the matcher just has nothing to match against.
func LoadExamples(path string) ([]model.SemanticExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read semantic examples: %w", err)
	}

	var doc examplesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse semantic examples: %w", err)
	}
	return doc.SemanticExamples, nil
}
