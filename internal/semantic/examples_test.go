package semantic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semantic_examples.yaml")
	doc := `semantic_examples:
  - category: Housing
    subcategory: Rent
    phrases:
      - hyra betalning
      - monthly rent
  - category: Transport
    subcategory: Fuel
    phrases:
      - shell tankning
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	examples, err := LoadExamples(path)
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, "Housing", examples[0].Category)
	assert.Equal(t, []string{"hyra betalning", "monthly rent"}, examples[0].Phrases)
	assert.Equal(t, "Fuel", examples[1].Subcategory)
}

func TestLoadExamples_MissingFile(t *testing.T) {
	examples, err := LoadExamples(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Empty(t, examples)
}

func TestLoadExamples_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semantic_examples.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	_, err := LoadExamples(path)
	assert.Error(t, err)
}
