package model

// SemanticExample is one curated bucket of example phrases for a
// category/subcategory. Phrase embeddings are computed once per process
// at matcher construction, never persisted.
type SemanticExample struct {
	Category    string   `yaml:"category"`
	Subcategory string   `yaml:"subcategory"`
	Phrases     []string `yaml:"phrases"`
}
