// Package bayes implements the trainable statistical classifier: a
// TF-IDF weighted naive Bayes model over unigram and bigram features,
// with gob persistence so predictions survive process restarts.
package bayes

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// vocabularyLimit caps the feature vocabulary for bounded memory use
// regardless of corpus size.
const vocabularyLimit = 500

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Features lowercases text and extracts unigram and adjacent-bigram
// terms. Tokens shorter than two runes are dropped.
func Features(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		tokens = append(tokens, w)
	}

	features := make([]string, 0, 2*len(tokens))
	features = append(features, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		features = append(features, tokens[i]+" "+tokens[i+1])
	}
	return features
}

// buildVocabulary selects the most frequent terms across the corpus,
// capped at limit. Ties are broken alphabetically so training is
// deterministic for a given corpus.
func buildVocabulary(docs [][]string, limit int) map[string]bool {
	counts := make(map[string]int)
	for _, doc := range docs {
		for _, term := range doc {
			counts[term]++
		}
	}

	vocab := make(map[string]bool, len(counts))
	if len(counts) <= limit {
		for term := range counts {
			vocab[term] = true
		}
		return vocab
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	for _, term := range terms[:limit] {
		vocab[term] = true
	}
	return vocab
}

// filterToVocabulary drops terms outside the trained vocabulary.
func filterToVocabulary(terms []string, vocab map[string]bool) []string {
	kept := make([]string, 0, len(terms))
	for _, t := range terms {
		if vocab[t] {
			kept = append(kept, t)
		}
	}
	return kept
}
