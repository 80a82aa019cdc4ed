// Package label derives short human-readable cluster labels from
// term-frequency statistics over each cluster's member texts.
package label

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MaxFeatures caps the vocabulary size.
	MaxFeatures = 500

	// TopTerms is how many terms make up one label.
	TopTerms = 3

	// DistinctivenessExponent controls how hard terms shared across
	// clusters are suppressed: score is divided by count^exponent.
	// The squared variant suppresses common terms superlinearly; it is
	// a tunable, not a hard law.
	DistinctivenessExponent = 2
)

// tokenPattern accepts Hangul/Latin runs of at least 2 characters, so
// standalone punctuation and numerals never become terms.
var tokenPattern = regexp.MustCompile(`[\p{Hangul}a-zA-Z]{2,}`)

var hangulPattern = regexp.MustCompile(`\p{Hangul}`)

// StripParticles removes trailing Korean postpositions from Hangul
// tokens in text. A token is only stripped when at least 2 characters
// remain, so short meaningful words survive.
func StripParticles(text string) string {
	words := strings.Fields(text)
	out := make([]string, len(words))
	for i, word := range words {
		out[i] = stripWord(word)
	}
	return strings.Join(out, " ")
}

func stripWord(word string) string {
	if !hangulPattern.MatchString(word) {
		return word
	}
	for _, p := range particles {
		if strings.HasSuffix(word, p) {
			stripped := strings.TrimSuffix(word, p)
			if utf8.RuneCountInString(stripped) >= 2 {
				return stripped
			}
			return word
		}
	}
	return word
}

// tokenize lowercases, applies the token pattern, drops stop words and
// returns unigrams plus bigrams of the surviving token sequence.
func tokenize(doc string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(doc), -1)

	kept := raw[:0]
	for _, t := range raw {
		if !stopWords[t] {
			kept = append(kept, t)
		}
	}

	terms := make([]string, 0, len(kept)*2)
	terms = append(terms, kept...)
	for i := 0; i+1 < len(kept); i++ {
		terms = append(terms, kept[i]+" "+kept[i+1])
	}
	return terms
}

// Extract derives one label per cluster from the per-cluster document
// corpus (element i is the concatenated text of cluster i's members).
// Terms are scored by TF-IDF, penalized by how many clusters contain
// them, and the top TopTerms positive-score terms are comma-joined.
// Clusters with no surviving term get a synthetic "Cluster {id}" label.
func Extract(corpus []string) []string {
	k := len(corpus)

	docs := make([][]string, k)
	for i, text := range corpus {
		docs[i] = tokenize(StripParticles(text))
	}

	vocab := buildVocabulary(docs)
	tfidf := tfidfMatrix(docs, vocab, k)

	// How many clusters contain each term
	clusterCount := make([]int, len(vocab.terms))
	for t := range vocab.terms {
		for i := 0; i < k; i++ {
			if tfidf[i][t] > 0 {
				clusterCount[t]++
			}
		}
	}

	labels := make([]string, k)
	for i := 0; i < k; i++ {
		type scored struct {
			term     string
			adjusted float64
		}
		var candidates []scored
		for t, term := range vocab.terms {
			if tfidf[i][t] <= 0 {
				continue
			}
			count := clusterCount[t]
			if count < 1 {
				count = 1
			}
			penalty := 1 / math.Pow(float64(count), DistinctivenessExponent)
			candidates = append(candidates, scored{term: term, adjusted: tfidf[i][t] * penalty})
		}

		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].adjusted != candidates[b].adjusted {
				return candidates[a].adjusted > candidates[b].adjusted
			}
			return candidates[a].term < candidates[b].term
		})

		var top []string
		for _, c := range candidates {
			top = append(top, c.term)
			if len(top) == TopTerms {
				break
			}
		}

		if len(top) == 0 {
			labels[i] = fmt.Sprintf("Cluster %d", i)
		} else {
			labels[i] = strings.Join(top, ", ")
		}
	}
	return labels
}

type vocabulary struct {
	terms []string
	index map[string]int
}

// buildVocabulary keeps the MaxFeatures most frequent terms across the
// whole corpus; ties break alphabetically for determinism.
func buildVocabulary(docs [][]string) vocabulary {
	counts := make(map[string]int)
	for _, doc := range docs {
		for _, t := range doc {
			counts[t]++
		}
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(a, b int) bool {
		if counts[terms[a]] != counts[terms[b]] {
			return counts[terms[a]] > counts[terms[b]]
		}
		return terms[a] < terms[b]
	})
	if len(terms) > MaxFeatures {
		terms = terms[:MaxFeatures]
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}
	return vocabulary{terms: terms, index: index}
}

// tfidfMatrix computes smoothed TF-IDF rows with L2 normalization:
// idf = ln((1+n)/(1+df)) + 1.
func tfidfMatrix(docs [][]string, vocab vocabulary, n int) [][]float64 {
	df := make([]int, len(vocab.terms))
	tf := make([][]float64, n)

	for i, doc := range docs {
		tf[i] = make([]float64, len(vocab.terms))
		seen := make(map[int]bool)
		for _, t := range doc {
			if idx, ok := vocab.index[t]; ok {
				tf[i][idx]++
				if !seen[idx] {
					seen[idx] = true
					df[idx]++
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		norm := 0.0
		for t := range tf[i] {
			idf := math.Log(float64(1+n)/float64(1+df[t])) + 1
			tf[i][t] *= idf
			norm += tf[i][t] * tf[i][t]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for t := range tf[i] {
				tf[i][t] /= norm
			}
		}
	}
	return tf
}
