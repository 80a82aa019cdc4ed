package s2

import (
	"regexp"
	"strings"
)

// NormalizeDOI normalizes a DOI to a consistent format for comparison.
// It removes common URL prefixes (https://doi.org/, DOI:) and converts
// to lowercase.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}

var titleWordPattern = regexp.MustCompile(`[a-z0-9]+`)

// TitleSimilarity measures word overlap between two titles in [0, 1]:
// the size of the shared word set over the larger word set. Case and
// punctuation are ignored.
func TitleSimilarity(a, b string) float64 {
	wordsA := titleWords(a)
	wordsB := titleWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	shared := 0
	for w := range wordsA {
		if wordsB[w] {
			shared++
		}
	}

	larger := len(wordsA)
	if len(wordsB) > larger {
		larger = len(wordsB)
	}
	return float64(shared) / float64(larger)
}

func titleWords(title string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range titleWordPattern.FindAllString(strings.ToLower(title), -1) {
		words[w] = true
	}
	return words
}
