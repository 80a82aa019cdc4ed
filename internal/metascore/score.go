package metascore

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ReferenceYear is the fixed year ages are computed against. Updated
// when the corpus rolls over, not derived from the clock, so scores are
// reproducible.
const ReferenceYear = 2025

// typeScores maps item types to their weight. Unknown or missing types
// fall back to the middle weight.
var typeScores = map[string]float64{
	"journalArticle":  3,
	"conferencePaper": 3,
	"bookSection":     2,
	"preprint":        2,
	"book":            2,
	"webpage":         1,
	"blogPost":        1,
}

// DefaultTypeScore is used for unknown or missing item types.
const DefaultTypeScore = 2

// TypeScore returns the item-type weight.
func TypeScore(itemType string) float64 {
	if s, ok := typeScores[itemType]; ok {
		return s
	}
	return DefaultTypeScore
}

// ParseYear parses a numeric-like publication year, accepting values in
// (1900, ReferenceYear]. Everything else is unparseable and returns nil
// rather than an error; the caller imputes the batch median.
func ParseYear(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	year := int(f)
	if year <= 1900 || year > ReferenceYear {
		return nil
	}
	return &year
}

// Ages converts parsed years to ages against ReferenceYear, imputing
// missing years with the median age of the batch. The median is
// computed once over the known ages; a batch with no known year at all
// gets zero ages.
func Ages(years []*int) []float64 {
	var known []float64
	for _, y := range years {
		if y != nil {
			known = append(known, float64(ReferenceYear-*y))
		}
	}

	median := 0.0
	if len(known) > 0 {
		sort.Float64s(known)
		mid := len(known) / 2
		if len(known)%2 == 1 {
			median = known[mid]
		} else {
			median = (known[mid-1] + known[mid]) / 2
		}
	}

	ages := make([]float64, len(years))
	for i, y := range years {
		if y != nil {
			ages[i] = float64(ReferenceYear - *y)
		} else {
			ages[i] = median
		}
	}
	return ages
}

// reviewTitlePatterns detect review/survey papers from the title alone.
// Abstract-based detection produced too many false positives.
var reviewTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\ba\s+review\b`),
	regexp.MustCompile(`\breview\s+of\b`),
	regexp.MustCompile(`\bliterature\s+review\b`),
	regexp.MustCompile(`\bsystematic\s+review\b`),
	regexp.MustCompile(`\bscoping\s+review\b`),
	regexp.MustCompile(`\bmeta[-\s]?analysis\b`),
	regexp.MustCompile(`\bsurvey\s+of\b`),
	regexp.MustCompile(`\ba\s+survey\b`),
	regexp.MustCompile(`\bstate[-\s]of[-\s]the[-\s]art\b`),
	regexp.MustCompile(`:\s*a\s+review\b`),
	regexp.MustCompile(`:\s*review\s+and\b`),
}

// IsReview reports whether the title marks the entry as a review or
// survey paper, driving the method-review auto tag.
func IsReview(title string) bool {
	if title == "" {
		return false
	}
	lower := strings.ToLower(title)
	for _, p := range reviewTitlePatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}
