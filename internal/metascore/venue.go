// Package metascore derives numeric quality signals from entry metadata:
// venue tier, item-type weight and publication age.
package metascore

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Venue tier scores. The tables themselves are data (venues.yml), not
// control flow, so they can be extended without touching code.
const (
	Tier1Score   = 5.0
	Tier2Score   = 4.0
	Tier3Score   = 3.0
	DefaultScore = 2.5
)

//go:embed venues.yml
var defaultVenueYAML []byte

// AbbrevRule maps a venue-name pattern to its short form. Rule order
// matters: EA/Adjunct/Companion patterns precede the main venues.
type AbbrevRule struct {
	Pattern string `yaml:"pattern"`
	Abbrev  string `yaml:"abbrev"`
}

// VenueTable holds the tiered venue keyword lists and the ordered
// abbreviation rules.
type VenueTable struct {
	Tier1         []string     `yaml:"tier1"`
	Tier2         []string     `yaml:"tier2"`
	Tier3         []string     `yaml:"tier3"`
	Tier1Catchall []string     `yaml:"tier1_catchall"`
	Abbreviations []AbbrevRule `yaml:"abbreviations"`

	compiled []compiledAbbrev
}

type compiledAbbrev struct {
	re     *regexp.Regexp
	abbrev string
}

// DefaultVenueTable parses the embedded venue tables.
func DefaultVenueTable() (*VenueTable, error) {
	return ParseVenueTable(defaultVenueYAML)
}

// ParseVenueTable parses venue tables from yaml, compiling the
// abbreviation patterns in declared order.
func ParseVenueTable(data []byte) (*VenueTable, error) {
	var t VenueTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing venue table: %w", err)
	}
	for _, rule := range t.Abbreviations {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling venue pattern %q: %w", rule.Pattern, err)
		}
		t.compiled = append(t.compiled, compiledAbbrev{re: re, abbrev: rule.Abbrev})
	}
	return &t, nil
}

// Score computes the venue quality score for the combined venue text.
// Tier 3 exclusion markers are checked first so an extended-abstract
// variant of a top venue never scores as tier 1. The tier-1 catch-all
// runs last, after the explicit lists.
func (t *VenueTable) Score(venueText string) float64 {
	text := strings.ToLower(venueText)

	for _, kw := range t.Tier3 {
		if strings.Contains(text, kw) {
			return Tier3Score
		}
	}
	for _, kw := range t.Tier1 {
		if strings.Contains(text, kw) {
			return Tier1Score
		}
	}
	for _, kw := range t.Tier2 {
		if strings.Contains(text, kw) {
			return Tier2Score
		}
	}
	for _, kw := range t.Tier1Catchall {
		if strings.Contains(text, kw) {
			return Tier1Score
		}
	}
	return DefaultScore
}

var (
	venueYearPattern  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	proceedingsPrefix = regexp.MustCompile(`(?i)^proceedings of (the )?(\d+(st|nd|rd|th)\s+)?(annual\s+)?(acm\s+)?(international\s+)?`)
)

// Abbreviate converts a long venue name to its short form, appending
// the year when the name carries one. Unmatched venues come back as-is,
// with the proceedings boilerplate stripped and truncated past 50 chars.
func (t *VenueTable) Abbreviate(venue string) string {
	if venue == "" {
		return ""
	}

	lower := strings.ToLower(venue)
	year := venueYearPattern.FindString(venue)

	for _, c := range t.compiled {
		if c.re.MatchString(lower) {
			if year != "" {
				return c.abbrev + " " + year
			}
			return c.abbrev
		}
	}

	if len(venue) > 50 {
		venue = proceedingsPrefix.ReplaceAllString(venue, "")
		if len(venue) > 50 {
			venue = venue[:47] + "..."
		}
	}
	return venue
}
