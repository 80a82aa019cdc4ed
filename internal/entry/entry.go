// Package entry defines the core domain types for library map entries.
package entry

// Entry represents one bibliographic item placed on the map.
//
// IDs are assigned by position in the current run and are not stable
// across rebuilds; ZoteroKey and DOI are the stable keys used to match
// entries against the source library and previously persisted state.
type Entry struct {
	// Identity
	ID        int    `json:"id"`
	ZoteroKey string `json:"zotero_key"`
	DOI       string `json:"doi"`

	// Metadata
	Title     string  `json:"title"`
	Year      *int    `json:"year"`
	Authors   string  `json:"authors"`
	Venue     string  `json:"venue"`      // Normalized abbreviation (e.g. "CHI 2024")
	VenueFull string  `json:"venue_full"` // Original venue text
	ItemType  string  `json:"item_type"`
	IsPaper   bool    `json:"is_paper"`
	URL       string  `json:"url"`
	PDFKey    string  `json:"pdf_key"`
	Abstract  string  `json:"abstract"`
	Tags      string  `json:"tags"` // Manual + auto tags, delimiter-joined

	// Derived scores
	VenueQuality float64 `json:"venue_quality"`

	// Notes (HTML-bearing; both forms retained)
	HasNotes  bool   `json:"has_notes"`
	NotesHTML string `json:"notes_html"`
	Notes     string `json:"notes"` // Plain text extracted from HTML

	// Map placement (recomputed every run)
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Cluster      int     `json:"cluster"`
	ClusterLabel string  `json:"cluster_label"`

	// Enrichment carry-forward fields (populated by the enrich step,
	// preserved verbatim across rebuilds via DOI matching). References
	// and Citations hold graph paper ids, matched against S2ID when
	// links are rebuilt.
	CitationCount *int     `json:"citation_count,omitempty"`
	S2ID          string   `json:"s2_id,omitempty"`
	References    []string `json:"references,omitempty"`
	Citations     []string `json:"citations,omitempty"`

	// Full embedding vector for semantic search in the front end
	Embedding []float32 `json:"embedding,omitempty"`
}

// Item is one raw record from the bibliographic source (Zotero API or a
// previously exported JSON file). Missing fields default to the zero
// value and never fail ingestion.
type Item struct {
	Key              string `json:"key"`
	ItemType         string `json:"item_type"`
	Title            string `json:"title"`
	Authors          string `json:"authors"`
	Abstract         string `json:"abstract"`
	PublicationTitle string `json:"publication_title"`
	ConferenceName   string `json:"conference_name"`
	ProceedingsTitle string `json:"proceedings_title"`
	Series           string `json:"series"`
	Date             string `json:"date"`
	PublicationYear  string `json:"publication_year"`
	DOI              string `json:"doi"`
	URL              string `json:"url"`
	ManualTags       string `json:"manual_tags"`
	Notes            string `json:"notes"` // HTML from Zotero note children
	PDFKey           string `json:"pdf_key"`
}

// VenueText returns the concatenated venue-bearing fields used for
// tier scoring and abbreviation.
func (it Item) VenueText() string {
	return joinNonEmpty(" ", it.PublicationTitle, it.ProceedingsTitle, it.ConferenceName, it.Series)
}

// PrimaryVenue returns the first non-empty venue field, mirroring the
// precedence used when displaying an entry.
func (it Item) PrimaryVenue() string {
	for _, v := range []string{it.PublicationTitle, it.ProceedingsTitle, it.ConferenceName} {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}

// paperTypes lists the item types counted as scholarly papers rather
// than apps or services.
var paperTypes = map[string]bool{
	"conferencePaper": true,
	"journalArticle":  true,
	"bookSection":     true,
	"preprint":        true,
	"book":            true,
}

// IsPaperType reports whether the item type denotes a scholarly paper.
func IsPaperType(itemType string) bool {
	return paperTypes[itemType]
}
