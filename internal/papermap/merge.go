package papermap

import (
	"github.com/zotatlas/zotatlas/internal/entry"
	"github.com/zotatlas/zotatlas/internal/s2"
)

func normalizeEntryDOI(doi string) string {
	return s2.NormalizeDOI(doi)
}

// CarryForward copies enrichment fields from the previous document
// into matching entries of the next one. Matching is by normalized
// DOI; entries without a DOI cannot carry anything forward. The
// reference cache moves over wholesale. Running it twice is a no-op.
func CarryForward(prev, next *entry.Document) {
	byDOI := make(map[string]*entry.Entry, len(prev.Papers))
	for i := range prev.Papers {
		if doi := normalizeEntryDOI(prev.Papers[i].DOI); doi != "" {
			byDOI[doi] = &prev.Papers[i]
		}
	}

	for i := range next.Papers {
		old, ok := byDOI[normalizeEntryDOI(next.Papers[i].DOI)]
		if !ok {
			continue
		}
		p := &next.Papers[i]
		if p.CitationCount == nil {
			p.CitationCount = old.CitationCount
		}
		if p.S2ID == "" {
			p.S2ID = old.S2ID
		}
		if p.References == nil {
			p.References = old.References
		}
		if p.Citations == nil {
			p.Citations = old.Citations
		}
	}

	if len(prev.ReferenceCache) > 0 {
		if next.ReferenceCache == nil {
			next.ReferenceCache = make(map[string]entry.CachedReference, len(prev.ReferenceCache))
		}
		for doi, ref := range prev.ReferenceCache {
			if _, ok := next.ReferenceCache[doi]; !ok {
				next.ReferenceCache[doi] = ref
			}
		}
	}
}

// Relink rebuilds the citation links from the entries' reference and
// citation graph-id lists, matched against each entry's own graph id.
// Links are directed (source cites target), resolved only between
// entries present in the document, deduplicated per directed pair, and
// never self-referential. Any previous link set is discarded.
func Relink(doc *entry.Document) {
	idByS2 := make(map[string]int, len(doc.Papers))
	for i := range doc.Papers {
		if s2id := doc.Papers[i].S2ID; s2id != "" {
			idByS2[s2id] = doc.Papers[i].ID
		}
	}

	type pair struct{ source, target int }
	seen := make(map[pair]bool)
	links := []entry.CitationLink{}

	add := func(source, target int) {
		if source == target {
			return
		}
		p := pair{source, target}
		if seen[p] {
			return
		}
		seen[p] = true
		links = append(links, entry.CitationLink{Source: source, Target: target})
	}

	for i := range doc.Papers {
		p := &doc.Papers[i]
		for _, s2id := range p.References {
			if target, ok := idByS2[s2id]; ok {
				add(p.ID, target)
			}
		}
		for _, s2id := range p.Citations {
			if source, ok := idByS2[s2id]; ok {
				add(source, p.ID)
			}
		}
	}

	doc.CitationLinks = links
}
