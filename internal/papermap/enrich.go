package papermap

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/zotatlas/zotatlas/internal/entry"
	"github.com/zotatlas/zotatlas/internal/progress"
	"github.com/zotatlas/zotatlas/internal/s2"
)

// ReferenceCacheLimit bounds how many external references get a batch
// lookup, most-cited-from first.
const ReferenceCacheLimit = 500

// PaperLookup is the slice of the Semantic Scholar client the
// enrichment step needs.
type PaperLookup interface {
	GetPaperByDOI(ctx context.Context, doi string) (*s2.Paper, error)
	SearchByTitle(ctx context.Context, title string) (*s2.Paper, error)
	BatchPapers(ctx context.Context, ids []string) ([]s2.Paper, error)
}

// EnrichResult summarizes one enrichment pass.
type EnrichResult struct {
	Enriched   int `json:"enriched"`
	Skipped    int `json:"skipped"`
	Unresolved int `json:"unresolved"`
	Cached     int `json:"cached_references"`
}

// Enrich looks up each paper entry in Semantic Scholar and fills the
// enrichment fields in place. Entries that already carry a citation
// count are skipped unless verify is set. Lookup failures, including
// exhausted rate-limit retries, leave the entry unresolved rather than
// aborting the pass; only context cancellation stops it. After the
// per-entry sweep, the most frequently referenced external papers get
// a batch lookup into the reference cache and the citation links are
// rebuilt.
func Enrich(ctx context.Context, client PaperLookup, doc *entry.Document, verify bool, reporter progress.Reporter) (*EnrichResult, error) {
	if reporter == nil {
		reporter = progress.Discard
	}

	result := &EnrichResult{}
	for i := range doc.Papers {
		p := &doc.Papers[i]
		reporter.OnProgress(i+1, len(doc.Papers), "enriching entries")

		if !p.IsPaper {
			result.Skipped++
			continue
		}
		if p.CitationCount != nil && !verify {
			result.Skipped++
			continue
		}

		paper, err := lookup(ctx, client, p)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			// Rate-limit exhaustion and transient failures cost one
			// entry, not the pass
			result.Unresolved++
			continue
		}

		apply(p, paper)
		result.Enriched++
	}

	cached, err := cacheReferences(ctx, client, doc)
	if err != nil {
		return result, err
	}
	result.Cached = cached

	Relink(doc)
	return result, nil
}

// DOIExtractor recovers a DOI from a PDF file on disk.
type DOIExtractor func(path string) (string, error)

// BackfillDOIs fills empty entry DOIs from PDF attachments under the
// Zotero storage directory (storage/<pdf_key>/<file>.pdf), so lookup
// can resolve entries whose bibliographic record lacks one. Extraction
// failures skip the entry; title search still applies later.
func BackfillDOIs(doc *entry.Document, storageDir string, extract DOIExtractor, reporter progress.Reporter) int {
	if reporter == nil {
		reporter = progress.Discard
	}

	filled := 0
	for i := range doc.Papers {
		p := &doc.Papers[i]
		reporter.OnProgress(i+1, len(doc.Papers), "scanning attachments")

		if p.DOI != "" || p.PDFKey == "" {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(storageDir, p.PDFKey, "*.pdf"))
		if err != nil || len(matches) == 0 {
			continue
		}
		doi, err := extract(matches[0])
		if err != nil || doi == "" {
			continue
		}
		p.DOI = normalizeEntryDOI(doi)
		filled++
	}
	return filled
}

// lookup resolves an entry by DOI when present, otherwise by verified
// title search.
func lookup(ctx context.Context, client PaperLookup, p *entry.Entry) (*s2.Paper, error) {
	if p.DOI != "" {
		paper, err := client.GetPaperByDOI(ctx, p.DOI)
		if err == nil || !s2.IsNotFound(err) {
			return paper, err
		}
	}
	if p.Title == "" {
		return nil, s2.ErrNoMatch
	}
	return client.SearchByTitle(ctx, p.Title)
}

// apply fills the enrichment fields. References and citations are
// stored as graph paper ids so that works without a DOI still resolve
// into links; the DOI stays the carry-forward identity only.
func apply(p *entry.Entry, paper *s2.Paper) {
	p.S2ID = paper.PaperID
	p.CitationCount = paper.CitationCount
	if p.DOI == "" {
		p.DOI = paper.DOI()
	}

	p.References = refIDs(paper.References)
	p.Citations = refIDs(paper.Citations)
}

func refIDs(refs []s2.PaperRef) []string {
	out := []string{}
	for i := range refs {
		if refs[i].PaperID != "" {
			out = append(out, refs[i].PaperID)
		}
	}
	return out
}

// cacheReferences batch-fetches the external papers referenced most
// often across the library, newest cache entries overwriting stale
// counts.
func cacheReferences(ctx context.Context, client PaperLookup, doc *entry.Document) (int, error) {
	inLibrary := make(map[string]bool, len(doc.Papers))
	for i := range doc.Papers {
		if id := doc.Papers[i].S2ID; id != "" {
			inLibrary[id] = true
		}
	}

	counts := make(map[string]int)
	for i := range doc.Papers {
		for _, id := range doc.Papers[i].References {
			if id != "" && !inLibrary[id] {
				counts[id]++
			}
		}
	}
	if len(counts) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		if counts[ids[a]] != counts[ids[b]] {
			return counts[ids[a]] > counts[ids[b]]
		}
		return ids[a] < ids[b]
	})
	if len(ids) > ReferenceCacheLimit {
		ids = ids[:ReferenceCacheLimit]
	}

	papers, err := client.BatchPapers(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("caching references: %w", err)
	}

	if doc.ReferenceCache == nil {
		doc.ReferenceCache = make(map[string]entry.CachedReference, len(papers))
	}
	for i := range papers {
		if papers[i].PaperID == "" {
			continue
		}
		citations := 0
		if papers[i].CitationCount != nil {
			citations = *papers[i].CitationCount
		}
		doc.ReferenceCache[papers[i].PaperID] = entry.CachedReference{
			Title:     papers[i].Title,
			Citations: citations,
		}
	}
	return len(papers), nil
}
