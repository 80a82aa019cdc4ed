package papermap

import (
	"testing"

	"github.com/zotatlas/zotatlas/internal/entry"
)

func enrichedDoc() *entry.Document {
	count := 17
	return &entry.Document{
		Papers: []entry.Entry{
			{
				ID:            0,
				DOI:           "10.1145/1000",
				Title:         "Carried Paper",
				CitationCount: &count,
				S2ID:          "s2-carried",
				References:    []string{"s2-ref", "s2-external"},
				Citations:     []string{"s2-cite"},
			},
			{ID: 1, DOI: "10.1145/1001", Title: "Referenced Paper", S2ID: "s2-ref"},
			{ID: 2, DOI: "10.1145/1002", Title: "Citing Paper", S2ID: "s2-cite"},
		},
		ReferenceCache: map[string]entry.CachedReference{
			"s2-external": {Title: "External Work", Citations: 99},
		},
	}
}

func TestCarryForwardByDOI(t *testing.T) {
	prev := enrichedDoc()
	next := &entry.Document{
		Papers: []entry.Entry{
			// Rebuilt with different ids and order
			{ID: 0, DOI: "10.1145/1002", Title: "Citing Paper"},
			{ID: 1, DOI: "https://doi.org/10.1145/1000", Title: "Carried Paper"},
			{ID: 2, DOI: "10.1145/9999", Title: "Brand New Paper"},
		},
	}

	CarryForward(prev, next)

	carried := &next.Papers[1]
	if carried.CitationCount == nil || *carried.CitationCount != 17 {
		t.Errorf("CitationCount not carried: %+v", carried.CitationCount)
	}
	if carried.S2ID != "s2-carried" {
		t.Errorf("S2ID = %q", carried.S2ID)
	}
	if len(carried.References) != 2 {
		t.Errorf("References = %v", carried.References)
	}
	if next.Papers[2].CitationCount != nil || next.Papers[2].S2ID != "" {
		t.Errorf("new entry gained enrichment: %+v", next.Papers[2])
	}
	if next.ReferenceCache["s2-external"].Citations != 99 {
		t.Errorf("reference cache not carried: %+v", next.ReferenceCache)
	}
}

func TestCarryForwardIdempotent(t *testing.T) {
	prev := enrichedDoc()
	next := &entry.Document{
		Papers: []entry.Entry{{ID: 0, DOI: "10.1145/1000", Title: "Carried Paper"}},
	}
	CarryForward(prev, next)
	first := next.Papers[0]

	CarryForward(prev, next)
	second := next.Papers[0]

	if *first.CitationCount != *second.CitationCount || first.S2ID != second.S2ID {
		t.Errorf("second pass changed the entry: %+v vs %+v", first, second)
	}
	if len(second.References) != len(first.References) {
		t.Errorf("references changed on second pass")
	}
}

func TestRelink(t *testing.T) {
	doc := enrichedDoc()
	// Duplicate reference and a self citation must not produce links.
	doc.Papers[0].References = append(doc.Papers[0].References, "s2-ref", "s2-carried")

	Relink(doc)

	want := map[entry.CitationLink]bool{
		{Source: 0, Target: 1}: true, // 0 references 1
		{Source: 2, Target: 0}: true, // 2 cites 0
	}
	if len(doc.CitationLinks) != len(want) {
		t.Fatalf("links = %v, want %d links", doc.CitationLinks, len(want))
	}
	for _, l := range doc.CitationLinks {
		if !want[l] {
			t.Errorf("unexpected link %+v", l)
		}
	}
}

func TestRelinkResolvesEntriesWithoutDOI(t *testing.T) {
	doc := &entry.Document{
		Papers: []entry.Entry{
			{ID: 0, DOI: "10.1145/1000", S2ID: "s2-a", References: []string{"s2-nodoi"}},
			{ID: 1, Title: "Workshop Paper Without DOI", S2ID: "s2-nodoi"},
		},
	}

	Relink(doc)

	want := entry.CitationLink{Source: 0, Target: 1}
	if len(doc.CitationLinks) != 1 || doc.CitationLinks[0] != want {
		t.Errorf("links = %v, want [%+v]", doc.CitationLinks, want)
	}
}

func TestRelinkReplacesStaleLinks(t *testing.T) {
	doc := enrichedDoc()
	doc.CitationLinks = []entry.CitationLink{{Source: 1, Target: 2}}

	Relink(doc)

	for _, l := range doc.CitationLinks {
		if l.Source == 1 && l.Target == 2 {
			t.Errorf("stale link survived: %+v", l)
		}
	}
}
