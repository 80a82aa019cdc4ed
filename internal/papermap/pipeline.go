// Package papermap orchestrates the full mapping pipeline: ingest,
// scoring, embedding, layout, clustering, labeling, and the persisted
// document merge.
package papermap

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zotatlas/zotatlas/internal/cluster"
	"github.com/zotatlas/zotatlas/internal/embedding"
	"github.com/zotatlas/zotatlas/internal/entry"
	"github.com/zotatlas/zotatlas/internal/feature"
	"github.com/zotatlas/zotatlas/internal/label"
	"github.com/zotatlas/zotatlas/internal/layout"
	"github.com/zotatlas/zotatlas/internal/metascore"
	"github.com/zotatlas/zotatlas/internal/progress"
	"github.com/zotatlas/zotatlas/internal/textnorm"
)

const (
	// MinNotesLength is the plain-text length below which notes do not
	// count as real annotations.
	MinNotesLength = 50

	// Persisted field truncation budgets. Embedding always sees the
	// full text; these only bound the document size.
	abstractBudget  = 500
	notesHTMLBudget = 5000
	notesTextBudget = 2000

	// ReviewTag is appended to entries whose title marks them as a
	// review or survey.
	ReviewTag = "method-review"

	tagSeparator = "; "
)

// Options configures one pipeline run.
type Options struct {
	Strategy string  // embedding strategy name
	Reduce   string  // layout method name
	MinDist  float64 // umap-style minimum distance
	Clusters int     // fixed k, or 0 for silhouette auto-k
	Seed     int64   // 0 means the default seed
	All      bool    // keep entries without substantial notes

	// Recorded in the document meta
	Source      string
	LibraryID   string
	LibraryType string

	// DataUpdated overrides the document's data timestamp (RFC3339),
	// e.g. the modification time of an export file. Empty means the
	// data is as fresh as the build.
	DataUpdated string
}

// Builder runs the pipeline with a fixed provider and venue table.
type Builder struct {
	provider embedding.Provider
	venues   *metascore.VenueTable
	reporter progress.Reporter
	opts     Options
}

// NewBuilder assembles a pipeline. A nil reporter discards progress.
func NewBuilder(provider embedding.Provider, venues *metascore.VenueTable, reporter progress.Reporter, opts Options) *Builder {
	if reporter == nil {
		reporter = progress.Discard
	}
	if opts.Seed == 0 {
		opts.Seed = layout.DefaultSeed
	}
	return &Builder{
		provider: provider,
		venues:   venues,
		reporter: reporter,
		opts:     opts,
	}
}

// Build runs the pipeline over raw items and produces the next
// document. prev may be nil on the first run; when present, its
// enrichment fields and reference cache carry forward by DOI before
// citation links are rebuilt.
func (b *Builder) Build(ctx context.Context, items []entry.Item, prev *entry.Document) (*entry.Document, error) {
	items = Dedup(items)

	entries, sections := b.ingest(items)
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries left after filtering")
	}

	vectors, err := b.embedAll(ctx, entries, sections)
	if err != nil {
		return nil, err
	}

	X, err := feature.Compose(vectors, b.metaScores(entries))
	if err != nil {
		return nil, fmt.Errorf("composing features: %w", err)
	}

	b.reporter.OnProgress(0, 1, "reducing to 2-D")
	points, err := layout.Reduce(b.opts.Reduce, X, layout.Options{
		Seed:    b.opts.Seed,
		MinDist: b.opts.MinDist,
	})
	if err != nil {
		return nil, fmt.Errorf("reducing layout: %w", err)
	}

	b.reporter.OnProgress(0, 1, "clustering")
	var result *cluster.Result
	if b.opts.Clusters > 0 {
		result, err = cluster.KMeans(X, b.opts.Clusters, b.opts.Seed, cluster.DefaultRestarts)
	} else {
		result, err = cluster.AutoK(X, b.opts.Seed, cluster.DefaultRestarts)
	}
	if err != nil {
		return nil, fmt.Errorf("clustering: %w", err)
	}

	labels := b.clusterLabels(sections, result)

	for i := range entries {
		entries[i].X = points[i].X
		entries[i].Y = points[i].Y
		entries[i].Cluster = result.Labels[i]
		entries[i].ClusterLabel = labels[result.Labels[i]]
		entries[i].Embedding = vectors[i]
	}

	centroids := make(map[int]entry.Centroid, result.K)
	for c, p := range cluster.Centroids2D(points, result.Labels, result.K) {
		centroids[c] = entry.Centroid{X: p.X, Y: p.Y}
	}
	labelMap := make(map[int]string, result.K)
	for id, l := range labels {
		labelMap[id] = l
	}

	now := time.Now().UTC().Format(time.RFC3339)
	updated := b.opts.DataUpdated
	if updated == "" {
		updated = now
	}
	doc := &entry.Document{
		Papers:           entries,
		ClusterCentroids: centroids,
		ClusterLabels:    labelMap,
		CitationLinks:    []entry.CitationLink{},
		ReferenceCache:   map[string]entry.CachedReference{},
		Meta: entry.Meta{
			Source:      b.opts.Source,
			DataUpdated: updated,
			MapBuilt:    now,
			TotalPapers: countPapers(entries),
			TotalApps:   len(entries) - countPapers(entries),
			Clusters:    result.K,
			LibraryID:   b.opts.LibraryID,
			LibraryType: b.opts.LibraryType,
		},
	}

	if prev != nil {
		CarryForward(prev, doc)
	}
	Relink(doc)

	return doc, nil
}

// Dedup drops items repeating an earlier (title, DOI) pair, keeping
// the first occurrence. Matching is case-insensitive on the title.
func Dedup(items []entry.Item) []entry.Item {
	type key struct {
		title string
		doi   string
	}
	seen := make(map[key]bool, len(items))
	out := items[:0:0]
	for _, it := range items {
		k := key{
			title: strings.ToLower(strings.TrimSpace(it.Title)),
			doi:   strings.ToLower(strings.TrimSpace(it.DOI)),
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

// ingest converts raw items to entries, applying the notes filter,
// scoring, abbreviation, and auto tags. Sections are extracted from
// the untruncated item text.
func (b *Builder) ingest(items []entry.Item) ([]entry.Entry, []textnorm.Sections) {
	var entries []entry.Entry
	var sections []textnorm.Sections

	for _, it := range items {
		s := textnorm.Split(it)
		hasNotes := utf8.RuneCountInString(s.Notes) > MinNotesLength
		if !b.opts.All && !hasNotes {
			continue
		}

		e := entry.Entry{
			ID:           len(entries),
			ZoteroKey:    it.Key,
			DOI:          normalizeEntryDOI(it.DOI),
			Title:        it.Title,
			Year:         itemYear(it),
			Authors:      it.Authors,
			Venue:        b.venues.Abbreviate(it.PrimaryVenue()),
			VenueFull:    it.PrimaryVenue(),
			ItemType:     it.ItemType,
			IsPaper:      entry.IsPaperType(it.ItemType),
			URL:          it.URL,
			PDFKey:       it.PDFKey,
			Abstract:     textnorm.Truncate(s.Abstract, abstractBudget),
			Tags:         entryTags(it.ManualTags, it.Title),
			VenueQuality: b.venues.Score(it.VenueText()),
			HasNotes:     hasNotes,
			NotesHTML:    textnorm.Truncate(it.Notes, notesHTMLBudget),
			Notes:        textnorm.Truncate(s.Notes, notesTextBudget),
		}
		entries = append(entries, e)
		sections = append(sections, s)
	}
	return entries, sections
}

// entryTags joins manual tags with the review auto tag, added once.
func entryTags(manual, title string) string {
	tags := splitTags(manual)
	if metascore.IsReview(title) {
		present := false
		for _, t := range tags {
			if t == ReviewTag {
				present = true
				break
			}
		}
		if !present {
			tags = append(tags, ReviewTag)
		}
	}
	return strings.Join(tags, tagSeparator)
}

func splitTags(joined string) []string {
	var tags []string
	for _, t := range strings.Split(joined, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (b *Builder) embedAll(ctx context.Context, entries []entry.Entry, sections []textnorm.Sections) ([][]float32, error) {
	strategy, err := embedding.NewStrategy(b.opts.Strategy)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(entries))
	for i, s := range sections {
		vec, err := strategy.EmbedEntry(ctx, b.provider, s)
		if err != nil {
			return nil, fmt.Errorf("embedding %q: %w", entries[i].Title, err)
		}
		vectors[i] = vec
		b.reporter.OnProgress(i+1, len(entries), "embedding entries")
	}
	return vectors, nil
}

func (b *Builder) metaScores(entries []entry.Entry) []feature.Meta {
	years := make([]*int, len(entries))
	for i := range entries {
		years[i] = entries[i].Year
	}
	ages := metascore.Ages(years)

	meta := make([]feature.Meta, len(entries))
	for i := range entries {
		meta[i] = feature.Meta{
			VenueQuality: entries[i].VenueQuality,
			TypeScore:    metascore.TypeScore(entries[i].ItemType),
			Age:          ages[i],
		}
	}
	return meta
}

// clusterLabels builds the per-cluster corpus from the label text of
// each member and extracts one label per cluster.
func (b *Builder) clusterLabels(sections []textnorm.Sections, result *cluster.Result) []string {
	corpus := make([]string, result.K)
	for i, s := range sections {
		c := result.Labels[i]
		if corpus[c] != "" {
			corpus[c] += " "
		}
		corpus[c] += s.LabelText()
	}
	return label.Extract(corpus)
}

func countPapers(entries []entry.Entry) int {
	n := 0
	for i := range entries {
		if entries[i].IsPaper {
			n++
		}
	}
	return n
}

var yearInDate = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// itemYear prefers the explicit publication year and falls back to the
// first plausible year inside the free-form date field.
func itemYear(it entry.Item) *int {
	if y := metascore.ParseYear(it.PublicationYear); y != nil {
		return y
	}
	return metascore.ParseYear(yearInDate.FindString(it.Date))
}
