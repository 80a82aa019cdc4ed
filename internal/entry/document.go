package entry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrDocumentNotFound is returned when no persisted document exists yet.
var ErrDocumentNotFound = errors.New("map document not found")

// Centroid is the mean 2-D position of a cluster's members.
type Centroid struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CitationLink is a directed edge meaning source cites target. Both ids
// are current-run entry ids; links are rebuilt from scratch on every run.
type CitationLink struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// CachedReference holds enrichment data for an external paper that is
// referenced from the library but not part of it.
type CachedReference struct {
	Title     string `json:"title"`
	Citations int    `json:"citations"`
}

// Meta records provenance for one build of the document.
type Meta struct {
	Source      string `json:"source"`
	DataUpdated string `json:"data_updated"`
	MapBuilt    string `json:"map_built"`
	TotalPapers int    `json:"total_papers"`
	TotalApps   int    `json:"total_apps"`
	Clusters    int    `json:"clusters"`
	LibraryID   string `json:"zotero_library_id,omitempty"`
	LibraryType string `json:"zotero_library_type,omitempty"`
}

// Document is the persisted map artifact consumed by the front end.
// It is fully rewritten after each successful pipeline run; enrichment
// fields inside Papers and the ReferenceCache are carried forward.
type Document struct {
	Papers           []Entry                    `json:"papers"`
	ClusterCentroids map[int]Centroid           `json:"cluster_centroids"`
	ClusterLabels    map[int]string             `json:"cluster_labels"`
	CitationLinks    []CitationLink             `json:"citation_links"`
	ReferenceCache   map[string]CachedReference `json:"reference_cache"`
	Meta             Meta                       `json:"meta"`
}

// LoadDocument reads a persisted document from path. Early revisions of
// the format stored a bare array of entries; that degenerate shape is
// still accepted and wrapped as Papers. A missing file returns
// ErrDocumentNotFound.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("reading document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err == nil && doc.Papers != nil {
		return &doc, nil
	}

	// Fall back to the bare-list format
	var papers []Entry
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &Document{Papers: papers}, nil
}

// WriteDocument persists the document to path. The write goes through a
// temp file and rename so a failed run never leaves a truncated document.
func WriteDocument(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Validate checks the internal consistency the front end depends on:
// every entry has a cluster id covered by the label and centroid maps,
// and embeddings (when present) share one dimensionality.
func (doc *Document) Validate() error {
	dims := 0
	for i := range doc.Papers {
		p := &doc.Papers[i]
		if p.Cluster < 0 || p.Cluster >= doc.Meta.Clusters {
			return fmt.Errorf("entry %d: cluster %d out of range [0,%d)", p.ID, p.Cluster, doc.Meta.Clusters)
		}
		if len(p.Embedding) > 0 {
			if dims == 0 {
				dims = len(p.Embedding)
			} else if len(p.Embedding) != dims {
				return fmt.Errorf("entry %d: embedding length %d, want %d", p.ID, len(p.Embedding), dims)
			}
		}
	}
	for _, l := range doc.CitationLinks {
		if l.Source == l.Target {
			return fmt.Errorf("self citation link on entry %d", l.Source)
		}
	}
	return nil
}
