package papermap

import (
	"context"
	"fmt"
	"strings"

	"github.com/zotatlas/zotatlas/internal/entry"
	"github.com/zotatlas/zotatlas/internal/progress"
)

// DefaultTagPrefix marks the tags this tool owns in Zotero.
const DefaultTagPrefix = "cluster:"

// TagWriter is the slice of the Zotero client tag sync needs.
type TagWriter interface {
	AddTags(ctx context.Context, key string, tags []string) error
	SetTags(ctx context.Context, key string, tags []string) error
}

// TagSyncOptions configures a tag sync pass.
type TagSyncOptions struct {
	Prefix string // defaults to DefaultTagPrefix
	DryRun bool   // report planned writes without issuing them
	Remove bool   // replace stale prefixed tags instead of only adding
}

// TagSyncResult summarizes a tag sync pass.
type TagSyncResult struct {
	Planned []PlannedTag `json:"planned,omitempty"`
	Updated int          `json:"updated"`
	Skipped int          `json:"skipped"`
}

// PlannedTag is one write a dry run would have issued.
type PlannedTag struct {
	ZoteroKey string `json:"zotero_key"`
	Tag       string `json:"tag"`
}

// SyncTags pushes each entry's cluster label to Zotero as a prefixed
// tag. In add mode existing tags are preserved; in remove mode stale
// prefixed tags are dropped and replaced. Entries without a Zotero key
// or cluster label are skipped.
func SyncTags(ctx context.Context, w TagWriter, doc *entry.Document, opts TagSyncOptions, reporter progress.Reporter) (*TagSyncResult, error) {
	if reporter == nil {
		reporter = progress.Discard
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultTagPrefix
	}

	result := &TagSyncResult{}
	for i := range doc.Papers {
		p := &doc.Papers[i]
		reporter.OnProgress(i+1, len(doc.Papers), "syncing tags")

		if p.ZoteroKey == "" || p.ClusterLabel == "" {
			result.Skipped++
			continue
		}
		tag := prefix + p.ClusterLabel

		if opts.DryRun {
			result.Planned = append(result.Planned, PlannedTag{ZoteroKey: p.ZoteroKey, Tag: tag})
			continue
		}

		var err error
		if opts.Remove {
			err = w.SetTags(ctx, p.ZoteroKey, replacePrefixed(p.Tags, prefix, tag))
		} else {
			err = w.AddTags(ctx, p.ZoteroKey, []string{tag})
		}
		if err != nil {
			return result, fmt.Errorf("syncing tags on %s: %w", p.ZoteroKey, err)
		}
		result.Updated++
	}
	return result, nil
}

// replacePrefixed keeps the entry's unprefixed tags and appends the
// new prefixed tag in place of any stale ones.
func replacePrefixed(joined, prefix, tag string) []string {
	tags := []string{}
	for _, t := range splitTags(joined) {
		if !strings.HasPrefix(t, prefix) {
			tags = append(tags, t)
		}
	}
	return append(tags, tag)
}
