package papermap

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/zotatlas/zotatlas/internal/entry"
	"github.com/zotatlas/zotatlas/internal/progress"
)

// Source yields the raw library items the pipeline starts from.
type Source interface {
	FetchItems(ctx context.Context, reporter progress.Reporter) ([]entry.Item, error)
}

// FileSource reads items from a previously exported JSON array.
type FileSource struct {
	Path string
}

// FetchItems implements Source.
func (s FileSource) FetchItems(ctx context.Context, reporter progress.Reporter) ([]entry.Item, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading items file: %w", err)
	}
	var items []entry.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing items file %s: %w", s.Path, err)
	}
	if reporter != nil {
		reporter.OnProgress(len(items), len(items), "loaded items from file")
	}
	return items, nil
}
