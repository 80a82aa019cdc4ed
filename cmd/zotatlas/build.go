package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/zotatlas/zotatlas/internal/embedding"
	"github.com/zotatlas/zotatlas/internal/entry"
	"github.com/zotatlas/zotatlas/internal/layout"
	"github.com/zotatlas/zotatlas/internal/papermap"
	"github.com/zotatlas/zotatlas/internal/storage"
)

var (
	buildOutput    string
	buildSource    string
	buildInput     string
	buildStrategy  string
	buildClusters  int
	buildReduce    string
	buildMinDist   float64
	buildAll       bool
	buildNotesOnly bool
	buildNoCache   bool
	buildCachePath string
	noProgress     bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildOutput, "output", "papers.json", "Output document path")
	buildCmd.Flags().StringVar(&buildSource, "source", "api", "Item source: api or json")
	buildCmd.Flags().StringVar(&buildInput, "input", "items.json", "Items file for --source json")
	buildCmd.Flags().StringVar(&buildStrategy, "embedding", embedding.StrategyWeighted, "Embedding strategy: flat or weighted")
	buildCmd.Flags().IntVar(&buildClusters, "clusters", 0, "Cluster count, 0 for silhouette auto-k")
	buildCmd.Flags().StringVar(&buildReduce, "reduce", layout.MethodUMAP, "Layout method: umap, pca, or tsne")
	buildCmd.Flags().Float64Var(&buildMinDist, "min-dist", 0.3, "Minimum point spacing for umap layout")
	buildCmd.Flags().BoolVar(&buildAll, "all", false, "Keep entries without substantial notes")
	buildCmd.Flags().BoolVar(&buildNotesOnly, "notes-only", false, "Keep only entries with substantial notes (the default)")
	buildCmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "Disable the embedding cache")
	buildCmd.Flags().StringVar(&buildCachePath, "cache", "", "Embedding cache path (default: user cache dir)")
	buildCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the library map document",
	Long: `Build the full map document: fetch items, embed, lay out in 2-D,
cluster, label, and persist. Enrichment fields from a previous document
at the output path carry forward by DOI.

Requires Ollama with a multilingual embedding model. Pull the default:
  ollama pull paraphrase-multilingual`,
	RunE: runBuild,
}

// BuildResult is the response for the build command.
type BuildResult struct {
	Status          string  `json:"status"`
	Output          string  `json:"output"`
	Entries         int     `json:"entries"`
	Papers          int     `json:"papers"`
	Apps            int     `json:"apps"`
	Clusters        int     `json:"clusters"`
	Model           string  `json:"model"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	if buildAll && buildNotesOnly {
		exitWithError(ExitError, "--all and --notes-only are mutually exclusive")
	}

	cfg := mustLoadConfig()
	venues := mustVenueTable(cfg)
	reporter := progressReporter(noProgress)

	var source papermap.Source
	switch buildSource {
	case "api":
		source = mustZoteroClient(cfg)
	case "json":
		source = papermap.FileSource{Path: buildInput}
	default:
		exitWithError(ExitError, "unknown source %q, want api or json", buildSource)
	}

	items, err := source.FetchItems(ctx, reporter)
	if err != nil {
		exitWithError(ExitDataError, "fetching items: %v", err)
	}

	provider := mustOllamaProvider(ctx, cfg)
	embedder, closeCache := cachedProvider(provider)
	defer closeCache()

	opts := papermap.Options{
		Strategy:    buildStrategy,
		Reduce:      buildReduce,
		MinDist:     buildMinDist,
		Clusters:    buildClusters,
		All:         buildAll,
		Source:      buildSource,
		LibraryID:   cfg.ZoteroLibraryID,
		LibraryType: cfg.ZoteroLibraryType,
	}
	if buildSource == "json" {
		// The data is only as fresh as the export file
		if fi, err := os.Stat(buildInput); err == nil {
			opts.DataUpdated = fi.ModTime().UTC().Format(time.RFC3339)
		}
	}
	builder := papermap.NewBuilder(embedder, venues, reporter, opts)

	prev, err := entry.LoadDocument(buildOutput)
	if err != nil && !errors.Is(err, entry.ErrDocumentNotFound) {
		exitWithError(ExitDataError, "loading previous document: %v", err)
	}

	doc, err := builder.Build(ctx, items, prev)
	if err != nil {
		exitWithError(ExitError, "building map: %v", err)
	}
	if err := doc.Validate(); err != nil {
		exitWithError(ExitDataError, "built document failed validation: %v", err)
	}
	if err := entry.WriteDocument(buildOutput, doc); err != nil {
		exitWithError(ExitError, "writing document: %v", err)
	}

	result := BuildResult{
		Status:          "complete",
		Output:          buildOutput,
		Entries:         len(doc.Papers),
		Papers:          doc.Meta.TotalPapers,
		Apps:            doc.Meta.TotalApps,
		Clusters:        doc.Meta.Clusters,
		Model:           provider.ModelName(),
		DurationSeconds: time.Since(start).Seconds(),
	}
	if humanOutput {
		outputHuman("Map built: %s\n  Entries: %d (%d papers, %d apps)\n  Clusters: %d\n  Time: %s\n",
			result.Output, result.Entries, result.Papers, result.Apps,
			result.Clusters, formatDuration(time.Since(start)))
		return nil
	}
	return outputJSON(result)
}

// cachedProvider wraps the provider with the sqlite vector cache
// unless caching is disabled. The returned func closes the cache.
func cachedProvider(provider embedding.Provider) (embedding.Provider, func()) {
	if buildNoCache {
		return provider, func() {}
	}

	path := buildCachePath
	if path == "" {
		path = defaultCachePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: embedding cache disabled: %v\n", err)
		return provider, func() {}
	}
	cache, err := storage.OpenVectorCache(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: embedding cache disabled: %v\n", err)
		return provider, func() {}
	}
	return embedding.NewCachedProvider(provider, cache), func() { cache.Close() }
}
