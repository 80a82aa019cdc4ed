package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zotatlas/zotatlas/internal/config"
	"github.com/zotatlas/zotatlas/internal/embedding"
	"github.com/zotatlas/zotatlas/internal/metascore"
	"github.com/zotatlas/zotatlas/internal/progress"
	"github.com/zotatlas/zotatlas/internal/s2"
	"github.com/zotatlas/zotatlas/internal/zotero"
)

// mustLoadConfig loads the global config, exiting on parse errors.
func mustLoadConfig() *config.GlobalConfig {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustZoteroClient builds a Zotero client from config, exiting with a
// setup hint when the library is not configured.
func mustZoteroClient(cfg *config.GlobalConfig) *zotero.Client {
	if cfg.ZoteroLibraryID == "" || cfg.ZoteroAPIKey == "" {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	client, err := zotero.NewClient(cfg.ZoteroLibraryID, cfg.ZoteroLibraryType, cfg.ZoteroAPIKey)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return client
}

// newS2Client builds a Semantic Scholar client, authenticated when a
// key is configured.
func newS2Client(cfg *config.GlobalConfig) *s2.Client {
	var opts []s2.ClientOption
	if cfg.S2APIKey != "" {
		opts = append(opts, s2.WithAPIKey(cfg.S2APIKey))
	}
	return s2.NewClient(opts...)
}

// mustOllamaProvider builds the embedding provider and validates that
// the service and model are reachable before the pipeline starts.
func mustOllamaProvider(ctx context.Context, cfg *config.GlobalConfig) *embedding.OllamaProvider {
	var opts []embedding.OllamaOption
	if cfg.OllamaURL != "" {
		opts = append(opts, embedding.WithBaseURL(cfg.OllamaURL))
	}
	if cfg.EmbeddingModel != "" {
		opts = append(opts, embedding.WithModel(cfg.EmbeddingModel, 0))
	}
	provider := embedding.NewOllamaProvider(opts...)

	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitOllamaUnavailable, "Ollama is not reachable: %v\nStart it with: ollama serve", err)
	}
	ok, err := provider.HasModel(ctx)
	if err != nil {
		exitWithError(ExitOllamaUnavailable, "checking Ollama models: %v", err)
	}
	if !ok {
		exitWithError(ExitModelNotFound, "model %q not found\nPull it with: ollama pull %s", provider.ModelName(), provider.ModelName())
	}
	return provider
}

// mustVenueTable loads the venue tier table, preferring an override
// file from config over the embedded default.
func mustVenueTable(cfg *config.GlobalConfig) *metascore.VenueTable {
	if cfg.VenueTablePath != "" {
		data, err := os.ReadFile(cfg.VenueTablePath)
		if err != nil {
			exitWithError(ExitConfigError, "reading venue table: %v", err)
		}
		table, err := metascore.ParseVenueTable(data)
		if err != nil {
			exitWithError(ExitConfigError, "parsing venue table %s: %v", cfg.VenueTablePath, err)
		}
		return table
	}
	table, err := metascore.DefaultVenueTable()
	if err != nil {
		exitWithError(ExitError, "loading venue table: %v", err)
	}
	return table
}

// defaultCachePath places the vector cache under the user cache dir.
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "vectors.db"
	}
	return filepath.Join(dir, "zotatlas", "vectors.db")
}

// progressReporter streams progress to stderr in human mode and stays
// quiet otherwise, keeping stdout clean for JSON.
func progressReporter(quiet bool) progress.Reporter {
	if quiet || !humanOutput {
		return progress.Discard
	}
	return progress.Func(func(current, total int, message string) {
		fmt.Fprintf(os.Stderr, "\r%-28s %d/%d", message, current, total)
		if current >= total {
			fmt.Fprintln(os.Stderr)
		}
	})
}
