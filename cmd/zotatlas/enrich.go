package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/zotatlas/zotatlas/internal/entry"
	"github.com/zotatlas/zotatlas/internal/papermap"
	"github.com/zotatlas/zotatlas/internal/pdfdoi"
)

var (
	enrichMapPath string
	enrichVerify  bool
	enrichStorage string
)

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.Flags().StringVar(&enrichMapPath, "map", "papers.json", "Map document path")
	enrichCmd.Flags().BoolVar(&enrichVerify, "verify", false, "Re-fetch entries that are already enriched")
	enrichCmd.Flags().StringVar(&enrichStorage, "storage", "", "Zotero storage dir for DOI backfill from PDFs")
	enrichCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich entries with Semantic Scholar citation data",
	Long: `Look up each paper in Semantic Scholar by DOI (falling back to a
verified title search), fill citation counts and reference lists, cache
the most-referenced external papers, and rebuild the citation links.

With --storage pointing at the Zotero storage directory, entries
lacking a DOI first get one scanned out of their PDF attachment.

Already-enriched entries are skipped unless --verify is set. Requests
are rate limited; an S2 API key in config raises the budget.`,
	RunE: runEnrich,
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	doc, err := entry.LoadDocument(enrichMapPath)
	if err != nil {
		if errors.Is(err, entry.ErrDocumentNotFound) {
			exitWithError(ExitDataError, "no map document at %s, run 'zotatlas build' first", enrichMapPath)
		}
		exitWithError(ExitDataError, "loading document: %v", err)
	}

	if enrichStorage != "" {
		filled := papermap.BackfillDOIs(doc, enrichStorage, pdfdoi.ExtractDOI, progressReporter(noProgress))
		if humanOutput && filled > 0 {
			outputHuman("Backfilled %d DOIs from PDF attachments\n", filled)
		}
	}

	client := newS2Client(cfg)
	result, err := papermap.Enrich(ctx, client, doc, enrichVerify, progressReporter(noProgress))
	if err != nil {
		exitWithError(ExitError, "enriching: %v", err)
	}

	if err := entry.WriteDocument(enrichMapPath, doc); err != nil {
		exitWithError(ExitError, "writing document: %v", err)
	}

	if humanOutput {
		outputHuman("Enrichment complete:\n  Enriched: %d\n  Skipped: %d\n  Unresolved: %d\n  Cached references: %d\n",
			result.Enriched, result.Skipped, result.Unresolved, result.Cached)
		return nil
	}
	return outputJSON(result)
}
