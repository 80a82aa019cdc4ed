package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/zotatlas/zotatlas/internal/entry"
	"github.com/zotatlas/zotatlas/internal/papermap"
)

var (
	syncMapPath string
	syncPrefix  string
	syncDryRun  bool
	syncRemove  bool
)

func init() {
	rootCmd.AddCommand(syncTagsCmd)
	syncTagsCmd.Flags().StringVar(&syncMapPath, "map", "papers.json", "Map document path")
	syncTagsCmd.Flags().StringVar(&syncPrefix, "prefix", papermap.DefaultTagPrefix, "Prefix marking cluster tags")
	syncTagsCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Report planned writes without issuing them")
	syncTagsCmd.Flags().BoolVar(&syncRemove, "remove", false, "Replace stale prefixed tags instead of only adding")
	syncTagsCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
}

var syncTagsCmd = &cobra.Command{
	Use:   "sync-tags",
	Short: "Push cluster labels to Zotero as tags",
	Long: `Write each entry's cluster label into Zotero as a prefixed tag
(default "cluster:"). Existing tags are preserved; with --remove, stale
prefixed tags from earlier runs are replaced.`,
	RunE: runSyncTags,
}

func runSyncTags(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	doc, err := entry.LoadDocument(syncMapPath)
	if err != nil {
		if errors.Is(err, entry.ErrDocumentNotFound) {
			exitWithError(ExitDataError, "no map document at %s, run 'zotatlas build' first", syncMapPath)
		}
		exitWithError(ExitDataError, "loading document: %v", err)
	}

	client := mustZoteroClient(cfg)
	result, err := papermap.SyncTags(ctx, client, doc, papermap.TagSyncOptions{
		Prefix: syncPrefix,
		DryRun: syncDryRun,
		Remove: syncRemove,
	}, progressReporter(noProgress))
	if err != nil {
		exitWithError(ExitError, "syncing tags: %v", err)
	}

	if humanOutput {
		if syncDryRun {
			outputHuman("Dry run: %d tag writes planned\n", len(result.Planned))
			for _, p := range result.Planned {
				outputHuman("  %s <- %s\n", p.ZoteroKey, p.Tag)
			}
			return nil
		}
		outputHuman("Tags synced:\n  Updated: %d\n  Skipped: %d\n", result.Updated, result.Skipped)
		return nil
	}
	return outputJSON(result)
}
