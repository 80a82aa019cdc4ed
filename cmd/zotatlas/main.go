// Package main provides the zotatlas CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zotatlas",
	Short: "Map a Zotero library as a 2-D semantic landscape",
	Long: `zotatlas turns a Zotero library into a clustered 2-D map.

Core pipeline:
  - Fetch items from the Zotero Web API or a JSON export
  - Embed title, abstract, and reading notes via Ollama
  - Reduce to 2-D, cluster, and label clusters by TF-IDF keywords
  - Persist a single JSON document with citation links carried forward

Enrichment pulls citation counts and reference lists from Semantic
Scholar; tag sync pushes cluster labels back into Zotero.

All commands output JSON by default. Use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env if present (for ZOTERO_API_KEY / S2_API_KEY)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
