package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/deproductify/internal/config"
	"github.com/blackwell-systems/deproductify/internal/store"
)

var cacheClear bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear cached classifications",
	Long: `Semantic fallback answers are cached by a hash of the window and
on-screen text so the same screen is never classified twice. This command
shows how many are cached; --clear deletes them.`,
	RunE: runCache,
}

func init() {
	cacheCmd.Flags().BoolVar(&cacheClear, "clear", false, "Delete every cached classification")
	rootCmd.AddCommand(cacheCmd)
}

func runCache(cmd *cobra.Command, args []string) error {
	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	out := cmd.OutOrStdout()
	if cacheClear {
		removed, err := db.ClearClassifications()
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		if flagJSON {
			return json.NewEncoder(out).Encode(map[string]int64{"removed": removed})
		}
		fmt.Fprintf(out, "Removed %d cached classifications\n", removed)
		return nil
	}

	n, err := db.CountClassifications()
	if err != nil {
		return fmt.Errorf("counting cache: %w", err)
	}
	if flagJSON {
		return json.NewEncoder(out).Encode(map[string]int{"classifications": n})
	}
	fmt.Fprintf(out, "%d cached classifications in %s\n", n, config.DBPath())
	return nil
}
