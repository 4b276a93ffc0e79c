package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/deproductify/internal/config"
	"github.com/blackwell-systems/deproductify/internal/output"
	"github.com/blackwell-systems/deproductify/internal/store"
)

var (
	historyDays  int
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past monitoring sessions",
	Long: `List recent monitoring sessions with how many times each one
activated and how many advisories it raised.

Examples:
  deproductify history            # last 7 days
  deproductify history --days 30
  deproductify history --json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyDays, "days", 7, "How many days back to list")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum number of sessions (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

// historyOutput is the JSON-serializable result of the history command.
type historyOutput struct {
	Days        int                    `json:"days"`
	Sessions    []store.SessionSummary `json:"sessions"`
	Activations int                    `json:"activations"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyDays <= 0 {
		return fmt.Errorf("--days must be positive, got %d", historyDays)
	}
	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return renderHistory(cmd.OutOrStdout(), db, time.Now(), historyDays, historyLimit, flagJSON)
}

func renderHistory(w io.Writer, db *store.DB, now time.Time, days, limit int, asJSON bool) error {
	since := now.AddDate(0, 0, -days)
	sessions, err := db.ListSessions(since, limit)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	total := 0
	for _, s := range sessions {
		total += s.Activations
	}

	if asJSON {
		if sessions == nil {
			sessions = []store.SessionSummary{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(historyOutput{Days: days, Sessions: sessions, Activations: total})
	}

	fmt.Fprintln(w, output.Section(fmt.Sprintf("Sessions (last %d days)", days)))
	fmt.Fprintln(w)
	if len(sessions) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" No sessions recorded. Run 'deproductify watch' to start one."))
		fmt.Fprintln(w)
		return nil
	}

	tbl := output.NewTable("Started", "Duration", "Threshold", "Activations", "Advisories", "Version")
	for _, s := range sessions {
		duration := s.Duration(now).Round(time.Second).String()
		if s.EndedAt == nil {
			duration += " (open)"
		}
		activations := strconv.Itoa(s.Activations)
		if s.Activations > 0 {
			activations = output.StyleAlarm.Render(activations)
		}
		tbl.AddRow(
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			duration,
			fmt.Sprintf("%.2f", s.Threshold),
			activations,
			strconv.Itoa(s.Advisories),
			s.Version,
		)
	}
	tbl.Fprint(w)
	fmt.Fprintf(w, "\n %s\n\n", output.StyleBold.Render(fmt.Sprintf("%d activations across %d sessions", total, len(sessions))))
	return nil
}
