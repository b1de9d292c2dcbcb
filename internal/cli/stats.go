package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/swapcircle/swapcircle-go/internal/metrics"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stats from the last chat session",
	Long: `Show the operation statistics persisted by the most recent chat
session: API request, realtime event and reconcile timings.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	snap, err := metrics.ReadSnapshot(cfg.StatsFile)
	if errors.Is(err, metrics.ErrNoStats) {
		fmt.Println("No recorded stats yet. Run a chat session first.")
		return nil
	}
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Printf("Last session: %.1fs\n\n", snap.UptimeSeconds)
	printOp("API requests", snap.APIRequest)
	printOp("Realtime events", snap.RealtimeEvent)
	printOp("Reconciles", snap.Reconcile)
	return nil
}

func printOp(name string, op *metrics.OperationSnapshot) {
	if op == nil {
		fmt.Printf("%s: none\n", name)
		return
	}
	fmt.Printf("%s: %d (%d errors)\n", name, op.Count, op.Errors)
	fmt.Printf("  avg %.1fms  min %dms  max %dms\n", op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
