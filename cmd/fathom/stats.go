package main

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fathomhq/fathom-cli/internal/config"
	"github.com/fathomhq/fathom-cli/internal/stats"
)

var flagStatsClear bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the local query latency log",
	Long: `Show aggregate statistics for queries run from this machine.

Only timing and outcome are recorded; query text never is.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := config.StatsDBPath()
		if err != nil {
			return err
		}
		manager, err := stats.NewManager(dbPath)
		if err != nil {
			return err
		}
		defer manager.Close()

		if flagStatsClear {
			if err := manager.Clear(); err != nil {
				return err
			}
			pterm.Success.Println("Stats cleared")
			return nil
		}

		summary, err := manager.Summarize()
		if err != nil {
			return err
		}

		if flagJSON {
			out, err := json.Marshal(summary)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		if summary.TotalQueries == 0 {
			fmt.Println("No queries recorded yet.")
			return nil
		}

		successRate := float64(summary.SuccessCount) / float64(summary.TotalQueries) * 100

		rows := pterm.TableData{
			{"Queries", fmt.Sprintf("%d", summary.TotalQueries)},
			{"Success rate", fmt.Sprintf("%.1f%%", successRate)},
			{"Avg duration", fmt.Sprintf("%.0f ms", summary.AvgDurationMs)},
			{"P50 duration", fmt.Sprintf("%d ms", summary.P50DurationMs)},
			{"Max duration", fmt.Sprintf("%d ms", summary.MaxDurationMs)},
			{"Total rows", fmt.Sprintf("%d", summary.TotalRows)},
			{"Last run", summary.LastRun.Format("2006-01-02 15:04:05")},
		}
		return pterm.DefaultTable.WithData(rows).Render()
	},
}

func init() {
	statsCmd.Flags().BoolVar(&flagStatsClear, "clear", false, "Clear the recorded stats")
}
