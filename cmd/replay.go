package cmd

import (
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/kilianp07/leafdash/app"
	"github.com/kilianp07/leafdash/core/displaystate"
	"github.com/kilianp07/leafdash/core/journal"
	"github.com/kilianp07/leafdash/core/presentation"
)

var (
	replayFrom   string
	replayTo     string
	replayLimit  int
	replayOutput string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-project journaled snapshots at their original receive time",
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayFrom, "from", "", "first receive time (RFC 3339)")
	replayCmd.Flags().StringVar(&replayTo, "to", "", "last receive time (RFC 3339)")
	replayCmd.Flags().IntVarP(&replayLimit, "limit", "n", 0, "maximum number of records")
	replayCmd.Flags().StringVarP(&replayOutput, "output", "o", outputTable, "output format: table, json or yaml")
	rootCmd.AddCommand(replayCmd)
}

func parseTimeFlag(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Journal.Backend == "none" {
		return fmt.Errorf("replay needs a journal backend, journal.backend is none")
	}
	q := journal.Query{Limit: replayLimit}
	if q.Start, err = parseTimeFlag("from", replayFrom); err != nil {
		return err
	}
	if q.End, err = parseTimeFlag("to", replayTo); err != nil {
		return err
	}
	store, err := journal.New(cfg.Journal.Module())
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer store.Close()

	ctrl := app.NewController(app.ControllerOptions{
		VehicleID: cfg.Source.VehicleID,
		Pipeline:  presentation.NewPipeline(cfg.Presentation),
	})
	var states []displaystate.State
	n, err := app.Replay(cmd.Context(), store, q, ctrl, func(st displaystate.State) {
		states = append(states, st)
	})
	if err != nil {
		return err
	}
	if replayOutput != outputTable {
		views := make([]map[string]any, 0, len(states))
		for _, st := range states {
			views = append(views, map[string]any{
				"seq":      st.Seq,
				"received": st.UpdatedAt.UTC().Format(time.RFC3339Nano),
				"display":  newDisplayView(st.Display),
			})
		}
		return writeStructured(cmd.OutOrStdout(), replayOutput, views)
	}
	table := uitable.New()
	table.AddRow("SEQ", "RECEIVED", "SOC", "POWER", "SPEED", "GPS")
	for _, st := range states {
		d := st.Display
		table.AddRow(st.Seq, st.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			d.Text(presentation.KeySoC), d.Text(presentation.KeyPower), d.Text(presentation.KeySpeed), string(d.GPSFix))
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), table); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "replayed %d snapshots\n", n)
	return err
}
