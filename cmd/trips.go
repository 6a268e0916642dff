package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/leafdash/infra/source"
	"github.com/kilianp07/leafdash/pkg/export"
)

var (
	tripsLimit  int
	tripsOutput string
	tripsPDF    string
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "Show the current trip and the most recent ones",
	RunE:  runTrips,
}

func init() {
	tripsCmd.Flags().IntVarP(&tripsLimit, "limit", "n", 10, "number of recent trips")
	tripsCmd.Flags().StringVarP(&tripsOutput, "output", "o", outputTable, "output format: table, json or yaml")
	tripsCmd.Flags().StringVar(&tripsPDF, "pdf", "", "also write a PDF trip report to this file")
	rootCmd.AddCommand(tripsCmd)
}

func runTrips(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := source.NewClient(cfg.Source, nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	current, err := client.CurrentTrip(ctx)
	if err != nil {
		return fmt.Errorf("current trip: %w", err)
	}
	recent, err := client.RecentTrips(ctx, tripsLimit)
	if err != nil {
		return fmt.Errorf("recent trips: %w", err)
	}
	if tripsPDF != "" {
		f, err := os.Create(tripsPDF)
		if err != nil {
			return err
		}
		err = export.WriteTripPDF(f, cfg.Source.VehicleID, recent, time.Now())
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("trip report: %w", err)
		}
	}
	return renderTrips(cmd.OutOrStdout(), tripsOutput, current, recent)
}
