package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/infra/source"
	"github.com/kilianp07/leafdash/pkg/export"
)

var (
	historyDuration string
	historyFormat   string
	historyOut      string

	exportFormat string
	exportSince  time.Duration
	exportOut    string
)

var historyCmd = &cobra.Command{
	Use:   "history <measurement> <field>",
	Short: "Fetch an aggregated series and write it as csv, json, xlsx or an html chart",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistory,
}

var exportCmd = &cobra.Command{
	Use:   "export <measurement>",
	Short: "Download the raw upstream export of a measurement",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	historyCmd.Flags().StringVarP(&historyDuration, "duration", "d", "24h", "chart duration: 1h, 6h, 24h or 7d")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", string(export.FormatCSV), "csv, json, xlsx or html")
	historyCmd.Flags().StringVar(&historyOut, "out", "", "output file (stdout when empty)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", source.FormatCSV, "csv or json")
	exportCmd.Flags().DurationVar(&exportSince, "since", 24*time.Hour, "start of the export relative to now")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (stdout when empty)")
	rootCmd.AddCommand(historyCmd, exportCmd)
}

func outputWriter(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(historyFormat)
	if err != nil {
		return err
	}
	if !presentation.ValidHistoryDuration(historyDuration) {
		fmt.Fprintf(cmd.ErrOrStderr(), "unknown duration %q, using a %s window\n", historyDuration, presentation.DefaultHistoryWindow)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := source.NewClient(cfg.Source, nil)
	if err != nil {
		return err
	}
	series, err := client.Historical(cmd.Context(), args[0], args[1], historyDuration)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	w, closeFn, err := outputWriter(cmd, historyOut)
	if err != nil {
		return err
	}
	if err := export.Write(w, format, series); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := source.NewClient(cfg.Source, nil)
	if err != nil {
		return err
	}
	w, closeFn, err := outputWriter(cmd, exportOut)
	if err != nil {
		return err
	}
	end := time.Now()
	n, err := client.Export(cmd.Context(), exportFormat, args[0], end.Add(-exportSince), end, w)
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", n, exportOut)
	}
	return nil
}
