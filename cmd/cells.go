package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/leafdash/infra/source"
)

var cellsOutput string

var cellsCmd = &cobra.Command{
	Use:   "cells",
	Short: "Show per-module cell voltage and temperature extremes",
	RunE:  runCells,
}

func init() {
	cellsCmd.Flags().StringVarP(&cellsOutput, "output", "o", outputTable, "output format: table, json or yaml")
	rootCmd.AddCommand(cellsCmd)
}

func runCells(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := source.NewClient(cfg.Source, nil)
	if err != nil {
		return err
	}
	report, err := client.Cells(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetch cells: %w", err)
	}
	return renderCells(cmd.OutOrStdout(), cellsOutput, report)
}
