package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/infra/source"
)

var (
	statusOutput string
	statusRaw    bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch the current snapshot and print its display mapping",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", outputTable, "output format: table, json or yaml")
	statusCmd.Flags().BoolVar(&statusRaw, "raw", false, "print the upstream snapshot unchanged")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := source.NewClient(cfg.Source, nil)
	if err != nil {
		return err
	}
	env, err := client.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetch status: %w", err)
	}
	if statusRaw {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(env.Raw))
		return err
	}
	m := presentation.Project(env.Snapshot, time.Now(), cfg.Presentation)
	return renderDisplay(cmd.OutOrStdout(), statusOutput, m)
}
