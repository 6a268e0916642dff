package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/leafdash/infra/logger"
	"github.com/kilianp07/leafdash/infra/monitoring"
	"github.com/kilianp07/leafdash/infra/mqtt"
	"github.com/kilianp07/leafdash/simulator"
)

var (
	simListen string
	simTick   time.Duration
	simMQTT   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Serve a simulated telemetry API for development",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simListen, "listen", "", "listen address (simulator.listen_addr when empty)")
	simulateCmd.Flags().DurationVar(&simTick, "tick", 0, "snapshot interval (simulator.tick_ms when zero)")
	simulateCmd.Flags().BoolVar(&simMQTT, "mqtt", false, "also publish snapshots on mqtt.topic")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	simCfg := cfg.Simulator
	if simListen != "" {
		simCfg.ListenAddr = simListen
	}
	if simTick > 0 {
		simCfg.TickMS = int(simTick / time.Millisecond)
	}
	opts := simulator.Options{Config: simCfg}

	if simMQTT || simCfg.PublishMQTT {
		if err := cfg.MQTT.Validate(); err != nil {
			return err
		}
		mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
		if err != nil {
			return fmt.Errorf("sentry: %w", err)
		}
		client, err := mqtt.NewPahoClient(cfg.MQTT, mon)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		if err := client.Connect(10 * time.Second); err != nil {
			logger.New("simulate").Warnf("mqtt: %v", err)
		}
		defer client.Disconnect()
		opts.Publisher = client
	}
	return simulator.New(opts).Run(ctx)
}
