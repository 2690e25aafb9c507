// Command acrossfc evaluates FC points submissions, syncs FFLogs data,
// publishes reports, and manages the Discord bot commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"acrossfc/bootstrap"
	"acrossfc/config"
)

var (
	configFile string
	profile    string
	tier       string
	storage    string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "acrossfc",
	Short: "FC points and clear tracking for the Across free company",
	Long: `acrossfc awards FC points for FFLogs submissions and reports FC progress.

Configuration comes from --config (JSON or YAML), a named --profile, or
ACROSSFC_* environment variables, with .env loaded when present.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (.json, .yaml)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Config profile (development, testing, staging, production)")
	rootCmd.PersistentFlags().StringVar(&tier, "tier", "", "Submissions tier override, e.g. 6_4")
	rootCmd.PersistentFlags().StringVar(&storage, "storage", "", "Storage adapter override (memory, file, redis, sql)")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(updateFFLogsCmd)
	rootCmd.AddCommand(clearRatesCmd)
	rootCmd.AddCommand(clearedJobsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(axdCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case configFile != "":
		cfg, err = config.LoadFromFile(configFile)
	case profile != "":
		cfg, err = config.LoadProfile(profile)
	default:
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if tier != "" {
		cfg.FC.Tier = tier
	}
	if storage != "" {
		cfg.Storage.Adapter = storage
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// withApp builds the application for one command run.
func withApp(ctx context.Context, fn func(*bootstrap.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	app, cleanup, err := bootstrap.BuildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(app)
}
