package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/multiverse/internal/app"
	"github.com/five82/multiverse/internal/config"
	"github.com/five82/multiverse/internal/prefs"
)

// --- Global flags ---
var (
	configPath  string
	prefsPath   string
	server      string
	logLevel    string
	metricsAddr string

	assumeYes   bool
	reportEvery time.Duration

	rootCmd = &cobra.Command{
		Use:   "multiverse",
		Short: "Draw Game of Life universes and watch the shared multiverse evolve",
		Long: `multiverse is a terminal client for a shared Game of Life server.
Draw universes, save them into the multiverse, and watch every
universe step forward as the server pushes snapshots.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runView,
	}

	viewCmd = &cobra.Command{
		Use:   "view",
		Short: "Open the universe editor and viewer (default)",
		Args:  cobra.NoArgs,
		RunE:  runView,
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Connect without a UI and log every snapshot",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}

	bigBangCmd = &cobra.Command{
		Use:   "bigbang",
		Short: "DANGER: destroy every universe on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, "Are you sure you want to destroy everything?", func(ctx context.Context, s *app.Session) error {
				return s.Sync.Reset(ctx)
			})
		},
	}

	mergeCmd = &cobra.Command{
		Use:   "merge",
		Short: "Merge every universe on the server into one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, "Make a big mess?", func(ctx context.Context, s *app.Session) error {
				return s.Sync.Merge(ctx)
			})
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultPath(), "config file path")
	flags.StringVar(&prefsPath, "prefs", prefs.DefaultPath(), "UI preferences file path")
	flags.StringVar(&server, "server", "", "server address, overrides the config file")
	flags.StringVar(&logLevel, "log-level", "", "log level, overrides the config file")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on host:port")

	watchCmd.Flags().DurationVar(&reportEvery, "report-every", 30*time.Second, "interval between status lines")
	bigBangCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	mergeCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(viewCmd, watchCmd, healthCmd, bigBangCmd, mergeCmd)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := applyOverrides(cmd, &cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// applyOverrides copies explicitly set flags over cfg and revalidates.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server = server
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	return cfg.Validate()
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return app.RunUI(cmd.Context(), cfg, prefsPath)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return app.Watch(cmd.Context(), cfg, cmd.ErrOrStderr(), reportEvery)
}

func runHealth(cmd *cobra.Command, args []string) error {
	s, err := oneShotSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("server %s is not healthy: %w", s.Config.Server, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is healthy\n", s.Config.Server)
	return nil
}

func runAction(cmd *cobra.Command, question string, action func(context.Context, *app.Session) error) error {
	if !assumeYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted. No changes were made.")
		return nil
	}

	s, err := oneShotSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := action(cmd.Context(), s); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Done.")
	return nil
}

func oneShotSession(cmd *cobra.Command) (*app.Session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.NewSession(cfg, app.Options{LogOutput: cmd.ErrOrStderr()})
}

// confirm asks a yes/no question. Anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (yes/no): ", question)
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "yes" || input == "y"
}
