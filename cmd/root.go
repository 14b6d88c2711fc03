package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"blocks/agent"
	"blocks/config"
	"blocks/meta"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	seed       uint64
)

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "blocks",
		Short:         "Train and compare agents for the 9x9 block placement puzzle",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", meta.CONFIG_PATH, "Path to the YAML configuration")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", meta.LOG_LEVEL, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "Overrides the configured seed when non-zero")

	cmd.AddCommand(
		trainCommand(),
		playCommand(),
		compareCommand(),
		sweepCommand(),
		serveCommand(),
	)
	return cmd
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	return nil
}

// loadConfig reads the configuration file. A missing default file falls back to the built-in
// defaults; a missing file named on the command line is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.FromYaml(configPath)
	if err != nil {
		if _, statErr := os.Stat(configPath); !errors.Is(statErr, os.ErrNotExist) || cmd.Flags().Changed("config") {
			return nil, err
		}
		log.Info().Msgf("no %s found, using defaults", configPath)
		cfg = config.Default()
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	return cfg, nil
}

// interruptible returns a context cancelled by the first interrupt.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// stoppedEarly reports whether err only says the run was interrupted or ran out of time.
func stoppedEarly(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func checkpointKey(cfg *config.Config, kind agent.Kind) string {
	return cfg.Store.Key + "-" + kind.String()
}
