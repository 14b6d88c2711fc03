package cmd

import (
	"blocks/experiments"
	"blocks/meta"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func compareCommand() *cobra.Command {
	var episodes int
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run the configured agent kinds side by side and write their episode records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if episodes > 0 {
				cfg.Compare.Episodes = episodes
			}

			ctx, stop := interruptible()
			defer stop()
			ctx, cancel, err := cfg.WithTrainingDeadline(ctx)
			if err != nil {
				return err
			}
			defer cancel()

			bar := newProgress(cfg.Compare.Episodes)
			dir, summaries, err := experiments.RunComparison(ctx, cfg, bar.Observe)
			bar.Stop()
			if err != nil && !stoppedEarly(err) {
				return err
			}
			for _, s := range summaries {
				log.Info().
					Str("run", s.Run).
					Int("episodes", s.Episodes).
					Int("best", s.BestScore).
					Float64("average", s.AverageScore).
					Msg("summary")
			}
			log.Info().Msgf("results written to %s", dir)
			return nil
		},
	}
	cmd.Flags().IntVar(&episodes, "episodes", 0, "Episodes per run, overriding the configuration")
	return cmd
}

func sweepCommand() *cobra.Command {
	var moves int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Measure tree search throughput across goroutine counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := interruptible()
			defer stop()

			dir, err := experiments.RunSearchSweep(ctx, cfg, meta.SWEEP_GOROUTINES, moves)
			if err != nil {
				return err
			}
			log.Info().Msgf("search records written to %s", dir)
			return nil
		},
	}
	cmd.Flags().IntVar(&moves, "moves", meta.SWEEP_MOVES, "Placements searched per goroutine count")
	return cmd
}
