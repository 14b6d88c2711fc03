package cmd

import (
	"errors"

	"blocks/agent"
	"blocks/engine"
	"blocks/experiments/metrics"
	"blocks/game"
	"blocks/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func trainCommand() *cobra.Command {
	var (
		kindName   string
		episodes   int
		checkpoint string
		resume     bool
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train one agent, saving checkpoints as it goes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if kindName == "" {
				kindName = cfg.Agent.Kind
			}
			if episodes <= 0 {
				episodes = cfg.Training.Episodes
			}
			kind, err := agent.ParseKind(kindName)
			if err != nil {
				return err
			}
			if checkpoint == "" {
				checkpoint = checkpointKey(cfg, kind)
			}

			st, err := store.New(cfg.Store)
			if err != nil {
				return err
			}
			a, err := agent.New(kind, cfg.AgentConfig())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := interruptible()
			defer stop()
			ctx, cancel, err := cfg.WithTrainingDeadline(ctx)
			if err != nil {
				return err
			}
			defer cancel()

			bar := newProgress(episodes)
			defer bar.Stop()
			e := engine.New(game.NewEnvironment(cfg.EnvOptions(0)...), a,
				engine.WithRun("train", kind.String()),
				engine.WithMaxSteps(cfg.Training.MaxSteps),
				engine.WithTrainEvery(cfg.Training.TrainEvery),
				engine.WithCheckpoint(st, checkpoint, cfg.Training.CheckpointEvery),
				engine.WithObserver(bar.Observe))

			if resume {
				if err := e.Restore(ctx); err != nil {
					if !errors.Is(err, store.ErrNotFound) {
						return err
					}
					log.Warn().Msgf("no checkpoint %q yet, starting fresh", checkpoint)
				}
			}

			results, err := e.Train(ctx, episodes)
			if err != nil && !stoppedEarly(err) {
				return err
			}
			if err != nil {
				log.Info().Msgf("training stopped after %d of %d episodes", len(results), episodes)
			}
			s := metrics.Summarize("train", results)
			stats := a.Stats()
			log.Info().
				Int("episodes", s.Episodes).
				Int("best", s.BestScore).
				Float64("average", s.AverageScore).
				Int("level", s.FinalLevel).
				Int("trainingSteps", stats.TrainingSteps).
				Msg("training finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "agent", "", "Agent kind: value, tree, policy or heuristic")
	cmd.Flags().IntVar(&episodes, "episodes", 0, "Episodes to train, overriding the configuration")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "Checkpoint key, defaults to <store key>-<agent>")
	cmd.Flags().BoolVar(&resume, "resume", false, "Restore the checkpoint before training")
	return cmd
}
