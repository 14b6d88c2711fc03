package cmd

import (
	"errors"

	"blocks/agent"
	"blocks/config"
	"blocks/engine"
	"blocks/experiments/metrics"
	"blocks/game"
	"blocks/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// restoredAgent builds an agent of the configured kind and loads its checkpoint if it learns.
func restoredAgent(cmd *cobra.Command, cfg *config.Config, kindName, checkpoint string) (agent.Agent, *engine.Engine, error) {
	kind, err := agent.ParseKind(kindName)
	if err != nil {
		return nil, nil, err
	}
	if checkpoint == "" {
		checkpoint = checkpointKey(cfg, kind)
	}
	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	a, err := agent.New(kind, cfg.AgentConfig())
	if err != nil {
		return nil, nil, err
	}
	e := engine.New(game.NewEnvironment(cfg.EnvOptions(0)...), a,
		engine.WithRun("play", kind.String()),
		engine.WithMaxSteps(cfg.Training.MaxSteps),
		engine.WithCheckpoint(st, checkpoint, 0))
	if err := e.Restore(cmd.Context()); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, nil, err
		}
		log.Warn().Msgf("no checkpoint %q, playing untrained", checkpoint)
	}
	return a, e, nil
}

func playCommand() *cobra.Command {
	var (
		kindName   string
		episodes   int
		checkpoint string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play greedy episodes with a trained agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if kindName == "" {
				kindName = cfg.Agent.Kind
			}
			a, e, err := restoredAgent(cmd, cfg, kindName, checkpoint)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := interruptible()
			defer stop()
			results, err := e.Play(ctx, episodes)
			if err != nil && !stoppedEarly(err) {
				return err
			}
			for _, m := range results {
				log.Info().
					Int("episode", m.Episode).
					Int("score", m.Score).
					Int("lines", m.Lines).
					Int("moves", m.Moves).
					Msg("episode")
			}
			s := metrics.Summarize("play", results)
			log.Info().Int("best", s.BestScore).Float64("average", s.AverageScore).Msg("play finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "agent", "", "Agent kind: value, tree, policy or heuristic")
	cmd.Flags().IntVar(&episodes, "episodes", 10, "Episodes to play")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "Checkpoint key, defaults to <store key>-<agent>")
	return cmd
}
