package experiments

import (
	"context"
	"fmt"

	"blocks/agent"
	"blocks/config"
	"blocks/engine"
	"blocks/experiments/metrics"
	"blocks/game"
	"blocks/searcher"

	"github.com/rs/zerolog/log"
)

// RunComparison pits every agent kind listed in the comparison section against the same
// environment settings, each on its own environment, and stores the results under a timestamped
// directory of the output root. observer may be called from several goroutines at once.
func RunComparison(ctx context.Context, cfg *config.Config, observer func(metrics.EpisodeMetric)) (string, []metrics.Summary, error) {
	configs, runs, err := buildRuns(cfg, observer)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		for _, run := range runs {
			_ = run.Engine.Agent().Close()
		}
	}()

	log.Info().Msgf("starting comparison of %d runs...", len(runs))
	results, err := engine.Compare(ctx, runs)
	if err != nil {
		log.Warn().Err(err).Msgf("comparison stopped after %d episodes", len(results))
	}

	summaries := make([]metrics.Summary, len(configs))
	for i, c := range configs {
		summaries[i] = metrics.Summarize(fmt.Sprint(c.ID), results)
		log.Info().
			Str("run", summaries[i].Run).
			Str("agent", c.Name).
			Int("best", summaries[i].BestScore).
			Float64("average", summaries[i].AverageScore).
			Int("lines", summaries[i].TotalLines).
			Msg("run summary")
	}

	dir, writeErr := persist(cfg, configs, results)
	if writeErr != nil {
		return "", summaries, writeErr
	}
	return dir, summaries, err
}

func buildRuns(cfg *config.Config, observer func(metrics.EpisodeMetric)) ([]metrics.RunConfig, []engine.Run, error) {
	configs := make([]metrics.RunConfig, 0, len(cfg.Compare.Agents))
	runs := make([]engine.Run, 0, len(cfg.Compare.Agents))
	for i, name := range cfg.Compare.Agents {
		kind, err := agent.ParseKind(name)
		if err != nil {
			return nil, nil, err
		}
		offset := uint64(i)
		agentCfg := cfg.AgentConfig()
		agentCfg.Seed += offset

		a, err := agent.New(kind, agentCfg)
		if err != nil {
			return nil, nil, err
		}
		rc := metrics.RunConfig{
			ID:       i + 1,
			Name:     kind.String(),
			Agent:    kind.String(),
			Episodes: cfg.Compare.Episodes,
			Seed:     cfg.Seed + offset,
			Learn:    cfg.Compare.Learn,
		}
		options := []engine.Option{
			engine.WithMaxSteps(cfg.Training.MaxSteps),
			engine.WithTrainEvery(cfg.Training.TrainEvery),
		}
		if observer != nil {
			options = append(options, engine.WithObserver(observer))
		}
		configs = append(configs, rc)
		runs = append(runs, engine.Run{
			Config: rc,
			Engine: engine.New(game.NewEnvironment(cfg.EnvOptions(offset)...), a, options...),
		})
	}
	return configs, runs, nil
}

func persist(cfg *config.Config, configs []metrics.RunConfig, results []metrics.EpisodeMetric) (string, error) {
	writer, err := metrics.NewWriter(cfg.Compare.Output)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteSetup(cfg); err != nil {
		return "", err
	}
	if err := writer.WriteRunConfigs(configs); err != nil {
		return "", err
	}
	if err := writer.WriteEpisodes(results); err != nil {
		return "", err
	}
	log.Info().Msgf("stored %d episodes in %s", len(results), writer.Dir())
	return writer.Dir(), nil
}

// RunSearchSweep measures tree search throughput for each goroutine count over the same sequence
// of positions: moves placements from a seeded game, replayed identically for every entry.
func RunSearchSweep(ctx context.Context, cfg *config.Config, goroutines []int, moves int) (string, error) {
	records := []metrics.SearchRecord{}
	for i, count := range goroutines {
		mcts := searcher.NewMCTS(count,
			searcher.WithSimulations(cfg.Search.Simulations),
			searcher.WithCutoff(cfg.Search.Cutoff),
			searcher.WithExploration(cfg.Search.Exploration),
			searcher.WithSeed(cfg.Seed),
			searcher.WithMetrics(),
		)
		env := game.NewEnvironment(cfg.EnvOptions(0)...)
		env.Reset()

		log.Info().Msgf("starting sweep entry %d of %d with %d goroutines...", i+1, len(goroutines), count)
		for move := 0; move < moves && !env.IsGameOver(); move++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			action, m := mcts.FindNextMove(searcher.FromEnvironment(env))
			records = append(records, metrics.SearchRecord{Config: i + 1, Move: move, SearchMetric: m})
			env.Step(action)
		}
	}

	writer, err := metrics.NewWriter(cfg.Compare.Output)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteSetup(cfg.Search); err != nil {
		return "", err
	}
	if err := writer.WriteSearches(records); err != nil {
		return "", err
	}
	return writer.Dir(), nil
}
