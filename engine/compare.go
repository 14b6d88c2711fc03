package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"blocks/experiments/metrics"

	channerics "github.com/niceyeti/channerics/channels"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Run pairs an engine with the comparison entry that describes it.
type Run struct {
	Config metrics.RunConfig
	Engine *Engine
}

// Compare drives every run concurrently, each on its own environment and agent, and returns all
// episode metrics ordered by run then episode. The first failing run cancels the others.
func Compare(ctx context.Context, runs []Run) ([]metrics.EpisodeMetric, error) {
	group, groupCtx := errgroup.WithContext(ctx)

	order := make(map[string]int, len(runs))
	inputs := make([]<-chan metrics.EpisodeMetric, len(runs))
	for i, run := range runs {
		updates := make(chan metrics.EpisodeMetric)
		inputs[i] = updates

		e := run.Engine
		e.run = fmt.Sprint(run.Config.ID)
		order[e.run] = i
		if run.Config.Name != "" {
			e.name = run.Config.Name
		}
		observer := e.observer
		e.observer = func(m metrics.EpisodeMetric) {
			if observer != nil {
				observer(m)
			}
			select {
			case updates <- m:
			case <-groupCtx.Done():
			}
		}

		config := run.Config
		group.Go(func() error {
			defer close(updates)
			log.Info().Msgf("starting run %d (%s) for %d episodes...", config.ID, e.name, config.Episodes)

			var err error
			if config.Learn {
				_, err = e.Train(groupCtx, config.Episodes)
			} else {
				_, err = e.Play(groupCtx, config.Episodes)
			}
			if err != nil {
				return fmt.Errorf("run %d: %w", config.ID, err)
			}
			log.Info().Msgf("completed run %d", config.ID)
			return nil
		})
	}

	results := []metrics.EpisodeMetric{}
	for m := range channerics.Merge(ctx.Done(), inputs...) {
		results = append(results, m)
	}
	err := group.Wait()

	slices.SortFunc(results, func(a, b metrics.EpisodeMetric) int {
		if c := cmp.Compare(order[a.Run], order[b.Run]); c != 0 {
			return c
		}
		return cmp.Compare(a.Episode, b.Episode)
	})
	return results, err
}
