package cmd

import (
	"fmt"
	"slices"
	"sync"

	"blocks/experiments/metrics"

	"github.com/gosuri/uilive"
)

// progress keeps one live terminal line per run. Observe is safe for concurrent use.
type progress struct {
	mu     sync.Mutex
	writer *uilive.Writer
	total  int
	best   map[string]int
	latest map[string]metrics.EpisodeMetric
}

func newProgress(total int) *progress {
	writer := uilive.New()
	writer.Start()
	return &progress{
		writer: writer,
		total:  total,
		best:   map[string]int{},
		latest: map[string]metrics.EpisodeMetric{},
	}
}

func (p *progress) Observe(m metrics.EpisodeMetric) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest[m.Run] = m
	p.best[m.Run] = max(p.best[m.Run], m.Score)

	runs := make([]string, 0, len(p.latest))
	for run := range p.latest {
		runs = append(runs, run)
	}
	slices.Sort(runs)
	for _, run := range runs {
		l := p.latest[run]
		fmt.Fprintf(p.writer, "run %s %-9s episode %d/%d  score %6d  best %6d  lines %4d  level %d  eps %.3f\n",
			run, l.Agent, l.Episode+1, p.total, l.Score, p.best[run], l.Lines, l.Level, l.Epsilon)
	}
	p.writer.Flush()
}

func (p *progress) Stop() {
	p.writer.Stop()
}
