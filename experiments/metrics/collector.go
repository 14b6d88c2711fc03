package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Goroutines   int
	Duration     time.Duration
	Simulations  int
	Cutoff       int
	FullPlayouts int // Rollouts that reached game over before the cutoff
	RootVisits   int
}

type Collector interface {
	Start(goroutines, cutoff int)
	AddFullPlayout()
	AddSimulation()
	Complete(rootVisits int) SearchMetric
}

type collector struct {
	goroutines   int
	cutoff       int
	startTime    time.Time
	simulations  atomic.Int32
	fullPlayouts atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(goroutines, cutoff int) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.cutoff = cutoff
	m.simulations.Store(0)
	m.fullPlayouts.Store(0)
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) AddSimulation() {
	m.simulations.Add(1)
}

func (m *collector) Complete(rootVisits int) SearchMetric {
	return SearchMetric{
		Goroutines:   m.goroutines,
		Duration:     time.Since(m.startTime),
		Simulations:  int(m.simulations.Load()),
		Cutoff:       m.cutoff,
		FullPlayouts: int(m.fullPlayouts.Load()),
		RootVisits:   rootVisits,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines, cutoff int)         {}
func (m *dummyCollector) AddFullPlayout()                      {}
func (m *dummyCollector) AddSimulation()                       {}
func (m *dummyCollector) Complete(rootVisits int) SearchMetric { return SearchMetric{} }
