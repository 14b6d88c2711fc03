package searcher

import (
	"sync"

	"blocks/experiments/metrics"
	"blocks/game"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type Option func(mcts *MCTS)

// MCTS runs tree-parallel Monte Carlo tree search with virtual loss. A single MCTS must not
// run two searches at once.
type MCTS struct {
	goroutines  int
	simulations int
	cutoff      int
	exploration float64
	rollout     RolloutPolicy
	evaluate    Evaluate
	rng         *rand.Rand
	root        *decision
	metrics     metrics.Collector
}

func WithSimulations(simulations int) Option {
	return func(m *MCTS) {
		if simulations > 0 {
			m.simulations = simulations
		}
	}
}

func WithCutoff(depth int) Option {
	return func(m *MCTS) {
		if depth > 0 {
			m.cutoff = depth
		}
	}
}

func WithExploration(cSquared float64) Option {
	return func(m *MCTS) {
		if cSquared >= 0 {
			m.exploration = cSquared
		}
	}
}

func WithRolloutPolicy(policy RolloutPolicy) Option {
	return func(m *MCTS) {
		if policy != nil {
			m.rollout = policy
		}
	}
}

func WithEvaluationFn(evaluate Evaluate) Option {
	return func(m *MCTS) {
		if evaluate != nil {
			m.evaluate = evaluate
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMCTS(goroutines int, options ...Option) *MCTS {
	m := &MCTS{ // Default values
		goroutines:  max(goroutines, 1),
		simulations: 100,
		cutoff:      20,
		exploration: CSquared,
		rollout:     RandomRollout,
		evaluate:    DefaultEvaluate,
		rng:         rand.New(rand.NewSource(1)),
		metrics:     metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Simulate searches from state and returns the visit share of every root move.
func (m *MCTS) Simulate(state State) (map[game.Action]float64, metrics.SearchMetric) {
	m.root = newDecision(nil, state, m.exploration)

	// Run simulations to collect statistics
	m.metrics.Start(m.goroutines, m.cutoff)
	m.iterate(state)
	metric := m.metrics.Complete(m.root.Visits())

	return m.root.Policy(), metric
}

// FindNextMove returns the most visited root move, or game.NoAction when state has no moves.
func (m *MCTS) FindNextMove(state State) (game.Action, metrics.SearchMetric) {
	_, metric := m.Simulate(state)
	move := m.root.findBestMove()
	log.Debug().
		Int("simulations", metric.Simulations).
		Int("full_playouts", metric.FullPlayouts).
		Dur("duration", metric.Duration).
		Int("move", int(move)).
		Msg("search complete")
	return move, metric
}

func (m *MCTS) iterate(state State) {
	task := make(chan uint64, m.simulations)
	for i := 0; i < m.simulations; i++ {
		task <- m.rng.Uint64()
	}
	close(task)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		rng := rand.New(rand.NewSource(m.rng.Uint64()))
		go func() {
			defer wg.Done()

			for seed := range task {
				// Each simulation sees its own refills
				m.simulate(state.Reseed(seed), state.Score(), rng)
				m.metrics.AddSimulation()
			}
		}()
	}

	wg.Wait()
}

func (m *MCTS) simulate(state State, rootScore int, rng *rand.Rand) {
	newNode, newState := selectThenExpand(m.root, state)
	outcome := rollout(newState, m.cutoff, m.rollout, rng)
	outcome.Gain = float64(outcome.final - rootScore)
	if outcome.Terminal {
		m.metrics.AddFullPlayout()
	}
	backup(newNode, m.evaluate(outcome.Outcome))
}

func selectThenExpand(root Node, state State) (Node, State) {
	parent := root
	child, state, selected := parent.SelectOrExpand(state)
	for selected && (child != parent) {
		parent = child
		child, state, selected = parent.SelectOrExpand(state)
	}
	return child, state
}

type playout struct {
	Outcome
	final int
}

func rollout(state State, cutoff int, policy RolloutPolicy, rng *rand.Rand) playout {
	depth := 0
	moves := state.LegalMoves()
	// Rollout till game over or for cutoff number of moves
	for len(moves) > 0 && (depth < cutoff) {
		state = state.Play(policy(state, moves, rng))
		moves = state.LegalMoves()
		depth++
	}

	board := state.Board()
	return playout{
		Outcome: Outcome{
			Depth:    depth,
			Cutoff:   cutoff,
			Terminal: len(moves) == 0,
			Open:     1 - float64(board.Filled())/float64(game.BoardSize*game.BoardSize),
		},
		final: state.Score(),
	}
}

func backup(newNode Node, reward float64) {
	node := newNode
	for node != nil {
		parent := node.Backup(reward)
		node = parent
	}
}
