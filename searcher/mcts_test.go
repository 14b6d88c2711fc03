package searcher

import (
	"testing"

	"blocks/game"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func lineReady(t *testing.T, shapes int) *game.Environment {
	t.Helper()
	env := game.NewEnvironment(game.WithSeed(11))
	env.Reset()

	grid := make([][]bool, game.BoardSize)
	for r := range grid {
		grid[r] = make([]bool, game.BoardSize)
	}
	// Row 4 is one cell short of a clear
	for c := 0; c < game.BoardSize-1; c++ {
		grid[4][c] = true
	}
	tray := make([][][]bool, shapes)
	for i := range tray {
		tray[i] = [][]bool{{true}}
	}
	env.SetState(grid, tray, 0, 0)
	return env
}

func TestMCTSFindNextMove(t *testing.T) {
	t.Run("finds the clearing placement", func(t *testing.T) {
		env := lineReady(t, 1)
		mcts := NewMCTS(1, WithSimulations(600), WithCutoff(2), WithExploration(0.1), WithSeed(3))

		move, _ := mcts.FindNextMove(FromEnvironment(env))
		_, row, col := move.Decode()
		require.Equal(t, 4, row)
		require.Equal(t, game.BoardSize-1, col)
	})

	t.Run("returns a legal move with several goroutines", func(t *testing.T) {
		env := game.NewEnvironment(game.WithSeed(5))
		env.Reset()
		mcts := NewMCTS(4, WithSimulations(200), WithCutoff(5), WithMetrics())

		move, metric := mcts.FindNextMove(FromEnvironment(env))
		require.Contains(t, env.ValidActions(), move)
		require.Equal(t, 200, metric.Simulations)
		require.Equal(t, 200, metric.RootVisits)
		require.Equal(t, 4, metric.Goroutines)
	})

	t.Run("never touches the caller's environment", func(t *testing.T) {
		env := game.NewEnvironment(game.WithSeed(5))
		env.Reset()
		before := env.Hash()
		NewMCTS(2, WithSimulations(50)).FindNextMove(FromEnvironment(env))
		require.Equal(t, before, env.Hash())
	})

	t.Run("no moves", func(t *testing.T) {
		env := game.NewEnvironment(game.WithSeed(5)) // Never reset, so terminal
		move, _ := NewMCTS(1, WithSimulations(10)).FindNextMove(FromEnvironment(env))
		require.Equal(t, game.NoAction, move)
	})
}

func TestMCTSSimulate(t *testing.T) {
	env := game.NewEnvironment(game.WithSeed(8))
	env.Reset()

	policy, _ := NewMCTS(2, WithSimulations(300), WithSeed(1)).Simulate(FromEnvironment(env))
	total := 0.0
	for move, share := range policy {
		require.Contains(t, env.ValidActions(), move)
		total += share
	}
	require.InDelta(t, 1.0, total, 1e-9)
}

func TestRollout(t *testing.T) {
	t.Run("stops at the cutoff", func(t *testing.T) {
		env := game.NewEnvironment(game.WithSeed(2))
		env.Reset()
		got := rollout(FromEnvironment(env), 3, RandomRollout, rand.New(rand.NewSource(1)))
		require.Equal(t, 3, got.Depth)
		require.False(t, got.Terminal)
		require.Greater(t, got.Open, 0.0)
		require.Less(t, got.Open, 1.0)
	})

	t.Run("terminal state", func(t *testing.T) {
		got := rollout(mockState{score: 40}, 3, RandomRollout, rand.New(rand.NewSource(1)))
		require.Equal(t, 0, got.Depth)
		require.True(t, got.Terminal)
		require.Equal(t, 40, got.final)
		require.Equal(t, 1.0, got.Open)
	})

	t.Run("heuristic rollout completes the line", func(t *testing.T) {
		env := lineReady(t, 2)
		state := FromEnvironment(env)
		move := HeuristicRollout(game.DefaultHeuristic(), 0)(state, state.LegalMoves(), rand.New(rand.NewSource(1)))
		_, row, col := move.Decode()
		require.Equal(t, 4, row)
		require.Equal(t, game.BoardSize-1, col)
	})
}

func TestEnvironmentState(t *testing.T) {
	env := lineReady(t, 2)
	state := FromEnvironment(env)

	t.Run("refill only on the last shape", func(t *testing.T) {
		require.False(t, state.IsStochastic(game.EncodeAction(0, 0, 0)))
		next := state.Play(game.EncodeAction(0, 0, 0))
		require.True(t, next.IsStochastic(game.EncodeAction(0, 0, 0)))
	})

	t.Run("play leaves the receiver alone", func(t *testing.T) {
		before := state.Hash()
		state.Play(game.EncodeAction(0, 4, 8))
		require.Equal(t, before, state.Hash())
		require.Equal(t, 0, state.Score())
	})

	t.Run("reseeding changes refills, not the position", func(t *testing.T) {
		a := state.Reseed(1)
		require.Equal(t, state.Hash(), a.Hash())
	})
}
