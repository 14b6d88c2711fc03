package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"blocks/agent"
	"blocks/game"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	a, err := agent.New(agent.HeuristicKind, agent.DefaultConfig())
	require.NoError(t, err)
	ts := httptest.NewServer(New(a, game.NewEnvironment(game.WithSeed(1))).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func emptyGrid() [][]bool {
	grid := make([][]bool, game.BoardSize)
	for r := range grid {
		grid[r] = make([]bool, game.BoardSize)
	}
	return grid
}

func postMove(t *testing.T, url string, req MoveRequest) (*http.Response, MoveResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(url+"/move", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var move MoveResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&move))
	}
	return resp, move
}

func TestMove(t *testing.T) {
	ts := newTestServer(t)

	t.Run("completes the almost full row", func(t *testing.T) {
		grid := emptyGrid()
		for c := 0; c < game.BoardSize-1; c++ {
			grid[2][c] = true
		}
		resp, move := postMove(t, ts.URL, MoveRequest{Grid: grid, Tray: [][][]bool{{{true}}}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, move.Valid)
		require.Equal(t, 0, move.Block)
		require.Equal(t, 2, move.Row)
		require.Equal(t, game.BoardSize-1, move.Col)
		require.Equal(t, int(game.EncodeAction(0, 2, game.BoardSize-1)), move.Action)
	})

	t.Run("full board has no move", func(t *testing.T) {
		grid := emptyGrid()
		for r := range grid {
			for c := range grid[r] {
				grid[r][c] = (r+c)%2 == 0
			}
		}
		square := [][]bool{{true, true}, {true, true}}
		resp, move := postMove(t, ts.URL, MoveRequest{Grid: grid, Tray: [][][]bool{square}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.False(t, move.Valid)
		require.Equal(t, int(game.NoAction), move.Action)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/move", "application/json", bytes.NewBufferString("{"))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/move")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats agent.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Equal(t, "heuristic", stats.Kind)
}

func TestClient(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.URL)
	ctx := context.Background()

	t.Run("move", func(t *testing.T) {
		grid := emptyGrid()
		for r := 0; r < game.BoardSize-1; r++ {
			grid[r][6] = true
		}
		move, err := c.Move(ctx, MoveRequest{Grid: grid, Tray: [][][]bool{{{true}}}})
		require.NoError(t, err)
		require.True(t, move.Valid)
		require.Equal(t, game.BoardSize-1, move.Row)
		require.Equal(t, 6, move.Col)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		require.Equal(t, "heuristic", stats.Kind)
	})

	t.Run("unreachable server", func(t *testing.T) {
		_, err := NewClient("http://127.0.0.1:1").Stats(ctx)
		require.Error(t, err)
	})
}
