package experiments

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"blocks/config"
	"blocks/experiments/metrics"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Agent.Hidden = []int{8}
	cfg.Agent.HyperParams = []config.HyperParameter{{Key: "batchSize", Val: 2}}
	cfg.Search.Simulations = 8
	cfg.Search.Cutoff = 2
	cfg.Training.MaxSteps = 5
	cfg.Compare.Agents = []string{"heuristic", "dqn"}
	cfg.Compare.Episodes = 2
	cfg.Compare.Learn = true
	cfg.Compare.Output = t.TempDir()
	return cfg
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunComparison(t *testing.T) {
	cfg := testConfig(t)
	var mu sync.Mutex
	seen := 0
	dir, summaries, err := RunComparison(context.Background(), cfg, func(metrics.EpisodeMetric) {
		mu.Lock()
		defer mu.Unlock()
		seen++
	})
	require.NoError(t, err)
	require.Equal(t, 4, seen)

	require.Len(t, summaries, 2)
	for _, s := range summaries {
		require.Equal(t, 2, s.Episodes)
	}

	require.Len(t, readCSV(t, filepath.Join(dir, "episodes.csv")), 5)
	runs := readCSV(t, filepath.Join(dir, "runs.csv"))
	require.Len(t, runs, 3)
	require.Equal(t, "value", runs[2][2])
	require.FileExists(t, filepath.Join(dir, "setup.yaml"))
}

func TestRunComparisonUnknownAgent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Compare.Agents = []string{"genetic"}
	_, _, err := RunComparison(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestRunSearchSweep(t *testing.T) {
	cfg := testConfig(t)
	dir, err := RunSearchSweep(context.Background(), cfg, []int{1, 2}, 2)
	require.NoError(t, err)

	rows := readCSV(t, filepath.Join(dir, "searches.csv"))
	require.Len(t, rows, 5)
	require.Equal(t, "1", rows[1][2])
	require.Equal(t, "2", rows[3][2])
	require.Equal(t, "8", rows[1][4])
}
