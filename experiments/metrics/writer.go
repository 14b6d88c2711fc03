package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Writer struct {
	baseDir string
}

// NewWriter creates a timestamped subfolder of root for one experiment.
func NewWriter(root string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

// WriteSetup dumps the resolved configuration the experiment ran with.
func (w *Writer) WriteSetup(setup any) error {
	raw, err := yaml.Marshal(setup)
	if err != nil {
		return fmt.Errorf("failed to marshal setup: %w", err)
	}
	err = os.WriteFile(filepath.Join(w.baseDir, "setup.yaml"), raw, 0644)
	if err != nil {
		return fmt.Errorf("failed to write setup file: %w", err)
	}
	return nil
}

func (w *Writer) WriteRunConfigs(configs []RunConfig) error {
	path := filepath.Join(w.baseDir, "runs.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create runs file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"id", "name", "agent", "episodes", "seed", "learn"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write runs header: %w", err)
	}

	for _, config := range configs {
		row := []string{
			strconv.Itoa(config.ID),
			config.Name,
			config.Agent,
			strconv.Itoa(config.Episodes),
			strconv.FormatUint(config.Seed, 10),
			strconv.FormatBool(config.Learn),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write run row: %w", err)
		}
	}

	return nil
}

func (w *Writer) WriteEpisodes(records []EpisodeMetric) error {
	path := filepath.Join(w.baseDir, "episodes.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create episodes file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"run", "agent", "episode", "score", "reward", "lines", "moves", "level",
		"advanced", "epsilon", "loss", "trained", "illegal", "duration"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write episodes header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.Run,
			record.Agent,
			strconv.Itoa(record.Episode),
			strconv.Itoa(record.Score),
			strconv.FormatFloat(record.Reward, 'f', 3, 64),
			strconv.Itoa(record.Lines),
			strconv.Itoa(record.Moves),
			strconv.Itoa(record.Level),
			strconv.FormatBool(record.Advanced),
			strconv.FormatFloat(record.Epsilon, 'f', 4, 64),
			strconv.FormatFloat(record.Loss, 'g', 6, 64),
			strconv.Itoa(record.Trained),
			strconv.FormatBool(record.Illegal),
			record.Duration.String(),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write episode row: %w", err)
		}
	}

	return nil
}

// SearchRecord is one tree search of a sweep, tagged with the sweep entry that ran it.
type SearchRecord struct {
	Config int
	Move   int
	SearchMetric
}

func (w *Writer) WriteSearches(records []SearchRecord) error {
	path := filepath.Join(w.baseDir, "searches.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create searches file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"config", "move", "goroutines", "duration", "simulations", "cutoff", "full_playouts", "root_visits"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write searches header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Config),
			strconv.Itoa(record.Move),
			strconv.Itoa(record.Goroutines),
			strconv.FormatInt(record.Duration.Microseconds(), 10),
			strconv.Itoa(record.Simulations),
			strconv.Itoa(record.Cutoff),
			strconv.Itoa(record.FullPlayouts),
			strconv.Itoa(record.RootVisits),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write search row: %w", err)
		}
	}

	return nil
}
