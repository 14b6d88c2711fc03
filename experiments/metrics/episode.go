package metrics

import "time"

// EpisodeMetric describes one finished episode. Score is the game score; Reward is the
// shaped learning signal summed over the episode. The two are never mixed.
type EpisodeMetric struct {
	Run      string
	Agent    string
	Episode  int
	Score    int
	Reward   float64
	Lines    int
	Moves    int
	Level    int
	Advanced bool // Curriculum moved up after this episode
	Epsilon  float64
	Loss     float64 // Mean loss of the training steps taken during the episode
	Trained  int     // Training steps taken during the episode
	Illegal  bool
	Duration time.Duration
}

// RunConfig identifies one Env+Agent pair in a comparison.
type RunConfig struct {
	ID       int
	Name     string
	Agent    string
	Episodes int
	Seed     uint64
	Learn    bool
}

// Summary aggregates the episodes of a run.
type Summary struct {
	Run          string
	Episodes     int
	BestScore    int
	AverageScore float64
	TotalLines   int
	FinalLevel   int
}

func Summarize(run string, episodes []EpisodeMetric) Summary {
	s := Summary{Run: run}
	total := 0
	for _, e := range episodes {
		if e.Run != run {
			continue
		}
		s.Episodes++
		total += e.Score
		s.TotalLines += e.Lines
		s.BestScore = max(s.BestScore, e.Score)
		s.FinalLevel = max(s.FinalLevel, e.Level)
	}
	if s.Episodes > 0 {
		s.AverageScore = float64(total) / float64(s.Episodes)
	}
	return s
}
