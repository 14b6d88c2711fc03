package agent

// Stats is a read-only snapshot. Scores are game points; rewards are the shaped learning signal.
type Stats struct {
	Kind          string  `json:"kind"`
	Episodes      int     `json:"episodes"`
	BestScore     int     `json:"bestScore"`
	AverageScore  float64 `json:"averageScore"` // Over the rolling window
	AverageReward float64 `json:"averageReward"`
	Epsilon       float64 `json:"epsilon"`
	MemorySize    int     `json:"memorySize"`
	TrainingSteps int     `json:"trainingSteps"`
	LastLoss      float64 `json:"lastLoss"`
}

// tracker keeps the episode bookkeeping every agent shares.
type tracker struct {
	window   int
	scores   []int
	rewards  []float64
	next     int
	episodes int
	best     int
	playing  bool
}

func newTracker(window int) tracker {
	return tracker{window: max(window, 1)}
}

func (t *tracker) StartEpisode() {
	t.playing = true
}

func (t *tracker) EndEpisode(score int, reward float64) {
	t.playing = false
	t.episodes++
	t.best = max(t.best, score)
	if len(t.scores) < t.window {
		t.scores = append(t.scores, score)
		t.rewards = append(t.rewards, reward)
		return
	}
	t.scores[t.next] = score
	t.rewards[t.next] = reward
	t.next = (t.next + 1) % t.window
}

func (t *tracker) snapshot(kind Kind) Stats {
	s := Stats{
		Kind:      kind.String(),
		Episodes:  t.episodes,
		BestScore: t.best,
	}
	if len(t.scores) == 0 {
		return s
	}
	for i := range t.scores {
		s.AverageScore += float64(t.scores[i])
		s.AverageReward += t.rewards[i]
	}
	s.AverageScore /= float64(len(t.scores))
	s.AverageReward /= float64(len(t.scores))
	return s
}
