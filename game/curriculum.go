package game

type CurriculumConfig struct {
	Threshold   float64 `mapstructure:"threshold" yaml:"threshold"`     // Line clears needed at level 0
	MinEpisodes int     `mapstructure:"minEpisodes" yaml:"minEpisodes"` // Episodes needed at a level before advancing
	Growth      float64 `mapstructure:"growth" yaml:"growth"`           // Threshold multiplier after each advancement
}

func DefaultCurriculumConfig() CurriculumConfig {
	return CurriculumConfig{
		Threshold:   20,
		MinEpisodes: 10,
		Growth:      1.25,
	}
}

// Curriculum tracks the shape tier. The level only moves forward.
type Curriculum struct {
	config    CurriculumConfig
	level     int
	episodes  int
	clears    int
	score     int
	threshold float64
}

type CurriculumStats struct {
	Level     int
	Episodes  int
	Clears    int
	Score     int
	Threshold float64
}

func NewCurriculum(config CurriculumConfig) Curriculum {
	if config.Growth < 1 {
		config.Growth = 1
	}
	return Curriculum{config: config, threshold: config.Threshold}
}

func (c *Curriculum) Level() int {
	return c.level
}

// Update folds one finished episode into the rolling statistics and reports whether the level advanced.
func (c *Curriculum) Update(lines, score int) bool {
	if c.level >= MaxLevel {
		return false
	}
	c.episodes++
	c.clears += max(lines, 0)
	c.score += max(score, 0)

	if float64(c.clears) < c.threshold || c.episodes < c.config.MinEpisodes {
		return false
	}

	c.level++
	c.episodes, c.clears, c.score = 0, 0, 0
	c.threshold *= c.config.Growth
	return true
}

// sync forces the level for an externally owned game and restarts the rolling statistics.
func (c *Curriculum) sync(level int) {
	c.level = clampLevel(level)
	c.episodes, c.clears, c.score = 0, 0, 0
}

func (c *Curriculum) Stats() CurriculumStats {
	return CurriculumStats{
		Level:     c.level,
		Episodes:  c.episodes,
		Clears:    c.clears,
		Score:     c.score,
		Threshold: c.threshold,
	}
}
