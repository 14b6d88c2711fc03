package game

// RewardConfig holds the reward-shaping weights. Penalties are stored as positive magnitudes.
type RewardConfig struct {
	LineBase float64 `mapstructure:"lineBase" yaml:"lineBase"`
	PerLine  float64 `mapstructure:"perLine" yaml:"perLine"`
	Combo    float64 `mapstructure:"combo" yaml:"combo"`
	PerCell  float64 `mapstructure:"perCell" yaml:"perCell"`

	IsolatedPenalty float64 `mapstructure:"isolatedPenalty" yaml:"isolatedPenalty"`
	DeadGapPenalty  float64 `mapstructure:"deadGapPenalty" yaml:"deadGapPenalty"`
	CornerPenalty   float64 `mapstructure:"cornerPenalty" yaml:"cornerPenalty"`
	FragmentPenalty float64 `mapstructure:"fragmentPenalty" yaml:"fragmentPenalty"`
	CompactBonus    float64 `mapstructure:"compactBonus" yaml:"compactBonus"`
	EdgeBonus       float64 `mapstructure:"edgeBonus" yaml:"edgeBonus"`
	CornerBonus     float64 `mapstructure:"cornerBonus" yaml:"cornerBonus"`

	Survival       float64 `mapstructure:"survival" yaml:"survival"`
	GameOver       float64 `mapstructure:"gameOver" yaml:"gameOver"`
	IllegalPenalty float64 `mapstructure:"illegalPenalty" yaml:"illegalPenalty"`
	LevelScale     float64 `mapstructure:"levelScale" yaml:"levelScale"`

	Min float64 `mapstructure:"min" yaml:"min"`
	Max float64 `mapstructure:"max" yaml:"max"`
}

func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		LineBase: 1000,
		PerLine:  500,
		Combo:    250,
		PerCell:  1,

		IsolatedPenalty: 1,
		DeadGapPenalty:  3,
		CornerPenalty:   2,
		FragmentPenalty: 1.5,
		CompactBonus:    0.5,
		EdgeBonus:       0.1,
		CornerBonus:     0.3,

		Survival:       5,
		GameOver:       200,
		IllegalPenalty: 100,
		LevelScale:     0.3,

		Min: -10000,
		Max: 50000,
	}
}

// RewardTerms breaks a step reward into its parts. Total is the clamped, level-scaled sum.
type RewardTerms struct {
	LineClear  float64
	Placement  float64
	Spatial    float64
	Survival   float64
	Multiplier float64
	Total      float64
}

// Compute scores a legal placement given the board after clearing.
func (cfg RewardConfig) Compute(board *Board, placed, lines int, done bool, level int) RewardTerms {
	var t RewardTerms
	if lines > 0 {
		n := float64(lines)
		t.LineClear = cfg.LineBase + n*cfg.PerLine
		if lines > 1 {
			t.LineClear += n * n * cfg.Combo
		}
	}
	t.Placement = cfg.PerCell * float64(placed)
	t.Spatial = cfg.spatial(board.Patterns())
	if done {
		t.Survival = -cfg.GameOver
	} else {
		t.Survival = cfg.Survival
	}
	t.Multiplier = 1 + float64(clampLevel(level))*cfg.LevelScale

	sum := (t.LineClear + t.Placement + t.Spatial + t.Survival) * t.Multiplier
	t.Total = min(max(sum, cfg.Min), cfg.Max)
	return t
}

func (cfg RewardConfig) spatial(p Pattern) float64 {
	return -cfg.IsolatedPenalty*float64(p.Isolated) -
		cfg.DeadGapPenalty*float64(p.DeadGaps) -
		cfg.CornerPenalty*float64(p.WastedCorners) -
		cfg.FragmentPenalty*float64(p.Fragments) +
		cfg.CompactBonus*float64(p.CompactRegions) +
		cfg.EdgeBonus*float64(p.EdgeCells) +
		cfg.CornerBonus*float64(p.CornerCells)
}
