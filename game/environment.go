package game

import (
	"encoding/binary"
	"hash/fnv"
	"time"

	"golang.org/x/exp/rand"
)

// Environment is the single-player simulator: a board, a tray and the episode counters.
// It is not safe for concurrent use.
type Environment struct {
	board      Board
	tray       []Shape
	score      int
	moves      int
	sinceClear int
	lines      int
	phase      Phase

	curriculum Curriculum
	rewards    RewardConfig

	src *rand.PCGSource
	rng *rand.Rand

	valid  []Action // Cached until the board or tray changes
	cached bool
}

type StepResult struct {
	State   []float64
	Reward  float64
	Done    bool
	Illegal bool
	Lines   int // Units cleared by this step
	Points  int // Score gained by this step
	Terms   RewardTerms
}

type EnvOption func(e *Environment)

func WithSeed(seed uint64) EnvOption {
	return func(e *Environment) {
		e.src.Seed(seed)
	}
}

func WithRewardConfig(cfg RewardConfig) EnvOption {
	return func(e *Environment) {
		e.rewards = cfg
	}
}

func WithCurriculum(cfg CurriculumConfig) EnvOption {
	return func(e *Environment) {
		e.curriculum = NewCurriculum(cfg)
	}
}

// WithLevel starts the curriculum at the given tier.
func WithLevel(level int) EnvOption {
	return func(e *Environment) {
		e.curriculum.level = clampLevel(level)
	}
}

// NewEnvironment needs no arguments. Reset must be called before the first step.
func NewEnvironment(options ...EnvOption) *Environment {
	src := &rand.PCGSource{}
	src.Seed(uint64(time.Now().UnixNano()))
	e := &Environment{
		phase:      Terminal,
		curriculum: NewCurriculum(DefaultCurriculumConfig()),
		rewards:    DefaultRewardConfig(),
		src:        src,
		rng:        rand.New(src),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Reset starts a new episode at the current curriculum level and returns the initial state.
func (e *Environment) Reset() []float64 {
	e.board = Board{}
	e.tray = drawTray(e.rng, e.curriculum.Level())
	e.score, e.moves, e.sinceClear, e.lines = 0, 0, 0, 0
	e.phase = Active
	e.invalidate()
	return e.State()
}

// Step applies an action. Illegal actions end the episode with the fixed illegal-action penalty.
func (e *Environment) Step(a Action) StepResult {
	block, row, col := a.Decode()
	if e.phase == Terminal || a < 0 || block >= len(e.tray) || !e.board.CanPlace(e.tray[block], row, col) {
		e.phase = Terminal
		e.invalidate()
		penalty := -e.rewards.IllegalPenalty
		return StepResult{
			State:   e.State(),
			Reward:  penalty,
			Done:    true,
			Illegal: true,
			Terms:   RewardTerms{Multiplier: 1, Total: penalty},
		}
	}

	placed := e.board.Place(e.tray[block], row, col)
	lines := e.board.ClearCompletedLines()
	points := Points(lines)
	e.score += points
	e.lines += lines
	e.moves++
	if lines > 0 {
		e.sinceClear = 0
	} else {
		e.sinceClear++
	}

	tray := make([]Shape, 0, TraySize)
	tray = append(tray, e.tray[:block]...)
	e.tray = append(tray, e.tray[block+1:]...)
	if len(e.tray) == 0 {
		e.tray = drawTray(e.rng, e.curriculum.Level())
	}
	e.invalidate()

	done := len(e.ValidActions()) == 0
	if done {
		e.phase = Terminal
	}
	terms := e.rewards.Compute(&e.board, placed, lines, done, e.curriculum.Level())
	return StepResult{
		State:  e.State(),
		Reward: terms.Total,
		Done:   done,
		Lines:  lines,
		Points: points,
		Terms:  terms,
	}
}

// ValidActions lists every legal placement, tray-slot major, then row, then column.
// The returned slice is shared with the cache and must not be modified.
func (e *Environment) ValidActions() []Action {
	if e.cached {
		return e.valid
	}
	e.valid = e.valid[:0]
	if e.phase == Active {
		for block, s := range e.tray {
			for r := 0; r+s.Rows <= BoardSize; r++ {
				for c := 0; c+s.Cols <= BoardSize; c++ {
					if e.board.CanPlace(s, r, c) {
						e.valid = append(e.valid, EncodeAction(block, r, c))
					}
				}
			}
		}
	}
	e.cached = true
	return e.valid
}

func (e *Environment) invalidate() {
	e.cached = false
}

// IsGameOver reports whether the episode has ended or no tray shape fits.
func (e *Environment) IsGameOver() bool {
	return e.phase == Terminal || e.board.IsGameOver(e.tray)
}

// UpdateCurriculum records a finished episode and reports whether the shape tier advanced.
func (e *Environment) UpdateCurriculum(lines, score int) bool {
	return e.curriculum.Update(lines, score)
}

// SetState synchronises the simulator to an externally owned game. Grids smaller than 9x9 are
// zero-padded and larger ones truncated. Empty tray shapes are dropped and an empty tray is refilled.
func (e *Environment) SetState(grid [][]bool, tray [][][]bool, score int, difficulty int) {
	e.board = Board{}
	for r := 0; r < len(grid) && r < BoardSize; r++ {
		for c := 0; c < len(grid[r]) && c < BoardSize; c++ {
			e.board[r][c] = grid[r][c]
		}
	}
	e.curriculum.sync(difficulty)

	e.tray = make([]Shape, 0, TraySize)
	for _, cells := range tray {
		if len(e.tray) == TraySize {
			break
		}
		if s := NewShape("external", cells); !s.Empty() {
			e.tray = append(e.tray, s)
		}
	}
	if len(e.tray) == 0 {
		e.tray = drawTray(e.rng, e.curriculum.Level())
	}

	e.score = max(score, 0)
	e.moves, e.sinceClear, e.lines = 0, 0, 0
	e.phase = Active
	e.invalidate()
	if len(e.ValidActions()) == 0 {
		e.phase = Terminal
		e.invalidate()
	}
}

// Clone returns a fully independent copy, random source included, so a clone replays the same
// draws until it is reseeded.
func (e *Environment) Clone() *Environment {
	src := *e.src
	c := *e
	c.src = &src
	c.rng = rand.New(c.src)
	c.tray = append([]Shape(nil), e.tray...)
	c.valid = nil
	c.cached = false
	return &c
}

// Reseed replaces the random source state. Search clones use it so rollouts do not see future draws.
func (e *Environment) Reseed(seed uint64) {
	e.src.Seed(seed)
}

// Hash identifies the board, tray and score.
func (e *Environment) Hash() StateHash {
	hasher := fnv.New64a()

	var bits [2]uint64
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if e.board[r][c] {
				i := r*BoardSize + c
				bits[i/64] |= 1 << (i % 64)
			}
		}
	}
	binary.Write(hasher, binary.LittleEndian, bits)

	for _, s := range e.tray {
		hasher.Write([]byte(s.String()))
		hasher.Write([]byte{'|'})
	}
	binary.Write(hasher, binary.LittleEndian, int64(e.score))

	return StateHash(hasher.Sum64())
}

// Board returns a copy of the grid.
func (e *Environment) Board() Board {
	return e.board
}

// Tray returns a copy of the available shapes.
func (e *Environment) Tray() []Shape {
	return append([]Shape(nil), e.tray...)
}

func (e *Environment) Score() int        { return e.score }
func (e *Environment) Moves() int        { return e.moves }
func (e *Environment) LinesCleared() int { return e.lines }
func (e *Environment) Phase() Phase      { return e.phase }
func (e *Environment) Level() int        { return e.curriculum.Level() }

func (e *Environment) Curriculum() CurriculumStats {
	return e.curriculum.Stats()
}

func (e *Environment) Rewards() RewardConfig {
	return e.rewards
}
