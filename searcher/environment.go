package searcher

import "blocks/game"

type envState struct {
	env *game.Environment
}

// FromEnvironment wraps a private clone of env. The caller's environment is never touched.
func FromEnvironment(env *game.Environment) State {
	return envState{env: env.Clone()}
}

func (s envState) LegalMoves() []game.Action {
	return s.env.ValidActions()
}

func (s envState) Play(move game.Action) State {
	next := s.env.Clone()
	next.Step(move)
	return envState{env: next}
}

// IsStochastic holds when move places the last tray shape, which draws a new tray.
func (s envState) IsStochastic(move game.Action) bool {
	block, _, _ := move.Decode()
	return len(s.env.Tray()) == 1 && block == 0
}

func (s envState) Hash() game.StateHash {
	return s.env.Hash()
}

func (s envState) Score() int {
	return s.env.Score()
}

func (s envState) Board() game.Board {
	return s.env.Board()
}

func (s envState) Tray() []game.Shape {
	return s.env.Tray()
}

func (s envState) Reseed(seed uint64) State {
	next := s.env.Clone()
	next.Reseed(seed)
	return envState{env: next}
}
