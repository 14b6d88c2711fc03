package searcher

import "blocks/game"

type mockState struct {
	moves      []game.Action
	stochastic bool
	played     []game.Action
	hash       game.StateHash
	score      int
}

func (m mockState) LegalMoves() []game.Action {
	return m.moves
}

func (m mockState) Play(move game.Action) State {
	played := append(append([]game.Action(nil), m.played...), move)
	return mockState{played: played, hash: m.hash, score: m.score}
}

func (m mockState) IsStochastic(move game.Action) bool {
	return m.stochastic
}

func (m mockState) Hash() game.StateHash {
	return m.hash
}

func (m mockState) Score() int {
	return m.score
}

func (m mockState) Board() game.Board {
	return game.Board{}
}

func (m mockState) Tray() []game.Shape {
	return nil
}

func (m mockState) Reseed(seed uint64) State {
	return m
}
