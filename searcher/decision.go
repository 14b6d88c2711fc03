package searcher

import (
	"sync"

	"blocks/game"
)

// decision is a node where the agent picks a placement.
type decision struct {
	sync.RWMutex
	parent      Node
	hash        game.StateHash
	moves       []game.Action
	children    []Node
	exploration float64
	rewards     float64
	visits      int
}

func newDecision(parent Node, state State, exploration float64) *decision {
	moves := append([]game.Action(nil), state.LegalMoves()...)
	return &decision{
		parent:      parent,
		hash:        state.Hash(),
		moves:       moves,
		children:    make([]Node, 0, len(moves)),
		exploration: exploration,
	}
}

func (d *decision) SelectOrExpand(state State) (Node, State, bool) {
	d.Lock()
	defer d.Unlock()

	if len(d.moves) == 0 { // Terminal node
		return d, state, false
	}

	if len(d.moves) > len(d.children) { // Expandable node
		child, state := d.addChild(state)
		child.applyLoss()
		return child, state, false
	}

	// Fully expanded node
	ith := d.pickChild()
	child := d.children[ith]
	child.applyLoss()
	return child, state.Play(d.moves[ith]), true
}

func (d *decision) addChild(state State) (Node, State) {
	move := d.moves[len(d.children)]
	next := state.Play(move)
	var child Node
	if state.IsStochastic(move) {
		child = newChance(d)
	} else {
		child = newDecision(d, next, d.exploration)
	}
	d.children = append(d.children, child)
	return child, next
}

func (d *decision) pickChild() int {
	u := newUCT(d.exploration, d.visits)

	maxIndex := 0
	maxScore := d.children[0].score(u)
	for i, child := range d.children[1:] {
		score := child.score(u)
		if score > maxScore {
			maxScore = score
			maxIndex = i + 1
		}
	}
	return maxIndex
}

func (d *decision) applyLoss() {
	d.Lock()
	defer d.Unlock()

	d.rewards += LOSS
	d.visits++
}

func (d *decision) score(u *uct) float64 {
	d.RLock()
	defer d.RUnlock()

	return u.evaluate(d.rewards, d.visits)
}

func (d *decision) Backup(reward float64) Node {
	d.Lock()
	defer d.Unlock()

	if d.parent != nil { // Non-root node
		d.reverseLoss()
	}

	d.rewards += reward
	d.visits++

	return d.parent
}

func (d *decision) reverseLoss() {
	d.rewards -= LOSS
	d.visits--
}

func (d *decision) Visits() int {
	d.RLock()
	defer d.RUnlock()

	return d.visits
}

func (d *decision) mean() float64 {
	d.RLock()
	defer d.RUnlock()

	if d.visits <= 0 {
		return 0
	}
	return d.rewards / float64(d.visits)
}

// Policy returns the visit share of every expanded move.
func (d *decision) Policy() map[game.Action]float64 {
	d.RLock()
	defer d.RUnlock()

	total := 0
	visits := make([]int, len(d.children))
	for i, child := range d.children {
		visits[i] = child.Visits()
		total += visits[i]
	}
	policy := make(map[game.Action]float64, len(d.children))
	for i, v := range visits {
		if total == 0 {
			policy[d.moves[i]] = 1 / float64(len(visits))
			continue
		}
		policy[d.moves[i]] = float64(v) / float64(total)
	}
	return policy
}

// findBestMove returns the most visited move. Ties go to the higher mean reward, then
// to the first move.
func (d *decision) findBestMove() game.Action {
	d.RLock()
	defer d.RUnlock()

	if len(d.children) == 0 {
		if len(d.moves) == 0 {
			return game.NoAction
		}
		return d.moves[0]
	}

	bestIndex := 0
	maxVisits, maxMean := d.children[0].Visits(), d.children[0].mean()
	for i, child := range d.children[1:] {
		v, m := child.Visits(), child.mean()
		if v > maxVisits || (v == maxVisits && m > maxMean) {
			maxVisits, maxMean = v, m
			bestIndex = i + 1
		}
	}
	return d.moves[bestIndex]
}
