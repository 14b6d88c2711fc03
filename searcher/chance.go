package searcher

import (
	"sync"

	"blocks/utils"
)

// chance is the node after a placement that empties the tray. Its children are the refills
// seen so far, keyed by the resulting state hash.
type chance struct {
	sync.RWMutex
	parent   *decision
	children []*decision
	rewards  float64
	visits   int
}

func newChance(parent *decision) *chance {
	return &chance{
		parent: parent,
	}
}

func (c *chance) SelectOrExpand(state State) (Node, State, bool) {
	c.Lock()
	defer c.Unlock()

	// Select if explored outcome
	selected := true
	child := c.selects(state)
	// Expand if unexplored outcome
	if child == nil {
		child = newDecision(c, state, c.parent.exploration)
		c.children = append(c.children, child)
		selected = false
	}

	child.applyLoss()
	return child, state, selected
}

func (c *chance) selects(state State) *decision {
	expected := state.Hash()
	i := utils.FindIndexFunc(c.children, func(child *decision) bool { return child.hash == expected })
	if i < 0 {
		return nil
	}
	return c.children[i]
}

func (c *chance) applyLoss() {
	c.Lock()
	defer c.Unlock()

	c.rewards += LOSS
	c.visits++
}

func (c *chance) score(u *uct) float64 {
	c.RLock()
	defer c.RUnlock()

	return u.evaluate(c.rewards, c.visits)
}

func (c *chance) Backup(reward float64) Node {
	c.Lock()
	defer c.Unlock()

	c.reverseLoss()

	c.rewards += reward
	c.visits++

	return c.parent
}

func (c *chance) reverseLoss() {
	c.rewards -= LOSS
	c.visits--
}

func (c *chance) Visits() int {
	c.RLock()
	defer c.RUnlock()

	return c.visits
}

func (c *chance) mean() float64 {
	c.RLock()
	defer c.RUnlock()

	if c.visits <= 0 {
		return 0
	}
	return c.rewards / float64(c.visits)
}
