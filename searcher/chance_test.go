package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChanceSelectOrExpand(t *testing.T) {
	t.Run("expanding a new stochastic outcome", func(t *testing.T) {
		// Setup a node with a known outcome child and a different outcome state
		child := &decision{hash: 1}
		node := &chance{
			parent:   &decision{},
			children: []*decision{child},
		}
		state := mockState{hash: 2}

		gotChild, gotState, gotSelected := node.SelectOrExpand(state)

		require.IsType(t, &decision{}, gotChild, "Child should be a decision node")
		require.Equal(t, LOSS, gotChild.(*decision).rewards, "Child should apply a temporary loss")
		require.Equal(t, 1, gotChild.(*decision).visits, "Child should apply a temporary loss")
		require.NotEqual(t, child, gotChild, "Node should expand with a new child")
		require.Equal(t, 2, len(node.children), "Node should expand with a new child")
		require.Equal(t, state, gotState, "State should not change")
		require.False(t, gotSelected, "Node should expand with a new child")
	})

	t.Run("selecting an existing stochastic outcome", func(t *testing.T) {
		child := &decision{hash: 1}
		node := &chance{
			parent:   &decision{},
			children: []*decision{child},
		}

		// Expand first then select
		otherChild, _, _ := node.SelectOrExpand(mockState{hash: 2})
		state := mockState{hash: 2}
		gotChild, gotState, gotSelected := node.SelectOrExpand(state)

		require.Equal(t, 2, gotChild.(*decision).visits, "Child should apply 2 temporary losses")
		require.Equal(t, otherChild, gotChild, "Node should select an existing child")
		require.Equal(t, 2, len(node.children), "Node should select an existing child")
		require.Equal(t, state, gotState, "State should not change")
		require.True(t, gotSelected, "Node should select an existing child")
	})
}

func TestChanceBackup(t *testing.T) {
	parent := &decision{}
	node := &chance{parent: parent, rewards: LOSS, visits: 1}

	got := node.Backup(0.25)

	require.Same(t, parent, got, "Should return the parent node")
	require.Equal(t, 0.25, node.rewards, "Should reverse virtual loss and add the reward")
	require.Equal(t, 1, node.Visits(), "Should reverse virtual loss and add a visit")
}
