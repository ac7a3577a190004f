package community

import (
	"testing"

	"github.com/katalvlaran/mlnet/network"
	"github.com/stretchr/testify/require"
)

func TestNewCommunityDedupsAndSorts(t *testing.T) {
	c := NewCommunity(3, 1, 2, 1, 3)
	require.Equal(t, []network.NodeID{1, 2, 3}, c.Nodes)
	require.True(t, c.Contains(2))
	require.False(t, c.Contains(9))
}

func TestNewCommunityStructureDropsEmpty(t *testing.T) {
	cs := NewCommunityStructure(NewCommunity(1, 2), Community{}, NewCommunity(3))
	require.Len(t, cs.Communities, 2)
	require.False(t, cs.Empty())
}

func TestMembershipTracksOverlap(t *testing.T) {
	cs := NewCommunityStructure(NewCommunity(1, 2), NewCommunity(2, 3))
	m := cs.Membership()
	require.ElementsMatch(t, []int{0}, m[1])
	require.ElementsMatch(t, []int{0, 1}, m[2])
	require.ElementsMatch(t, []int{1}, m[3])
	require.Nil(t, m[99])
}

func TestEmptyStructure(t *testing.T) {
	var cs CommunityStructure
	require.True(t, cs.Empty())
	require.Empty(t, cs.Membership())
}
