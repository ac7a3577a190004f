package groupindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewIsIdentityPartition(t *testing.T) {
	idx := New(4)
	for i := 0; i < 4; i++ {
		require.Equal(t, i, idx.Group(i))
		require.Equal(t, 1, idx.GroupSize(i))
		require.Equal(t, []int{i}, idx.Members(i))
	}
}

func TestMoveRelocatesNode(t *testing.T) {
	idx := New(4)
	idx.Move(0, 1)
	require.Equal(t, 1, idx.Group(0))
	require.Equal(t, 0, idx.GroupSize(0))
	require.ElementsMatch(t, []int{0, 1}, idx.Members(1))

	idx.Move(2, 1)
	require.ElementsMatch(t, []int{0, 1, 2}, idx.Members(1))

	idx.Move(0, 3)
	require.ElementsMatch(t, []int{1, 2}, idx.Members(1))
	require.ElementsMatch(t, []int{0, 3}, idx.Members(3))
}

func TestMoveToSameGroupIsNoop(t *testing.T) {
	idx := New(3)
	idx.Move(0, 0)
	require.Equal(t, []int{0}, idx.Members(0))
}

func TestFromAssignmentAndToFlatVector(t *testing.T) {
	idx := FromAssignment([]int{5, 5, 2, 2})
	require.ElementsMatch(t, []int{0, 1}, idx.Members(5))
	require.ElementsMatch(t, []int{2, 3}, idx.Members(2))

	flat := idx.ToFlatVector()
	require.Equal(t, flat[0], flat[1])
	require.Equal(t, flat[2], flat[3])
	require.NotEqual(t, flat[0], flat[2])
}

func TestManyMovesPreserveTotalMembership(t *testing.T) {
	n := 20
	idx := New(n)
	for i := 1; i < n; i++ {
		idx.Move(i, 0)
	}
	require.Equal(t, n, idx.GroupSize(0))
	require.ElementsMatch(t, func() []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}(), idx.Members(0))
}
