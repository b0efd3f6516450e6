package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkQueue_FIFO(t *testing.T) {
	q := newWorkQueue(3)
	q.Enqueue(7)
	q.Enqueue(3)
	q.Enqueue(5)
	assert.Equal(t, 3, q.Len())

	for _, want := range []int{7, 3, 5} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok, "queue should be empty")
	assert.Equal(t, 0, q.Len())
}

func TestWorkQueue_RequeueGoesToBack(t *testing.T) {
	q := newWorkQueue(2)
	q.Enqueue(1)
	q.Enqueue(2)

	id, _ := q.TryDequeue()
	q.Enqueue(id)

	first, _ := q.TryDequeue()
	second, _ := q.TryDequeue()
	assert.Equal(t, 2, first)
	assert.Equal(t, 1, second)
}

func TestProgressGuard_Advance(t *testing.T) {
	g := newProgressGuard()

	assert.True(t, g.Advance(0, 1), "first step")
	assert.True(t, g.Advance(1, 0), "first step of another track may stay at 0")
	assert.True(t, g.Advance(0, 3))
	assert.False(t, g.Advance(0, 3), "cursor did not move")
	assert.False(t, g.Advance(0, 2), "cursor moved back")
	assert.Equal(t, 5, g.Steps())
}

func TestKeyframeBudget(t *testing.T) {
	b := newKeyframeBudget(5)

	require.NoError(t, b.Add(opacity, 3))
	require.NoError(t, b.Add(opacity, 2))
	assert.Equal(t, 5, b.Current())

	err := b.Add(opacity, 1)
	require.Error(t, err)
	var be *BudgetError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 6, be.Keyframes)
	assert.Equal(t, 5, be.Limit)
	assert.Contains(t, err.Error(), "opacity")
}

func TestKeyframeBudget_Disabled(t *testing.T) {
	b := newKeyframeBudget(0)
	require.NoError(t, b.Add(opacity, 1_000_000))
	assert.False(t, IsBudgetError(nil))
}
