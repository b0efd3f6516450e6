package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animsync/internal/compiler"
)

var _ compiler.IDSource = (*DeterministicClock)(nil)

func TestDeterministicClock_StartsAtZero(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())
}

func TestDeterministicClock_ResetRewindsToStart(t *testing.T) {
	clock := NewDeterministicClockAt(100)
	assert.Equal(t, int64(101), clock.Next())
	assert.Equal(t, int64(102), clock.Next())

	clock.Reset()
	assert.Equal(t, int64(100), clock.Current())
	assert.Equal(t, int64(101), clock.Next())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()

	const workers, perWorker = 10, 100
	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				v := clock.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
	for i := int64(1); i <= workers*perWorker; i++ {
		assert.True(t, seen[i], "missing value %d", i)
	}
}

// The same document compiled twice with a reset clock gets identical ids.
func TestDeterministicClock_RepeatableCompile(t *testing.T) {
	doc := &compiler.Document{Targets: []compiler.Target{{ID: "t", Animations: []compiler.Animation{
		{Kind: "set", Attribute: "x", To: "1"},
		{Kind: "set", Attribute: "x", To: "2"},
	}}}}
	clock := NewDeterministicClock()

	first, err := compiler.Compile(doc, clock)
	require.NoError(t, err)
	clock.Reset()
	second, err := compiler.Compile(doc, clock)
	require.NoError(t, err)

	for i, d := range first.Targets[0].Descriptors {
		assert.Equal(t, d.Common().GroupID, second.Targets[0].Descriptors[i].Common().GroupID)
	}
}
