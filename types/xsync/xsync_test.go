package xsync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatch(t *testing.T) {
	l := NewLatch()
	require.False(t, l.Test())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Wait()
		}()
	}
	l.Trigger()
	wg.Wait()
	require.True(t, l.Test())

	// Re-triggering is a no-op.
	l.Trigger()
	require.True(t, l.Test())
}

func TestLatchWithValue(t *testing.T) {
	l := NewLatchWithValue[int]()
	require.False(t, l.Test())

	results := make([]int, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Wait()
		}(i)
	}
	l.Trigger(42)
	wg.Wait()
	for _, r := range results {
		require.Equal(t, 42, r)
	}

	// Only the first trigger's value is published.
	l.Trigger(7)
	require.Equal(t, 42, l.Wait())
}
