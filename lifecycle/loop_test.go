package lifecycle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsInOrder(t *testing.T) {
	l := NewLoop(16)
	l.Start()
	defer l.Stop()

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.True(t, l.Do(func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestLoopSerializesConcurrentPosts(t *testing.T) {
	l := NewLoop(4)
	l.Start()
	defer l.Stop()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Do(func() { counter++ })
		}()
	}
	wg.Wait()

	var final int
	require.True(t, l.Do(func() { final = counter }))
	assert.Equal(t, 50, final)
}

func TestLoopPostAfterStop(t *testing.T) {
	l := NewLoop(1)
	l.Start()
	l.Stop()

	assert.False(t, l.Post(func() {}))
	assert.False(t, l.Do(func() {}))
	select {
	case <-l.Done():
	default:
		t.Fatal("Done should be closed")
	}
}

func TestLoopTryPostWhenFull(t *testing.T) {
	l := NewLoop(1)

	assert.True(t, l.TryPost(func() {}))
	assert.False(t, l.TryPost(func() {}), "queue is full until the loop runs")

	l.Start()
	require.True(t, l.Do(func() {}))
	assert.True(t, l.TryPost(func() {}))

	l.Stop()
	assert.False(t, l.TryPost(func() {}))
}
