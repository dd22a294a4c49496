package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrain_RunsInOrder(t *testing.T) {
	l := New()
	var got []int
	for i := 1; i <= 3; i++ {
		require.NoError(t, l.Post(func() { got = append(got, i) }))
	}
	assert.Equal(t, 3, l.Len())

	assert.Equal(t, 3, l.Drain())
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Zero(t, l.Len())
}

func TestDrain_IncludesNestedPosts(t *testing.T) {
	l := New()
	var got []string
	require.NoError(t, l.Post(func() {
		got = append(got, "outer")
		_ = l.Post(func() { got = append(got, "inner") })
	}))

	assert.Equal(t, 2, l.Drain())
	assert.Equal(t, []string{"outer", "inner"}, got)
}

func TestDrain_SurvivesPanics(t *testing.T) {
	l := New()
	ran := false
	require.NoError(t, l.Post(func() { panic("boom") }))
	require.NoError(t, l.Post(func() { ran = true }))

	assert.Equal(t, 2, l.Drain())
	assert.True(t, ran)
}

func TestRun_SerializesConcurrentPosts(t *testing.T) {
	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Post(func() { counter++ })
		}()
	}
	wg.Wait()
	l.Close()

	require.NoError(t, <-done)
	assert.Equal(t, 50, counter)
	assert.ErrorIs(t, l.Post(func() {}), ErrClosed)
}

func TestRun_ContextCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
}
