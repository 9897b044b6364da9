package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(2, 8)

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		ok := p.Submit(func(context.Context) {
			defer wg.Done()
			ran.Add(1)
		})
		require.True(t, ok)
	}
	wg.Wait()
	p.Stop()

	assert.Equal(t, int32(5), ran.Load())
}

func TestPoolStopDrainsBacklog(t *testing.T) {
	p := NewPool(1, 8)

	var ran atomic.Int32
	for i := 0; i < 4; i++ {
		require.True(t, p.Submit(func(context.Context) {
			ran.Add(1)
		}))
	}
	p.Stop()

	assert.Equal(t, int32(4), ran.Load())
}

func TestPoolRejectsAfterStop(t *testing.T) {
	p := NewPool(1, 1)
	p.Stop()

	assert.False(t, p.Submit(func(context.Context) {}))
}

func TestPoolRejectsWhenBacklogFull(t *testing.T) {
	p := NewPool(1, 1)

	block := make(chan struct{})
	started := make(chan struct{})
	require.True(t, p.Submit(func(context.Context) {
		close(started)
		<-block
	}))
	<-started

	// worker is busy; one slot in the backlog, then rejection
	require.True(t, p.Submit(func(context.Context) {}))
	assert.False(t, p.Submit(func(context.Context) {}))

	close(block)
	p.Stop()
}

func TestPoolSurvivesPanickingTask(t *testing.T) {
	p := NewPool(1, 4)

	require.True(t, p.Submit(func(context.Context) {
		panic("broken session")
	}))

	done := make(chan struct{})
	require.Eventually(t, func() bool {
		return p.Submit(func(context.Context) { close(done) })
	}, time.Second, 10*time.Millisecond)
	<-done
	p.Stop()
}

func TestSyncQueueRunsInline(t *testing.T) {
	ran := false
	ok := SyncQueue{}.Submit(func(context.Context) { ran = true })

	assert.True(t, ok)
	assert.True(t, ran)
}
