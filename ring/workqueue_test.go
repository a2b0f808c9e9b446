package ring

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saylorsolutions/dispatchx/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkQueue_InvalidInput(t *testing.T) {
	_, err := NewWorkQueue[int](0)
	assert.Error(t, err)
	_, err = NewWorkQueue[int](-1)
	assert.Error(t, err)
	_, err = NewWorkQueue[int](4, Capacity(100))
	assert.Error(t, err)
}

func TestWorkQueue_ConsumesAllExactlyOnce(t *testing.T) {
	w, err := NewWorkQueue[int](4, Capacity(16), WithLogger(discardLogger))
	require.NoError(t, err)
	assert.Equal(t, 4, w.Consumers())

	const count = 1000
	var seen [count]atomic.Int32
	for i := 0; i < count; i++ {
		require.NoError(t, w.Dispatch(dispatch.Task[int]{
			Payload: i,
			OnComplete: func(val int) {
				seen[val].Add(1)
			},
		}))
	}
	require.True(t, w.AwaitShutdown(testShutdownTimeout))
	for i := range seen {
		require.Equal(t, int32(1), seen[i].Load(), "Task %d should be consumed by exactly one consumer", i)
	}
}

func TestWorkQueue_MultiProducer(t *testing.T) {
	w, err := NewWorkQueue[int](3, Capacity(8), WithLogger(discardLogger))
	require.NoError(t, err)

	const (
		producers   = 4
		perProducer = 100
	)
	var (
		consumed atomic.Int64
		wg       sync.WaitGroup
	)
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, w.Dispatch(dispatch.Task[int]{
					OnComplete: func(int) {
						consumed.Add(1)
					},
				}))
			}
		}()
	}
	wg.Wait()
	require.True(t, w.AwaitShutdown(testShutdownTimeout))
	assert.Equal(t, int64(producers*perProducer), consumed.Load())
}

func TestWorkQueue_ConcurrentConsumption(t *testing.T) {
	w, err := NewWorkQueue[int](2, Capacity(8), WithLogger(discardLogger))
	require.NoError(t, err)

	var (
		first  = make(chan struct{})
		second = make(chan struct{})
	)
	// Two adjacent tasks should be able to run at the same time on different
	// consumers, which a single-consumer ring can never do.
	require.NoError(t, w.Execute(func() {
		close(first)
		<-second
	}))
	require.NoError(t, w.Execute(func() {
		<-first
		close(second)
	}))
	require.True(t, w.AwaitShutdown(testShutdownTimeout), "Adjacent tasks should overlap across consumers")
}

func TestWorkQueue_ErrorIsolation(t *testing.T) {
	w, err := NewWorkQueue[int](4, Capacity(8), WithLogger(discardLogger))
	require.NoError(t, err)

	var handled atomic.Int32
	for i := 0; i < 16; i++ {
		require.NoError(t, w.Dispatch(dispatch.Task[int]{
			OnComplete: func(int) {
				panic("every task fails")
			},
			OnError: func(error) {
				handled.Add(1)
			},
		}))
	}
	require.True(t, w.AwaitShutdown(testShutdownTimeout))
	assert.Equal(t, int32(16), handled.Load())
}

func TestWorkQueue_DrainOnShutdown(t *testing.T) {
	w, err := NewWorkQueue[int](2, Capacity(8), WithLogger(discardLogger))
	require.NoError(t, err)

	var finished atomic.Int32
	for i := 0; i < 4; i++ {
		require.NoError(t, w.Dispatch(dispatch.Task[int]{
			OnComplete: func(int) {
				time.Sleep(200 * time.Millisecond)
				finished.Add(1)
			},
		}))
	}
	assert.True(t, w.AwaitShutdown(testShutdownTimeout))
	assert.Equal(t, int32(4), finished.Load(), "All enqueued tasks should finish before AwaitShutdown returns")
	assert.Equal(t, dispatch.StatusTerminated, w.Status())
}

func TestWorkQueue_RejectedAfterShutdown(t *testing.T) {
	w, err := NewWorkQueue[int](2, Capacity(8), WithLogger(discardLogger))
	require.NoError(t, err)
	w.Shutdown()

	assert.ErrorIs(t, w.Dispatch(dispatch.Task[int]{}), dispatch.ErrRejected)
	assert.ErrorIs(t, w.Execute(func() {}), dispatch.ErrRejected)
	assert.True(t, w.AwaitShutdown(testShutdownTimeout))
}

func TestWorkQueue_NotOnCallingGoroutine(t *testing.T) {
	w, err := NewWorkQueue[int](2, Capacity(8), WithLogger(discardLogger))
	require.NoError(t, err)

	var (
		callerGID = goroutineID()
		onCaller  atomic.Bool
	)
	for i := 0; i < 8; i++ {
		require.NoError(t, w.Dispatch(dispatch.Task[int]{
			OnComplete: func(int) {
				if goroutineID() == callerGID {
					onCaller.Store(true)
				}
			},
		}))
	}
	require.True(t, w.AwaitShutdown(testShutdownTimeout))
	assert.False(t, onCaller.Load())
}
