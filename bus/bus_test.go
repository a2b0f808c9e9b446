package bus

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saylorsolutions/dispatchx/dispatch"
	"github.com/saylorsolutions/dispatchx/ring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShutdownTimeout = 5 * time.Second

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNew_InvalidInput(t *testing.T) {
	_, err := New[string, int](nil)
	assert.Error(t, err)
	d := dispatch.NewSynchronous[int](discardLogger)
	_, err = New[string, int](d, WithErrorHandler(nil))
	assert.Error(t, err)
	_, err = New[string, int](d, WithLogger(nil))
	assert.Error(t, err)
}

func TestBus_Notify_KeyRouting(t *testing.T) {
	b, err := New[string, string](dispatch.NewSynchronous[string](discardLogger))
	require.NoError(t, err)

	var created, updated []string
	b.OnKey("orders.created", func(event string) {
		created = append(created, event)
	})
	b.OnKey("orders.updated", func(event string) {
		updated = append(updated, event)
	})

	require.NoError(t, b.Notify("orders.created", "order-1"))
	require.NoError(t, b.Notify("orders.created", "order-2"))
	require.NoError(t, b.Notify("orders.updated", "order-1"))
	require.NoError(t, b.Notify("orders.deleted", "order-3"), "A key with no registrations is not an error")

	assert.Equal(t, []string{"order-1", "order-2"}, created)
	assert.Equal(t, []string{"order-1"}, updated)
}

func TestBus_Notify_SelectorRouting(t *testing.T) {
	b, err := New[string, int](dispatch.NewSynchronous[int](discardLogger))
	require.NoError(t, err)

	sel, err := Pattern(`^metrics\.`)
	require.NoError(t, err)

	var matched, all int
	b.On(sel, func(int) {
		matched++
	})
	b.On(Any[string](), func(int) {
		all++
	})

	require.NoError(t, b.Notify("metrics.cpu", 0))
	require.NoError(t, b.Notify("logs.app", 0))
	assert.Equal(t, 1, matched)
	assert.Equal(t, 2, all)
}

func TestBus_Notify_RegistrationOrder(t *testing.T) {
	b, err := New[string, int](dispatch.NewSynchronous[int](discardLogger))
	require.NoError(t, err)

	var order []int
	for i := 0; i < 5; i++ {
		b.OnKey("evt", func(int) {
			order = append(order, i)
		})
	}
	require.NoError(t, b.Notify("evt", 0))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order, "Matched consumers should be dispatched in registration order")
}

func TestRegistration_Cancel(t *testing.T) {
	b, err := New[string, int](dispatch.NewSynchronous[int](discardLogger))
	require.NoError(t, err)

	var calls int
	reg := b.OnKey("evt", func(int) {
		calls++
	})
	assert.NotEmpty(t, reg.ID())
	assert.Equal(t, 1, b.Registrations())

	require.NoError(t, b.Notify("evt", 0))
	reg.Cancel()
	reg.Cancel() // Safe to repeat.
	require.NoError(t, b.Notify("evt", 0))

	assert.Equal(t, 1, calls, "A cancelled registration should not receive further events")
	assert.Equal(t, 0, b.Registrations())
}

func TestBus_ErrorHandler(t *testing.T) {
	var received error
	b, err := New[string, int](
		dispatch.NewSynchronous[int](discardLogger),
		WithErrorHandler(func(err error) {
			received = err
		}),
	)
	require.NoError(t, err)

	b.OnKey("evt", func(int) {
		panic("consumer failure")
	})
	require.NoError(t, b.Notify("evt", 0), "Consumer failures are routed, not returned")
	require.Error(t, received)
	assert.True(t, dispatch.IsExecutionError(received))
}

func TestBus_Notify_DispatcherRejection(t *testing.T) {
	d := dispatch.NewSynchronous[int](discardLogger)
	b, err := New[string, int](d)
	require.NoError(t, err)
	b.OnKey("evt", func(int) {})

	d.Shutdown()
	err = b.Notify("evt", 0)
	assert.ErrorIs(t, err, dispatch.ErrRejected)
}

func TestBus_PingPong_ThreadPool(t *testing.T) {
	d, err := dispatch.NewThreadPool[int](2, dispatch.PoolLogger(discardLogger))
	require.NoError(t, err)
	defer d.AwaitShutdown(testShutdownTimeout)
	testPingPong(t, d)
}

func TestBus_PingPong_WorkQueue(t *testing.T) {
	d, err := ring.NewWorkQueue[int](2, ring.Capacity(16), ring.WithLogger(discardLogger))
	require.NoError(t, err)
	defer d.AwaitShutdown(testShutdownTimeout)
	testPingPong(t, d)
}

// testPingPong registers a consumer for "ping" that notifies "pong" and vice versa,
// then verifies 4 round-trip hops complete without deadlock and that none of them
// execute on the goroutine that issued the initial notify.
func testPingPong(t *testing.T, d dispatch.Dispatcher[int]) {
	t.Helper()
	b, err := New[string, int](d)
	require.NoError(t, err)

	const hopLimit = 4
	var (
		callerGID = goroutineID()
		onCaller  atomic.Bool
		done      = make(chan struct{})
		doneOnce  sync.Once
	)
	hop := func(next string) Consumer[int] {
		return func(n int) {
			if goroutineID() == callerGID {
				onCaller.Store(true)
			}
			if n >= hopLimit {
				doneOnce.Do(func() {
					close(done)
				})
				return
			}
			assert.NoError(t, b.Notify(next, n+1))
		}
	}
	b.OnKey("ping", hop("pong"))
	b.OnKey("pong", hop("ping"))

	require.NoError(t, b.Notify("ping", 1))
	select {
	case <-done:
	case <-time.After(testShutdownTimeout):
		t.Fatal("Recursive notification deadlocked")
	}
	assert.False(t, onCaller.Load(), "No hop should run on the notifying goroutine")
}

func TestDefault(t *testing.T) {
	b := Default()
	require.NotNil(t, b)
	assert.Same(t, b, Default(), "Default should always return the same shared instance")

	var handled atomic.Bool
	reg := b.OnKey("default-test", func(any) {
		handled.Store(true)
	})
	defer reg.Cancel()

	require.NoError(t, b.Notify("default-test", "payload"))
	assert.Eventually(t, handled.Load, time.Second, 5*time.Millisecond)
}

// goroutineID parses the current goroutine's ID from a stack trace.
// Test-only; production code should never branch on goroutine identity.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	var id uint64
	_, _ = fmt.Sscanf(string(buf[:n]), "goroutine %d", &id)
	return id
}
