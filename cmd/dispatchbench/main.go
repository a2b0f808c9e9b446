// Command dispatchbench measures the throughput of each dispatcher variant with a
// configurable ring capacity, wait strategy, and producer/consumer topology.
package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saylorsolutions/dispatchx/dispatch"
	"github.com/saylorsolutions/dispatchx/ring"
	flag "github.com/spf13/pflag"
)

var (
	variant   = flag.String("variant", "ring", "dispatcher variant: sync, pool, ring, or workqueue")
	capacity  = flag.Int("capacity", 1024, "ring/queue capacity (power of two for ring variants)")
	count     = flag.Int("count", 1_000_000, "number of tasks to dispatch")
	producers = flag.Int("producers", 1, "number of producer goroutines")
	consumers = flag.Int("consumers", 4, "worker/consumer count for pool and workqueue variants")
	strategy  = flag.String("strategy", "yield", "wait strategy for ring variants: spin, yield, or block")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	d, err := newDispatcher()
	if err != nil {
		return err
	}

	var (
		consumed atomic.Int64
		done     = make(chan struct{})
		task     = dispatch.Task[int]{
			OnComplete: func(int) {
				if consumed.Add(1) == int64(*count) {
					close(done)
				}
			},
		}
	)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(*producers)
	perProducer := *count / *producers
	remainder := *count % *producers
	for p := 0; p < *producers; p++ {
		n := perProducer
		if p == 0 {
			n += remainder
		}
		go func(n int) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				if err := d.Dispatch(task); err != nil {
					fmt.Fprintln(os.Stderr, "dispatch failed:", err)
					return
				}
			}
		}(n)
	}
	wg.Wait()
	<-done
	elapsed := time.Since(start)

	if !d.AwaitShutdown(10 * time.Second) {
		return fmt.Errorf("dispatcher failed to drain within 10s")
	}
	fmt.Printf("variant=%s tasks=%d elapsed=%s throughput=%.0f tasks/s\n",
		*variant, *count, elapsed.Round(time.Microsecond), float64(*count)/elapsed.Seconds())
	return nil
}

func newDispatcher() (dispatch.Dispatcher[int], error) {
	switch *variant {
	case "sync":
		return dispatch.NewSynchronous[int](), nil
	case "pool":
		return dispatch.NewThreadPool[int](*consumers, dispatch.PoolQueueCapacity(*capacity))
	case "ring":
		opts, err := ringOpts()
		if err != nil {
			return nil, err
		}
		return ring.New[int](opts...)
	case "workqueue":
		opts, err := ringOpts()
		if err != nil {
			return nil, err
		}
		return ring.NewWorkQueue[int](*consumers, opts...)
	default:
		return nil, fmt.Errorf("unknown variant '%s'", *variant)
	}
}

func ringOpts() ([]ring.Option, error) {
	opts := []ring.Option{ring.Capacity(*capacity)}
	switch *strategy {
	case "spin":
		opts = append(opts, ring.WithWaitStrategy(ring.BusySpin()))
	case "yield":
		opts = append(opts, ring.WithWaitStrategy(ring.Yielding()))
	case "block":
		opts = append(opts, ring.WithWaitStrategy(ring.Blocking()))
	default:
		return nil, fmt.Errorf("unknown wait strategy '%s'", *strategy)
	}
	if *producers == 1 {
		opts = append(opts, ring.SingleProducer())
	}
	return opts, nil
}
