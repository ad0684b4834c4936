// Package workers runs periodic background jobs.
package workers

import (
	"context"
	"log"
	"time"
)

// RunFunc is one execution of a periodic job.
type RunFunc func(ctx context.Context, now time.Time) error

type Worker struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	run      RunFunc
	done     chan struct{}
}

// New creates a worker that calls run every interval, each call bounded by timeout.
func New(name string, interval, timeout time.Duration, run RunFunc) *Worker {
	return &Worker{
		name:     name,
		interval: interval,
		timeout:  timeout,
		run:      run,
		done:     make(chan struct{}),
	}
}

// Start launches the ticker loop. It stops when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	log.Printf("Worker %s: started, interval %s", w.name, w.interval)

	go func() {
		defer close(w.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Printf("Worker %s: stopped", w.name)
				return
			case now := <-ticker.C:
				w.tick(ctx, now)
			}
		}
	}()
}

// Wait blocks until the loop has exited.
func (w *Worker) Wait() {
	<-w.done
}

func (w *Worker) tick(parent context.Context, now time.Time) {
	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	start := time.Now()
	if err := w.run(ctx, now); err != nil {
		log.Printf("Worker %s: run failed: %v", w.name, err)
		return
	}
	log.Printf("Worker %s: run finished in %s", w.name, time.Since(start).Round(time.Millisecond))
}
