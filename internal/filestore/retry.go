package filestore

import (
	"context"
	"fmt"
	"log"
	"time"

	"fitLogAPI/internal/metrics"
)

const (
	DefaultAttempts = 3
	DefaultBackoff  = time.Second
)

// Retrying retries every call of the wrapped Store with a fixed backoff.
type Retrying struct {
	next     Store
	attempts int
	backoff  time.Duration
}

func WithRetry(next Store, attempts int, backoff time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{next: next, attempts: attempts, backoff: backoff}
}

func (r *Retrying) Put(ctx context.Context, obj Object) (Ref, error) {
	var ref Ref
	err := r.do(ctx, "put", func() error {
		var err error
		ref, err = r.next.Put(ctx, obj)
		return err
	})
	return ref, err
}

func (r *Retrying) Delete(ctx context.Context, fileID string) error {
	return r.do(ctx, "delete", func() error {
		return r.next.Delete(ctx, fileID)
	})
}

func (r *Retrying) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err = fn(); err == nil {
			metrics.FileStoreAttemptsTotal.WithLabelValues(op, "success").Inc()
			return nil
		}
		metrics.FileStoreAttemptsTotal.WithLabelValues(op, "failure").Inc()
		log.Printf("FileStore: %s attempt %d/%d failed: %v", op, attempt, r.attempts, err)

		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff):
		}
	}
	return fmt.Errorf("file store %s failed after %d attempts: %w", op, r.attempts, err)
}
