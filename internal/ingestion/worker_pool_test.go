package ingestion

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolRunsEveryTask(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 3, discardLogger())
	pool.Start()

	var done atomic.Int32
	for i := 0; i < 20; i++ {
		fail := i%5 == 0
		assert.True(t, pool.Submit(func(context.Context) error {
			done.Add(1)
			if fail {
				return errors.New("task failed")
			}
			return nil
		}))
	}
	pool.Wait()

	assert.Equal(t, int32(20), done.Load())
}

func TestWorkerPoolRejectsAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, discardLogger())
	pool.Start()
	pool.Shutdown()

	assert.False(t, pool.Submit(func(context.Context) error { return nil }))
}
