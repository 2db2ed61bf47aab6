package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueueProcessesJobs(t *testing.T) {
	var wg sync.WaitGroup
	var handled int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		wg.Done()
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	wg.Add(3)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}
	wg.Wait()
	assert.Equal(t, int32(3), atomic.LoadInt32(&handled))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.ErrorIs(t, q.Enqueue(Job{ID: "x"}), ErrNotStarted)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{ID: "y"}), ErrNotStarted)
}

func TestQueueRetriesThenGivesUp(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) == 3 {
			close(done)
		}
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "r"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	q.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueCoalescesPendingKeys(t *testing.T) {
	release := make(chan struct{})
	var handled int32
	var wg sync.WaitGroup
	q := NewQueue("coalesce", func(ctx context.Context, job Job) error {
		if job.ID == "blocker" {
			<-release
		}
		atomic.AddInt32(&handled, 1)
		wg.Done()
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	wg.Add(1)
	require.NoError(t, q.Enqueue(Job{ID: "blocker"}))
	// Wait until the single worker is parked on the blocker.
	require.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)

	wg.Add(1)
	require.NoError(t, q.Enqueue(Job{ID: "first", Key: "class:7B"}))
	require.NoError(t, q.Enqueue(Job{ID: "second", Key: "class:7B"}))
	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&handled))
}
