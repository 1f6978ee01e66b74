package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubmitRunsTask(t *testing.T) {
	p := New("test", 2, 4, nil)
	defer p.Stop()

	done := make(chan struct{})
	ok := p.TrySubmit(Task{ID: "t1", Fn: func() { close(done) }})
	assert.True(t, ok)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestPanicInTaskIsRecoveredAndCounted(t *testing.T) {
	p := New("test", 1, 1, nil)
	defer p.Stop()

	done := make(chan struct{})
	p.TrySubmit(Task{ID: "boom", Fn: func() {
		defer close(done)
		panic("kaboom")
	}})

	<-done
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, uint64(1), p.Stats().Failed)
}

func TestAllTasksCompleteConcurrently(t *testing.T) {
	p := New("test", 4, 20, nil)
	defer p.Stop()

	var counter int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.TrySubmit(Task{Fn: func() {
			defer wg.Done()
			atomic.AddInt64(&counter, 1)
		}})
	}
	wg.Wait()
	assert.Equal(t, int64(20), atomic.LoadInt64(&counter))
}

func TestStopIsIdempotentAndDrains(t *testing.T) {
	p := New("test", 2, 4, nil)
	var ran int32
	p.TrySubmit(Task{Fn: func() { atomic.AddInt32(&ran, 1) }})
	p.Stop()
	p.Stop() // must not panic or block

	assert.Equal(t, int32(1), ran)
}

func TestTrySubmitAfterStopIsRejected(t *testing.T) {
	p := New("test", 1, 1, nil)
	p.Stop()

	ok := p.TrySubmit(Task{Fn: func() {}})
	assert.False(t, ok)
	assert.Equal(t, uint64(1), p.Stats().Rejected)
}

func TestTrySubmitRejectsWhenQueueFull(t *testing.T) {
	p := New("test", 1, 1, nil)
	defer p.Stop()

	block := make(chan struct{})
	started := make(chan struct{})
	// Occupy the single worker so the queue backs up.
	p.TrySubmit(Task{Fn: func() { close(started); <-block }})
	<-started
	// Queue depth 1: first queued task fills it.
	first := p.TrySubmit(Task{Fn: func() {}})
	second := p.TrySubmit(Task{Fn: func() {}})

	close(block)
	assert.True(t, first)
	assert.False(t, second)
}
