package executor

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	assert.IsType(t, &Sequential{}, New(0))
	assert.IsType(t, &Sequential{}, New(1))

	ex := New(4)
	require.IsType(t, &Pool{}, ex)
	assert.Equal(t, 4, ex.Workers())
}

func TestSequential_RunsInline(t *testing.T) {
	s := NewSequential()
	ran := false
	s.Execute(func() { ran = true })
	assert.True(t, ran)
	assert.Equal(t, 1, s.Workers())
}

func TestSequential_NestedExecuteIsQueued(t *testing.T) {
	s := NewSequential()
	var order []int

	s.Execute(func() {
		order = append(order, 1)
		s.Execute(func() { order = append(order, 3) })
		order = append(order, 2)
	})

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestSequential_DeepChainDoesNotRecurse(t *testing.T) {
	s := NewSequential()
	const depth = 200000

	var count int
	var step func()
	step = func() {
		count++
		if count < depth {
			s.Execute(step)
		}
	}
	s.Execute(step)

	assert.Equal(t, depth, count)
}

func TestSequential_PanicIsRecovered(t *testing.T) {
	var buf bytes.Buffer
	s := NewSequential(WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))

	after := false
	s.Execute(func() {
		s.Execute(func() { after = true })
		panic("boom")
	})

	assert.True(t, after, "queue must keep draining after a panic")
	assert.Contains(t, buf.String(), "executor task panicked")
	assert.Contains(t, buf.String(), "boom")
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(3)

	var (
		running atomic.Int32
		peak    atomic.Int32
		gate    = make(chan struct{})
		started sync.WaitGroup
	)
	started.Add(3)

	for i := 0; i < 12; i++ {
		p.Execute(func() {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			if n <= 3 {
				select {
				case <-gate:
				default:
					started.Done()
					<-gate
				}
			}
			running.Add(-1)
		})
	}

	started.Wait()
	close(gate)
	p.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, int32(0), running.Load())
}

func TestPool_PanicIsRecovered(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, nil))
	p := NewPool(2, WithLogger(logger))

	var ok atomic.Bool
	p.Execute(func() { panic("pool boom") })
	p.Execute(func() { ok.Store(true) })
	p.Wait()

	assert.True(t, ok.Load())
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "pool boom")
}

func TestNewPool_DefaultsWorkers(t *testing.T) {
	assert.Equal(t, 1, NewPool(0).Workers())
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
