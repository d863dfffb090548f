package renderer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, cfg QueueConfig) *CommandQueue {
	t.Helper()
	q, err := NewCommandQueue(NewNullBackend(), cfg)
	require.NoError(t, err)
	return q
}

// submitFrom runs the submissions on a goroutine that is not the render
// thread and waits for them to finish.
func submitFrom(q *CommandQueue, cmds ...Command) []error {
	errs := make([]error, len(cmds))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i, cmd := range cmds {
			errs[i] = q.Submit(cmd, false)
		}
	}()
	wg.Wait()
	return errs
}

func namedCommand(name string, executed *[]string) Command {
	return NewFuncCommand(name, 1, func(Backend) error {
		*executed = append(*executed, name)
		return nil
	})
}

func TestSubmitQueuesOffRenderThread(t *testing.T) {
	q := newTestQueue(t, DefaultQueueConfig())
	q.MarkRenderThread()

	var executed []string
	errs := submitFrom(q, namedCommand("a", &executed))
	require.NoError(t, errs[0])

	assert.Empty(t, executed, "nothing runs until the render thread drains")
	assert.Equal(t, 1, q.QueuedCount())

	assert.Equal(t, 1, q.ProcessCommands())
	assert.Equal(t, []string{"a"}, executed)
	assert.Equal(t, 0, q.QueuedCount())
}

func TestSubmitExecutesInlineOnRenderThread(t *testing.T) {
	q := newTestQueue(t, DefaultQueueConfig())
	q.MarkRenderThread()

	var executed []string
	require.NoError(t, q.Submit(namedCommand("inline", &executed), false))

	assert.Equal(t, []string{"inline"}, executed)
	assert.Equal(t, 0, q.QueuedCount())
}

func TestExecuteImmediateBypassesQueue(t *testing.T) {
	q := newTestQueue(t, DefaultQueueConfig())

	executed := false
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Submit(NewFuncCommand("now", 1, func(Backend) error {
			executed = true
			return nil
		}), true)
	}()
	<-done

	assert.True(t, executed, "immediate commands run on the submitting goroutine")
	assert.Equal(t, 0, q.QueuedCount())
}

func TestProcessCommandsHonorsFrameCap(t *testing.T) {
	q := newTestQueue(t, QueueConfig{MaxQueuedCommands: 16, MaxCommandsPerFrame: 2})
	q.MarkRenderThread()

	var executed []string
	submitFrom(q,
		namedCommand("1", &executed),
		namedCommand("2", &executed),
		namedCommand("3", &executed),
		namedCommand("4", &executed),
	)

	assert.Equal(t, 2, q.ProcessCommands())
	assert.Equal(t, []string{"1", "2"}, executed, "FIFO under the cap")
	assert.Equal(t, 2, q.QueuedCount())

	assert.Equal(t, 2, q.FlushAll(), "flush ignores the cap")
	assert.Equal(t, []string{"1", "2", "3", "4"}, executed)
}

func TestQueueDropsWhenSaturated(t *testing.T) {
	q := newTestQueue(t, QueueConfig{MaxQueuedCommands: 2, WarnOnDrop: true})
	q.MarkRenderThread()

	var executed []string
	errs := submitFrom(q,
		namedCommand("keep1", &executed),
		namedCommand("keep2", &executed),
		namedCommand("dropped", &executed),
	)

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.ErrorIs(t, errs[2], ErrQueueFull)

	stats := q.Statistics()
	assert.Equal(t, uint64(3), stats.Submitted)
	assert.Equal(t, uint64(1), stats.Dropped)

	q.FlushAll()
	assert.Equal(t, []string{"keep1", "keep2"}, executed)
}

func TestFailingCommandDoesNotStallTheQueue(t *testing.T) {
	q := newTestQueue(t, DefaultQueueConfig())
	q.MarkRenderThread()

	var executed []string
	failing := NewFuncCommand("bad", 1, func(Backend) error {
		return assert.AnError
	})
	submitFrom(q, failing, namedCommand("after", &executed))

	assert.Equal(t, 2, q.ProcessCommands())
	assert.Equal(t, []string{"after"}, executed)
	assert.Equal(t, uint64(1), q.Statistics().Failed)
}

func TestPanickingCommandIsContained(t *testing.T) {
	q := newTestQueue(t, DefaultQueueConfig())
	q.MarkRenderThread()

	var executed []string
	panicking := NewFuncCommand("explode", 1, func(Backend) error {
		panic("gpu gremlins")
	})
	submitFrom(q, panicking, namedCommand("survivor", &executed))

	require.NotPanics(t, func() { q.ProcessCommands() })
	assert.Equal(t, []string{"survivor"}, executed)
	assert.Equal(t, uint64(1), q.Statistics().Failed)
}

func TestDrainRefusedOffRenderThread(t *testing.T) {
	q := newTestQueue(t, DefaultQueueConfig())
	q.MarkRenderThread()

	var executed []string
	submitFrom(q, namedCommand("waiting", &executed))

	processed := make(chan int, 1)
	go func() {
		processed <- q.ProcessCommands()
	}()
	assert.Equal(t, 0, <-processed, "foreign goroutines cannot drain")
	assert.Equal(t, 1, q.QueuedCount())
}

func TestCommandMaySubmitFollowUpWork(t *testing.T) {
	q := newTestQueue(t, DefaultQueueConfig())
	q.MarkRenderThread()

	var executed []string
	parent := NewFuncCommand("parent", 1, func(Backend) error {
		executed = append(executed, "parent")
		// Runs inline: we are on the render thread.
		return q.Submit(namedCommand("child", &executed), false)
	})
	submitFrom(q, parent)

	assert.Equal(t, 1, q.ProcessCommands(), "the inline child is not counted as a drained command")
	assert.Equal(t, []string{"parent", "child"}, executed)
}

func TestFrameCostAccumulatesAndResets(t *testing.T) {
	q := newTestQueue(t, DefaultQueueConfig())
	q.MarkRenderThread()

	q.Submit(NewFuncCommand("cheap", 2, func(Backend) error { return nil }), false)
	q.Submit(NewFuncCommand("heavy", 30, func(Backend) error { return nil }), false)
	assert.Equal(t, uint32(32), q.Statistics().FrameCost)

	q.BeginFrame()
	assert.Zero(t, q.Statistics().FrameCost)
	assert.Equal(t, uint64(2), q.Statistics().Processed, "totals survive the frame boundary")

	q.ResetStatistics()
	assert.Equal(t, Statistics{}, q.Statistics())
}

func TestSubmitBatchKeepsGoingPastFailures(t *testing.T) {
	q := newTestQueue(t, QueueConfig{MaxQueuedCommands: 1})
	q.MarkRenderThread()

	var executed []string
	batch := []Command{
		namedCommand("a", &executed),
		namedCommand("b", &executed),
		namedCommand("c", &executed),
	}
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		err = q.SubmitBatch(batch, false)
	}()
	<-done

	assert.Error(t, err, "drops surface in the joined error")
	assert.Equal(t, uint64(2), q.Statistics().Dropped)
	q.FlushAll()
	assert.Equal(t, []string{"a"}, executed)
}

func TestNilCommandRejected(t *testing.T) {
	q := newTestQueue(t, DefaultQueueConfig())
	assert.Error(t, q.Submit(nil, false))
}
