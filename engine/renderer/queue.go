package renderer

import (
	"errors"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hcfgod/Vortex-sub001/engine/containers"
	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// ErrQueueFull is returned by Submit when the ring is at capacity and
// the command had to be dropped.
var ErrQueueFull = errors.New("render command queue full")

const slowCommandThreshold = 2 * time.Millisecond

type QueueConfig struct {
	// MaxQueuedCommands bounds the ring; submissions beyond it are
	// dropped with a diagnostic.
	MaxQueuedCommands int
	// MaxCommandsPerFrame caps a single ProcessCommands drain. 0 means
	// no cap.
	MaxCommandsPerFrame int
	// EnableProfiling times every execution and logs slow commands.
	EnableProfiling bool
	WarnOnDrop      bool
}

func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxQueuedCommands:   8192,
		MaxCommandsPerFrame: 0,
		WarnOnDrop:          true,
	}
}

// Statistics accumulate across frames until ResetStatistics; FrameCost
// restarts every BeginFrame.
type Statistics struct {
	Submitted uint64
	Processed uint64
	Dropped   uint64
	Failed    uint64
	FrameCost uint32
}

// CommandQueue funnels GPU work from any goroutine onto the render
// thread. Exactly one goroutine is marked as the render thread; it is
// the only consumer, and commands it submits run inline so a command
// sequence on the render thread is never reordered against the queue.
type CommandQueue struct {
	backend Backend
	cfg     QueueConfig

	mu    sync.Mutex
	ring  *containers.RingQueue[Command]
	stats Statistics

	// Goroutine id of the render thread, 0 until marked.
	renderThread atomic.Uint64
}

func NewCommandQueue(backend Backend, cfg QueueConfig) (*CommandQueue, error) {
	if backend == nil {
		return nil, core.NewError(core.ErrNullReference, "command queue requires a backend")
	}
	if cfg.MaxQueuedCommands <= 0 {
		cfg.MaxQueuedCommands = DefaultQueueConfig().MaxQueuedCommands
	}
	if cfg.MaxCommandsPerFrame < 0 {
		cfg.MaxCommandsPerFrame = 0
	}
	return &CommandQueue{
		backend: backend,
		cfg:     cfg,
		ring:    containers.NewRingQueue[Command](cfg.MaxQueuedCommands),
	}, nil
}

func (q *CommandQueue) Backend() Backend { return q.backend }

// MarkRenderThread designates the calling goroutine as the render
// thread. Called once during render system initialization, after the
// platform layer has locked the main goroutine to its OS thread.
func (q *CommandQueue) MarkRenderThread() {
	id := goroutineID()
	q.renderThread.Store(id)
	core.LogDebug("render thread marked (goroutine %d)", id)
}

// IsRenderThread reports whether the caller runs on the render thread.
func (q *CommandQueue) IsRenderThread() bool {
	rt := q.renderThread.Load()
	return rt != 0 && rt == goroutineID()
}

// Submit hands a command to the queue. On the render thread, or with
// executeImmediate set, the command runs synchronously on the calling
// goroutine; otherwise it is enqueued for the next drain. The only
// error conditions are a nil command and a saturated queue; execution
// failures are logged, not returned.
func (q *CommandQueue) Submit(cmd Command, executeImmediate bool) error {
	if cmd == nil {
		return core.NewError(core.ErrNullReference, "nil render command")
	}

	q.mu.Lock()
	q.stats.Submitted++
	q.mu.Unlock()

	if executeImmediate || q.IsRenderThread() {
		q.execute(cmd)
		return nil
	}

	q.mu.Lock()
	err := q.ring.Enqueue(cmd)
	if err != nil {
		q.stats.Dropped++
	}
	q.mu.Unlock()

	if err != nil {
		if q.cfg.WarnOnDrop {
			core.LogWarn("render queue full (%d), dropped command %s", q.cfg.MaxQueuedCommands, cmd.Name())
		}
		return ErrQueueFull
	}
	return nil
}

// SubmitBatch applies the Submit policy to each command in order. All
// commands are attempted; the returned error joins any failures.
func (q *CommandQueue) SubmitBatch(cmds []Command, executeImmediate bool) error {
	var errs []error
	for _, cmd := range cmds {
		if err := q.Submit(cmd, executeImmediate); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ProcessCommands drains up to MaxCommandsPerFrame queued commands in
// FIFO order. Only the render thread may drain; other callers get a
// diagnostic and zero.
func (q *CommandQueue) ProcessCommands() int {
	return q.drain(q.cfg.MaxCommandsPerFrame)
}

// FlushAll drains the queue completely, ignoring the per-frame cap.
func (q *CommandQueue) FlushAll() int {
	return q.drain(0)
}

func (q *CommandQueue) drain(max int) int {
	if !q.IsRenderThread() {
		core.LogError("render queue drained off the render thread, refusing")
		return 0
	}

	processed := 0
	for max <= 0 || processed < max {
		q.mu.Lock()
		cmd, err := q.ring.Dequeue()
		q.mu.Unlock()
		if err != nil {
			break
		}
		// The lock is dropped during execution so commands can submit
		// follow-up work.
		q.execute(cmd)
		processed++
	}
	return processed
}

func (q *CommandQueue) execute(cmd Command) {
	var start time.Time
	if q.cfg.EnableProfiling {
		start = time.Now()
	}

	err := runCommand(cmd, q.backend)

	q.mu.Lock()
	q.stats.Processed++
	q.stats.FrameCost += cmd.Cost()
	if err != nil {
		q.stats.Failed++
	}
	q.mu.Unlock()

	if err != nil {
		core.LogError("render command %s failed: %v", cmd.Name(), err)
	}
	if q.cfg.EnableProfiling {
		if elapsed := time.Since(start); elapsed > slowCommandThreshold {
			core.LogWarn("render command %s took %s", cmd.Name(), elapsed)
		}
	}
}

func runCommand(cmd Command, backend Backend) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewError(core.ErrInvalidState, "panic: %v", r)
		}
	}()
	return cmd.Execute(backend)
}

// BeginFrame resets the per-frame cost accumulator.
func (q *CommandQueue) BeginFrame() {
	q.mu.Lock()
	q.stats.FrameCost = 0
	q.mu.Unlock()
}

// QueuedCount returns the number of commands waiting in the ring.
func (q *CommandQueue) QueuedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Len()
}

func (q *CommandQueue) Statistics() Statistics {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

func (q *CommandQueue) ResetStatistics() {
	q.mu.Lock()
	q.stats = Statistics{}
	q.mu.Unlock()
}

// goroutineID extracts the current goroutine's id from its stack
// header. Costs a runtime.Stack call, so the result is compared, never
// stored per command.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(string(buf[:n]))
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
