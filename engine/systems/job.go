package systems

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

const (
	DEFAULT_JOB_QUEUE_SIZE = 256
	MAX_JOB_WORKERS        = 64
)

// Job is one unit of background work. OnStart runs on a worker
// goroutine; OnSuccess or OnFail runs on the same worker once OnStart
// returns. A panic inside any of the three is captured and reported
// through OnFail.
type Job struct {
	Name      string
	OnStart   func() error
	OnSuccess func()
	OnFail    func(err error)
}

type JobStats struct {
	Submitted uint64
	Completed uint64
	Failed    uint64
	Rejected  uint64
}

// JobSystem is a fixed worker pool draining a buffered job channel.
// Asset loads and shader recompiles run here so the main goroutine
// never blocks on disk or the shader compiler.
type JobSystem struct {
	BaseSystem

	workers   int
	queueSize int
	jobs      chan Job
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	rejected  atomic.Uint64
}

type JobSystemConfig struct {
	// Workers is the pool size. Zero or negative picks NumCPU, and the
	// result is clamped to MAX_JOB_WORKERS.
	Workers   int
	QueueSize int
}

func NewJobSystem(config JobSystemConfig) *JobSystem {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > MAX_JOB_WORKERS {
		workers = MAX_JOB_WORKERS
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = DEFAULT_JOB_QUEUE_SIZE
	}
	return &JobSystem{
		workers:   workers,
		queueSize: queueSize,
	}
}

func (js *JobSystem) Name() string             { return "Jobs" }
func (js *JobSystem) Priority() SystemPriority { return PriorityCritical }

func (js *JobSystem) Initialize() error {
	if js.IsInitialized() {
		return core.NewError(core.ErrInvalidState, "job system initialized twice")
	}
	js.jobs = make(chan Job, js.queueSize)
	js.mu.Lock()
	js.closed = false
	js.mu.Unlock()
	for i := 0; i < js.workers; i++ {
		js.wg.Add(1)
		go js.worker()
	}
	core.LogDebug("job system started %d workers (queue %d)", js.workers, js.queueSize)
	js.MarkInitialized()
	return nil
}

func (js *JobSystem) Update(deltaTime float64) error { return nil }
func (js *JobSystem) Render(deltaTime float64) error { return nil }

// Shutdown closes the queue and waits for the workers to finish the
// jobs already submitted.
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		core.LogWarn("job system shut down twice")
		return nil
	}
	js.closed = true
	close(js.jobs)
	js.mu.Unlock()

	js.wg.Wait()
	js.MarkShutdown()
	core.LogDebug("job system drained, %d jobs completed, %d failed",
		js.completed.Load(), js.failed.Load())
	return nil
}

// Submit queues a job for a worker. Blocks when the queue is full.
// After shutdown the job is rejected through its OnFail callback.
func (js *JobSystem) Submit(job Job) {
	if job.OnStart == nil {
		core.LogWarn("dropping job %q with no work function", job.Name)
		return
	}

	js.mu.RLock()
	if js.closed || !js.IsInitialized() {
		js.mu.RUnlock()
		js.rejected.Add(1)
		core.LogWarn("job %q rejected, the job system is not running", job.Name)
		if job.OnFail != nil {
			job.OnFail(core.NewError(core.ErrInvalidState, "job system is not running"))
		}
		return
	}
	js.submitted.Add(1)
	js.jobs <- job
	js.mu.RUnlock()
}

// Run adapts the pool to the callback shape the asset registry expects:
// a named task plus a single completion callback taking the error.
func (js *JobSystem) Run(name string, task func() error, onComplete func(error)) {
	js.Submit(Job{
		Name:    name,
		OnStart: task,
		OnSuccess: func() {
			if onComplete != nil {
				onComplete(nil)
			}
		},
		OnFail: func(err error) {
			if onComplete != nil {
				onComplete(err)
			}
		},
	})
}

func (js *JobSystem) Pending() int {
	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.jobs == nil {
		return 0
	}
	return len(js.jobs)
}

func (js *JobSystem) Stats() JobStats {
	return JobStats{
		Submitted: js.submitted.Load(),
		Completed: js.completed.Load(),
		Failed:    js.failed.Load(),
		Rejected:  js.rejected.Load(),
	}
}

func (js *JobSystem) worker() {
	defer js.wg.Done()
	for job := range js.jobs {
		js.runJob(job)
	}
}

func (js *JobSystem) runJob(job Job) {
	err := js.invoke(job)
	if err != nil {
		js.failed.Add(1)
		core.LogError("job %q failed: %v", job.Name, err)
		if job.OnFail != nil {
			js.invokeCallback(job.Name, func() { job.OnFail(err) })
		}
		return
	}
	js.completed.Add(1)
	if job.OnSuccess != nil {
		js.invokeCallback(job.Name, func() { job.OnSuccess() })
	}
}

func (js *JobSystem) invoke(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewError(core.ErrInvalidState, "job %q panicked: %v", job.Name, r)
		}
	}()
	return job.OnStart()
}

func (js *JobSystem) invokeCallback(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			core.LogError("job %q callback panicked: %v", name, r)
		}
	}()
	fn()
}
