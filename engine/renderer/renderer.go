package renderer

import (
	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

// Renderer is the frontend: it owns the backend, the command queue and
// the active settings. Systems talk to the renderer; only commands talk
// to the backend.
type Renderer struct {
	backend  Backend
	queue    *CommandQueue
	settings metadata.RenderSettings

	width       uint32
	height      uint32
	initialized bool
	frameActive bool
}

func New(backend Backend, queueConfig QueueConfig) (*Renderer, error) {
	if backend == nil {
		return nil, core.NewError(core.ErrNullReference, "renderer requires a backend")
	}
	queue, err := NewCommandQueue(backend, queueConfig)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		backend:  backend,
		queue:    queue,
		settings: metadata.DefaultRenderSettings(),
	}, nil
}

func (r *Renderer) Initialize(appName string, width, height uint32) error {
	if r.initialized {
		return core.NewError(core.ErrInvalidState, "renderer initialized twice")
	}
	if err := r.backend.Initialize(appName, width, height); err != nil {
		return core.WrapError(core.ErrRendererInitFailed, err, "backend %s", r.backend.Name())
	}
	r.width = width
	r.height = height
	r.initialized = true
	return nil
}

func (r *Renderer) Shutdown() error {
	if !r.initialized {
		return nil
	}
	if n := r.queue.FlushAll(); n > 0 {
		core.LogDebug("flushed %d render commands at shutdown", n)
	}
	r.initialized = false
	return r.backend.Shutdown()
}

func (r *Renderer) Queue() *CommandQueue { return r.queue }
func (r *Renderer) Backend() Backend     { return r.backend }

func (r *Renderer) Settings() metadata.RenderSettings { return r.settings }

// ApplySettings forwards new settings to the backend through the queue
// so the swapchain is never touched mid-frame from a foreign thread.
func (r *Renderer) ApplySettings(settings metadata.RenderSettings) {
	r.settings = settings
	cmd := NewFuncCommand("ApplyRenderSettings", 1, func(b Backend) error {
		return b.ApplySettings(settings)
	})
	if err := r.queue.Submit(cmd, false); err != nil {
		core.LogWarn("could not apply render settings: %v", err)
	}
}

func (r *Renderer) OnResize(width, height uint32) {
	r.width = width
	r.height = height
	cmd := NewFuncCommand("BackendResize", 1, func(b Backend) error {
		return b.Resized(width, height)
	})
	if err := r.queue.Submit(cmd, false); err != nil {
		core.LogWarn("could not submit resize: %v", err)
	}
}

func (r *Renderer) Size() (width, height uint32) {
	return r.width, r.height
}

// PreRender opens the frame on the render thread.
func (r *Renderer) PreRender(deltaTime float64) error {
	if !r.initialized {
		return core.NewError(core.ErrEngineNotInitialized, "renderer not initialized")
	}
	r.queue.BeginFrame()
	if err := r.backend.BeginFrame(deltaTime); err != nil {
		return err
	}
	r.frameActive = true
	return nil
}

// PostRender presents the frame.
func (r *Renderer) PostRender(deltaTime float64) error {
	if !r.frameActive {
		return core.NewError(core.ErrInvalidState, "post-render without an open frame")
	}
	r.frameActive = false
	return r.backend.EndFrame(deltaTime)
}
