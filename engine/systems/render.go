package systems

import (
	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

// RenderSystem drives the renderer frontend. Its Initialize marks the
// calling goroutine as the render thread, so the engine must initialize
// systems from the goroutine that owns the graphics context.
type RenderSystem struct {
	BaseSystem

	renderer *renderer.Renderer

	appName string
	width   uint32
	height  uint32
}

func NewRenderSystem(r *renderer.Renderer, appName string, width, height uint32) (*RenderSystem, error) {
	if r == nil {
		return nil, core.NewError(core.ErrNullReference, "render system requires a renderer")
	}
	if width == 0 || height == 0 {
		return nil, core.NewError(core.ErrInvalidParameter, "render system needs a non-zero framebuffer size")
	}
	return &RenderSystem{
		renderer: r,
		appName:  appName,
		width:    width,
		height:   height,
	}, nil
}

func (rs *RenderSystem) Name() string             { return "Render" }
func (rs *RenderSystem) Priority() SystemPriority { return PriorityCore }

func (rs *RenderSystem) Initialize() error {
	rs.renderer.Queue().MarkRenderThread()
	if err := rs.renderer.Initialize(rs.appName, rs.width, rs.height); err != nil {
		return err
	}
	rs.MarkInitialized()
	return nil
}

func (rs *RenderSystem) Update(deltaTime float64) error { return nil }

// Render drains commands queued by other systems and layers during this
// frame. PreRender has already opened the frame at this point.
func (rs *RenderSystem) Render(deltaTime float64) error {
	rs.renderer.Queue().ProcessCommands()
	return nil
}

func (rs *RenderSystem) Shutdown() error {
	err := rs.renderer.Shutdown()
	rs.MarkShutdown()
	return err
}

// PreRender opens the frame. Queued commands from background loads are
// drained first so resource creation lands before any draw.
func (rs *RenderSystem) PreRender(deltaTime float64) error {
	if err := rs.renderer.PreRender(deltaTime); err != nil {
		return err
	}
	rs.renderer.Queue().ProcessCommands()
	return nil
}

// PostRender presents the frame.
func (rs *RenderSystem) PostRender(deltaTime float64) error {
	return rs.renderer.PostRender(deltaTime)
}

func (rs *RenderSystem) OnResize(width, height uint32) {
	rs.width = width
	rs.height = height
	rs.renderer.OnResize(width, height)
}

func (rs *RenderSystem) Renderer() *renderer.Renderer { return rs.renderer }

func (rs *RenderSystem) Settings() metadata.RenderSettings { return rs.renderer.Settings() }

func (rs *RenderSystem) ApplySettings(settings metadata.RenderSettings) {
	rs.renderer.ApplySettings(settings)
}
