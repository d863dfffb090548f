package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// EventSink receives every translated window event raised during
// PumpMessages. Returning true means the event was consumed.
type EventSink func(core.EventContext) bool

// Config describes the window to open.
type Config struct {
	Title string
	// Window starting position, if applicable. Zero leaves placement
	// to the window manager.
	PosX uint32
	PosY uint32
	// Window starting size in screen coordinates.
	Width  uint32
	Height uint32
}

// Platform owns the GLFW window and turns its callbacks into engine
// events and input state transitions.
type Platform struct {
	Window *glfw.Window

	input *core.InputState
	sink  EventSink

	fbWidth  uint32
	fbHeight uint32

	joyConnected [core.MAX_GAMEPADS]bool
}

func New() *Platform {
	return &Platform{}
}

// Startup initializes GLFW and opens the window. Device transitions feed
// in; window events reach the sink typed.
func (p *Platform) Startup(cfg Config, in *core.InputState, sink EventSink) error {
	if in == nil || sink == nil {
		return core.NewError(core.ErrNullReference, "platform startup needs an input state and an event sink")
	}
	if err := glfw.Init(); err != nil {
		return core.WrapError(core.ErrEngineSystemInitFailed, err, "glfw initialization")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	// The renderer backend owns the graphics context, not GLFW.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return core.WrapError(core.ErrEngineSystemInitFailed, err, "window creation")
	}
	p.Window = window
	p.input = in
	p.sink = sink

	fbw, fbh := window.GetFramebufferSize()
	p.fbWidth, p.fbHeight = uint32(fbw), uint32(fbh)

	window.SetKeyCallback(p.onKey)
	window.SetCharCallback(p.onChar)
	window.SetMouseButtonCallback(p.onMouseButton)
	window.SetCursorPosCallback(p.onCursorPos)
	window.SetScrollCallback(p.onScroll)
	window.SetFramebufferSizeCallback(p.onFramebufferSize)
	window.SetFocusCallback(p.onFocus)
	window.SetPosCallback(p.onPos)
	window.SetCloseCallback(p.onClose)

	if cfg.PosX != 0 || cfg.PosY != 0 {
		window.SetPos(int(cfg.PosX), int(cfg.PosY))
	}
	window.Show()
	return nil
}

// PumpMessages drains pending window events, firing the callbacks
// inline, then polls gamepads. Returns false once the window wants to
// close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	p.pollGamepads()
	return !p.Window.ShouldClose()
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// FramebufferSize returns the current framebuffer size in pixels, which
// on high-DPI displays differs from the window size.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	return p.fbWidth, p.fbHeight
}

func (p *Platform) SetTitle(title string) {
	p.Window.SetTitle(title)
}

func (p *Platform) SetSize(width, height uint32) {
	p.Window.SetSize(int(width), int(height))
}

// ---------------------------------------------------------------------------
// GLFW callbacks. All of them run on the main thread inside PollEvents.

func (p *Platform) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	code, ok := TranslateKey(key)
	if !ok {
		return
	}
	switch action {
	case glfw.Press, glfw.Repeat:
		p.input.ProcessKey(code, true)
	case glfw.Release:
		p.input.ProcessKey(code, false)
	}
}

func (p *Platform) onChar(_ *glfw.Window, ch rune) {
	p.input.ProcessChar(ch)
}

func (p *Platform) onMouseButton(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	b, ok := translateMouseButton(button)
	if !ok {
		return
	}
	p.input.ProcessButton(b, action == glfw.Press)
}

func (p *Platform) onCursorPos(_ *glfw.Window, x, y float64) {
	p.input.ProcessMouseMove(float32(x), float32(y))
}

func (p *Platform) onScroll(_ *glfw.Window, xoff, yoff float64) {
	p.input.ProcessMouseWheel(float32(xoff), float32(yoff))
}

func (p *Platform) onFramebufferSize(_ *glfw.Window, width, height int) {
	p.fbWidth, p.fbHeight = uint32(width), uint32(height)
	p.sink(core.EventContext{
		Type: core.EventWindowResize,
		Data: core.WindowResizeEvent{Width: uint32(width), Height: uint32(height)},
	})
}

func (p *Platform) onFocus(_ *glfw.Window, focused bool) {
	t := core.EventWindowFocus
	if !focused {
		t = core.EventWindowLostFocus
	}
	p.sink(core.EventContext{Type: t})
}

func (p *Platform) onPos(_ *glfw.Window, x, y int) {
	p.sink(core.EventContext{
		Type: core.EventWindowMoved,
		Data: core.WindowMovedEvent{X: int32(x), Y: int32(y)},
	})
}

func (p *Platform) onClose(_ *glfw.Window) {
	p.sink(core.EventContext{Type: core.EventWindowClose})
}
