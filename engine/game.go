package engine

import (
	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// Game is the user-supplied half of an application: window configuration
// plus lifecycle callbacks. The Application sets Engine before
// FnInitialize runs, so every callback can reach the systems through it.
type Game struct {
	ApplicationConfig *ApplicationConfig
	Engine            *Engine
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnEvent         OnEvent
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type Render func(deltaTime float64) error
type OnEvent func(ctx *core.EventContext) bool
type OnResize func(width uint32, height uint32) error
type Shutdown func() error

// gameLayer adapts the Game callbacks to the layer interface so game
// code runs inside the ordinary layer traversal.
type gameLayer struct {
	game *Game
}

func (gl *gameLayer) OnAttach(e *Engine) {}
func (gl *gameLayer) OnDetach(e *Engine) {}

func (gl *gameLayer) OnUpdate(e *Engine, deltaTime float64) {
	if gl.game.FnUpdate == nil {
		return
	}
	if err := gl.game.FnUpdate(deltaTime); err != nil {
		core.LogError("game update failed, stopping: %v", err)
		e.Stop()
	}
}

func (gl *gameLayer) OnRender(e *Engine, deltaTime float64) {
	if gl.game.FnRender == nil {
		return
	}
	if err := gl.game.FnRender(deltaTime); err != nil {
		core.LogError("game render failed, stopping: %v", err)
		e.Stop()
	}
}

func (gl *gameLayer) OnEvent(e *Engine, ctx *core.EventContext) bool {
	if gl.game.FnOnEvent == nil {
		return false
	}
	return gl.game.FnOnEvent(ctx)
}
