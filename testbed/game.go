package testbed

import (
	"fmt"

	"github.com/hcfgod/Vortex-sub001/engine"
	"github.com/hcfgod/Vortex-sub001/engine/assets"
	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/math"
	"github.com/hcfgod/Vortex-sub001/engine/renderer"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/components"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	camera *components.Camera

	width  uint32
	height uint32

	moveSpeed float32
	turnSpeed float32

	crateTexture *assets.Handle
	spriteShader *assets.Handle

	// Status line cadence in seconds.
	statusEvery float64
	sinceStatus float64
}

func NewTestGame() (*TestGame, error) {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				StartPosX:   100,
				StartPosY:   100,
				StartWidth:  1280,
				StartHeight: 720,
				Name:        "Vortex Testbed",
				LogLevel:    "debug",
			},
			State: &gameState{
				moveSpeed:   5.0,
				turnSpeed:   1.5,
				statusEvery: 2.0,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnEvent = tg.OnEvent
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) Initialize() error {
	core.LogDebug("testbed initialize")

	if g.Engine == nil {
		return fmt.Errorf("the engine is not attached to the game yet")
	}

	state := g.State.(*gameState)
	state.width, state.height = g.Engine.Size()

	state.camera = g.Engine.Cameras().GetDefault()
	state.camera.SetPosition(math.NewVec3(0.0, 2.0, 10.0))

	g.Engine.Input().AddActionMap(g.buildGameplayMap())

	// Loads are asynchronous; the registry substitutes fallbacks while
	// they run or when the sources are missing.
	registry := g.Engine.Assets().Registry()
	crate, err := registry.LoadTexture("crate", "textures/crate.png", assets.TextureOptions{}, nil)
	if err != nil {
		core.LogWarn("crate texture not queued: %v", err)
	} else {
		state.crateTexture = crate
	}

	sprite, err := registry.LoadShader("sprite",
		"shaders/sprite.vert.glsl", "shaders/sprite.frag.glsl",
		metadata.DefaultShaderOptions(), nil)
	if err != nil {
		core.LogWarn("sprite shader not queued: %v", err)
	} else {
		state.spriteShader = sprite
	}

	return nil
}

func (g *TestGame) buildGameplayMap() *core.ActionMap {
	m := core.NewActionMap("gameplay")

	m.AddAction(core.NewInputAction("move-forward",
		core.AxisKeysBinding(core.KEY_S, core.KEY_W),
		core.GamepadAxisBinding(0, core.GAMEPAD_AXIS_LEFT_Y, 0.2)))

	m.AddAction(core.NewInputAction("move-right",
		core.AxisKeysBinding(core.KEY_A, core.KEY_D),
		core.GamepadAxisBinding(0, core.GAMEPAD_AXIS_LEFT_X, 0.2)))

	m.AddAction(core.NewInputAction("turn",
		core.AxisKeysBinding(core.KEY_LEFT, core.KEY_RIGHT),
		core.GamepadAxisBinding(0, core.GAMEPAD_AXIS_RIGHT_X, 0.2)))

	m.AddAction(core.NewInputAction("quit", core.KeyBinding(core.KEY_ESCAPE)).
		OnPerformed(func(*core.InputAction) {
			g.Engine.Stop()
		}))

	return m
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	dt := float32(deltaTime)

	if gameplay := g.Engine.Input().ActionMap("gameplay"); gameplay != nil {
		if v := gameplay.Action("move-forward").Value(); v != 0 {
			state.camera.MoveForward(v * state.moveSpeed * dt)
		}
		if v := gameplay.Action("move-right").Value(); v != 0 {
			state.camera.MoveRight(v * state.moveSpeed * dt)
		}
		if v := gameplay.Action("turn").Value(); v != 0 {
			state.camera.Yaw(v * state.turnSpeed * dt)
		}
	}

	in := g.Engine.Input().State()
	if in.IsKeyDown(core.KEY_SPACE) {
		state.camera.MoveUp(state.moveSpeed * dt)
	}
	if in.IsKeyDown(core.KEY_LCONTROL) {
		state.camera.MoveDown(state.moveSpeed * dt)
	}

	state.sinceStatus += deltaTime
	if state.sinceStatus >= state.statusEvery {
		state.sinceStatus = 0

		pos := state.camera.Position()
		mouseX, mouseY := in.MousePosition()
		core.LogInfo("FPS: %5.1f (%5.2fms)  Pos=[%6.2f %6.2f %6.2f]  Mouse=[%4.0f %4.0f]",
			g.Engine.Time().FPS(), g.Engine.Time().FrameTimeMS(),
			pos.X, pos.Y, pos.Z,
			mouseX, mouseY)
	}

	return nil
}

func (g *TestGame) Render(deltaTime float64) error {
	state := g.State.(*gameState)

	if state.spriteShader == nil || !state.spriteShader.IsLoaded() {
		return nil
	}
	shader := state.spriteShader.Shader()
	if shader == nil {
		return nil
	}

	cmd := renderer.NewFuncCommand("testbed.bind-sprite", 1, func(b renderer.Backend) error {
		return b.ShaderUse(shader)
	})
	return g.Engine.Rendering().Renderer().Queue().Submit(cmd, false)
}

func (g *TestGame) OnEvent(ctx *core.EventContext) bool {
	switch ctx.Type {
	case core.EventKeyPressed:
		if ev, ok := ctx.Data.(core.KeyEvent); ok && !ev.Repeat {
			core.LogDebug("key %d pressed", ev.Key)
		}
	case core.EventGamepadConnected:
		if ev, ok := ctx.Data.(core.GamepadEvent); ok {
			core.LogInfo("gamepad %d connected: %s", ev.Slot, g.Engine.Input().State().GamepadName(ev.Slot))
		}
	case core.EventGamepadDisconnected:
		if ev, ok := ctx.Data.(core.GamepadEvent); ok {
			core.LogInfo("gamepad %d disconnected", ev.Slot)
		}
	}
	return false
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)

	if state.crateTexture != nil {
		state.crateTexture.Release()
	}
	if state.spriteShader != nil {
		state.spriteShader.Release()
	}
	return nil
}
