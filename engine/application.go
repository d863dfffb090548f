package engine

import (
	"time"

	"github.com/hcfgod/Vortex-sub001/engine/config"
	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/platform"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name string
	// Log level used before the configuration files are loaded.
	LogLevel string
	RunMode  RunMode
	// Directory holding the engine configuration documents.
	ConfigDir string
}

// Application owns the window and the engine and runs the main loop.
// Hosts that own the loop themselves drive AppInit, AppIterate, AppEvent
// and AppQuit directly; Run is built on the same four steps, so both
// shapes behave identically.
type Application struct {
	game     *Game
	engine   *Engine
	platform *platform.Platform
}

func NewApplication(g *Game) (*Application, error) {
	if g == nil {
		return nil, core.NewError(core.ErrNullReference, "application needs a game")
	}
	cfg := g.ApplicationConfig
	if cfg == nil {
		cfg = &ApplicationConfig{}
		g.ApplicationConfig = cfg
	}
	if cfg.Name == "" {
		cfg.Name = "Vortex"
	}
	if cfg.StartWidth == 0 {
		cfg.StartWidth = 1280
	}
	if cfg.StartHeight == 0 {
		cfg.StartHeight = 720
	}
	if cfg.LogLevel != "" {
		core.ConfigureLogging(core.LoggingOptions{
			Level:         cfg.LogLevel,
			EnableConsole: true,
			ConsoleColors: true,
		})
	}

	e, err := New(Config{
		Name:      cfg.Name,
		Width:     cfg.StartWidth,
		Height:    cfg.StartHeight,
		RunMode:   cfg.RunMode,
		ConfigDir: cfg.ConfigDir,
	})
	if err != nil {
		return nil, err
	}

	return &Application{
		game:     g,
		engine:   e,
		platform: platform.New(),
	}, nil
}

// AppInit opens the window, brings the engine up and attaches the game.
// Must run on the main OS thread, which then acts as the render thread.
func (a *Application) AppInit() error {
	cfg := a.game.ApplicationConfig

	if err := a.platform.Startup(platform.Config{
		Title:  cfg.Name,
		PosX:   cfg.StartPosX,
		PosY:   cfg.StartPosY,
		Width:  cfg.StartWidth,
		Height: cfg.StartHeight,
	}, a.engine.Input().State(), a.routeEvent); err != nil {
		return err
	}

	if err := a.engine.Initialize(); err != nil {
		if platformErr := a.platform.Shutdown(); platformErr != nil {
			core.LogError("platform shutdown after failed init: %v", platformErr)
		}
		return err
	}

	// Input events flow through the same router as window events, so
	// layers see every platform event before dispatcher subscribers.
	a.engine.Input().State().SetEventSink(a.routeEvent)

	a.game.Engine = a.engine
	if a.game.FnInitialize != nil {
		if err := a.game.FnInitialize(); err != nil {
			a.AppQuit()
			return err
		}
	}

	if _, err := a.engine.Layers().PushLayer("game", &gameLayer{game: a.game}, LayerOptions{Type: LayerGame}); err != nil {
		a.AppQuit()
		return err
	}

	// The framebuffer can differ from the requested window size on
	// high-DPI displays; sync everyone to the real one.
	fbw, fbh := a.platform.FramebufferSize()
	a.engine.OnResize(fbw, fbh)
	if a.game.FnOnResize != nil {
		if err := a.game.FnOnResize(fbw, fbh); err != nil {
			core.LogError("game resize hook failed: %v", err)
		}
	}
	return nil
}

// AppIterate runs exactly one frame: pump and route platform events,
// fold in configuration changes, update, render, cap the frame rate.
func (a *Application) AppIterate() error {
	frameStart := time.Now()

	if !a.platform.PumpMessages() {
		a.engine.Stop()
	}

	if a.engine.Configuration().ReloadChangedFiles() {
		a.applyConfigDeltas()
	}

	if err := a.engine.Update(); err != nil {
		return err
	}
	if err := a.engine.Render(); err != nil {
		return err
	}

	a.limitFrameRate(frameStart)
	return nil
}

// AppEvent injects one externally produced platform event, for hosts
// that own the event loop. Routing matches PumpMessages: layers first,
// dispatcher for whatever they leave unconsumed.
func (a *Application) AppEvent(ctx *core.EventContext) {
	if ctx == nil {
		return
	}
	if a.routeEvent(*ctx) {
		ctx.MarkHandled()
	}
}

// AppQuit detaches the game and tears everything down, window last.
func (a *Application) AppQuit() {
	if a.game.FnShutdown != nil {
		if err := a.game.FnShutdown(); err != nil {
			core.LogError("game shutdown: %v", err)
		}
	}
	if err := a.engine.Shutdown(); err != nil {
		core.LogError("engine shutdown: %v", err)
	}
	if err := a.platform.Shutdown(); err != nil {
		core.LogError("platform shutdown: %v", err)
	}
}

// Run owns the main loop until the engine stops, then shuts down.
func (a *Application) Run() error {
	if err := a.AppInit(); err != nil {
		return err
	}
	for a.engine.Running() {
		if err := a.AppIterate(); err != nil {
			// Per-system failures are logged where they happen; only
			// a dead engine breaks the loop.
			if core.KindOf(err) == core.ErrEngineNotInitialized {
				break
			}
		}
	}
	a.AppQuit()
	return nil
}

// Stop asks the loop to exit after the current frame. Safe from any
// goroutine.
func (a *Application) Stop() {
	a.engine.Stop()
}

func (a *Application) Engine() *Engine { return a.engine }

// routeEvent is the single sink for platform and input events. Window
// bookkeeping runs first, then layers back to front, then dispatcher
// subscribers for anything the layers left unconsumed.
func (a *Application) routeEvent(ctx core.EventContext) bool {
	switch ctx.Type {
	case core.EventWindowClose:
		a.engine.Stop()
	case core.EventWindowResize:
		if re, ok := ctx.Data.(core.WindowResizeEvent); ok {
			a.engine.OnResize(re.Width, re.Height)
		}
	}
	if a.engine.Layers().OnEvent(&ctx) {
		return true
	}
	return core.EventFire(ctx)
}

// applyConfigDeltas folds reloaded configuration into the window and
// the engine. Window keys are host-owned; the rest belongs to the
// engine.
func (a *Application) applyConfigDeltas() {
	core.LogInfo("configuration files changed, applying")
	s := a.engine.Configuration()

	a.platform.SetTitle(config.GetAs(s, "Window.Title", a.game.ApplicationConfig.Name))

	w := config.GetAs(s, "Window.Width", 0)
	h := config.GetAs(s, "Window.Height", 0)
	if w > 0 && h > 0 {
		a.platform.SetSize(uint32(w), uint32(h))
	}

	a.engine.ApplyConfiguration()
}

func (a *Application) limitFrameRate(frameStart time.Time) {
	maxFPS := a.engine.MaxFrameRate()
	if maxFPS <= 0 {
		return
	}
	target := time.Second / time.Duration(maxFPS)
	if remaining := target - time.Since(frameStart); remaining > 0 {
		time.Sleep(remaining)
	}
}
