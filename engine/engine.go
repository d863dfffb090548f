package engine

import (
	"path/filepath"
	"sync/atomic"

	"github.com/hcfgod/Vortex-sub001/engine/assets"
	"github.com/hcfgod/Vortex-sub001/engine/config"
	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
	"github.com/hcfgod/Vortex-sub001/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization completed and the main loop may run
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine shutdown completed
	EngineStageShutdown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting-down"
	case EngineStageShutdown:
		return "shutdown"
	}
	return "unknown"
}

// RunMode selects how the runtime treats gameplay input. Edit keeps the
// engine alive for tooling with gameplay input disabled; PlayInEditor
// and Production run the game for real.
type RunMode uint8

const (
	RunModeProduction RunMode = iota
	RunModeEdit
	RunModePlayInEditor
)

func (m RunMode) String() string {
	switch m {
	case RunModeProduction:
		return "production"
	case RunModeEdit:
		return "edit"
	case RunModePlayInEditor:
		return "play-in-editor"
	}
	return "unknown"
}

// Config carries everything Engine.New needs before the configuration
// files are loaded. Zero values pick workable defaults, including a
// headless render backend.
type Config struct {
	Name   string
	Width  uint32
	Height uint32

	RunMode RunMode

	// ConfigDir holds EngineDefaults/Engine/UserPreferences documents.
	// Empty means "config".
	ConfigDir string

	// Backend nil selects the headless null backend.
	Backend renderer.Backend

	// Assets nil selects assets.DefaultRegistryConfig.
	Assets *assets.RegistryConfig

	// Queue nil selects renderer.DefaultQueueConfig.
	Queue *renderer.QueueConfig
}

// Engine is the core runtime: it owns the configuration store, the
// system registry and the layer stack, and drives the per-frame Update
// and Render passes. The window and the loop belong to the Application.
type Engine struct {
	stage   Stage
	runMode RunMode

	appName string
	width   uint32
	height  uint32

	configStore   *config.Store
	configDir     string
	userPrefsPath string

	systems *systems.Manager
	layers  *LayerStack

	timeSystem   *systems.TimeSystem
	eventSystem  *systems.EventSystem
	jobSystem    *systems.JobSystem
	renderSystem *systems.RenderSystem
	inputSystem  *systems.InputSystem
	assetSystem  *systems.AssetSystem
	cameraSystem *systems.CameraSystem

	// Stop may arrive from a signal goroutine while the loop reads.
	running atomic.Bool

	suspended    bool
	maxFrameRate int
}

const (
	configDefaultDir = "config"

	layerEngineDefaults  = "EngineDefaults"
	layerEngineConfig    = "Engine"
	layerUserPreferences = "UserPreferences"
)

func New(cfg Config) (*Engine, error) {
	if cfg.Name == "" {
		cfg.Name = "Vortex"
	}
	if cfg.Width == 0 {
		cfg.Width = 1280
	}
	if cfg.Height == 0 {
		cfg.Height = 720
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = configDefaultDir
	}

	e := &Engine{
		stage:     EngineStageUninitialized,
		runMode:   cfg.RunMode,
		appName:   cfg.Name,
		width:     cfg.Width,
		height:    cfg.Height,
		configDir: cfg.ConfigDir,
		systems:   systems.NewManager(),
	}
	e.layers = NewLayerStack(e)

	e.loadConfiguration()
	e.applyLoggingConfiguration()
	e.maxFrameRate = config.GetAs(e.configStore, "Engine.MaxFrameRate", 0)

	backend := cfg.Backend
	if backend == nil {
		backend = renderer.NewNullBackend()
	}
	queueCfg := renderer.DefaultQueueConfig()
	if cfg.Queue != nil {
		queueCfg = *cfg.Queue
	}
	queueCfg.EnableProfiling = config.GetAs(e.configStore, "Performance.EnableProfiling", queueCfg.EnableProfiling)

	rend, err := renderer.New(backend, queueCfg)
	if err != nil {
		return nil, err
	}

	renderSystem, err := systems.NewRenderSystem(rend, e.appName, e.width, e.height)
	if err != nil {
		return nil, err
	}

	jobSystem := systems.NewJobSystem(systems.JobSystemConfig{
		Workers: config.GetAs(e.configStore, "Performance.MaxConcurrentThreads", 0),
	})

	assetCfg := assets.DefaultRegistryConfig()
	if cfg.Assets != nil {
		assetCfg = *cfg.Assets
	}
	assetSystem, err := systems.NewAssetSystem(assetCfg, jobSystem, rend)
	if err != nil {
		return nil, err
	}

	e.timeSystem = systems.NewTimeSystem()
	e.eventSystem = systems.NewEventSystem()
	e.jobSystem = jobSystem
	e.renderSystem = renderSystem
	e.assetSystem = assetSystem
	e.inputSystem = systems.NewInputSystem()
	e.cameraSystem = systems.NewCameraSystem(systems.CameraSystemConfig{})

	// Registration order matters inside a priority band: time before
	// events before workers, render before assets.
	for _, sys := range []systems.System{
		e.timeSystem,
		e.eventSystem,
		e.jobSystem,
		e.renderSystem,
		e.assetSystem,
		e.inputSystem,
		e.cameraSystem,
	} {
		if err := e.systems.Register(sys); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Initialize brings every registered system up and moves the engine to
// Running. Calling it on an initialized engine is a recoverable error.
func (e *Engine) Initialize() error {
	if e.stage != EngineStageUninitialized {
		return core.NewError(core.ErrEngineAlreadyInitialized,
			"engine is %s, initialize needs a fresh engine", e.stage)
	}
	e.stage = EngineStageInitializing
	core.LogInfo("initializing %s (%dx%d, %s mode)", e.appName, e.width, e.height, e.runMode)

	if err := e.systems.InitializeAll(); err != nil {
		core.LogError("engine initialization failed: %v", err)
		if shutdownErr := e.systems.ShutdownAll(); shutdownErr != nil {
			core.LogError("cleanup after failed initialization: %v", shutdownErr)
		}
		e.stage = EngineStageUninitialized
		return err
	}

	e.applyRenderConfiguration()
	e.applyRunMode()

	e.stage = EngineStageRunning
	e.running.Store(true)
	core.EventFire(core.EventContext{Type: core.EventApplicationStarted, Data: core.ApplicationStartedEvent{}})
	return nil
}

// Update runs one simulation step: advance time, update systems in
// priority order, update layers, then announce the frame.
func (e *Engine) Update() error {
	if e.stage != EngineStageRunning {
		return core.NewError(core.ErrEngineNotInitialized, "update on a %s engine", e.stage)
	}
	if e.suspended {
		return nil
	}

	deltaTime := e.timeSystem.Tick()

	err := e.systems.UpdateAll(deltaTime)
	e.layers.Update(deltaTime)
	core.EventFire(core.EventContext{Type: core.EventEngineUpdate, Data: core.EngineUpdateEvent{Delta: deltaTime}})
	return err
}

// Render draws one frame: open it, let layers then systems record and
// drain commands, present, and finally clear the per-frame input edges.
func (e *Engine) Render() error {
	if e.stage != EngineStageRunning {
		return core.NewError(core.ErrEngineNotInitialized, "render on a %s engine", e.stage)
	}
	if e.suspended {
		return nil
	}

	deltaTime := e.timeSystem.Delta()

	if err := e.renderSystem.PreRender(deltaTime); err != nil {
		core.LogError("pre-render failed: %v", err)
		return err
	}

	e.layers.Render(deltaTime)
	err := e.systems.RenderAll(deltaTime)

	if postErr := e.renderSystem.PostRender(deltaTime); postErr != nil {
		core.LogError("post-render failed: %v", postErr)
		if err == nil {
			err = postErr
		}
	}

	core.EventFire(core.EventContext{Type: core.EventEngineRender, Data: core.EngineRenderEvent{Delta: deltaTime}})
	e.inputSystem.EndFrame()
	return err
}

// Stop asks the owning loop to exit after the current frame. Safe to
// call from any goroutine.
func (e *Engine) Stop() {
	if e.running.Swap(false) {
		core.LogInfo("engine stop requested")
	}
}

func (e *Engine) Running() bool { return e.running.Load() && e.stage == EngineStageRunning }

// Shutdown tears the runtime down: layers first, then systems in
// reverse priority, then the configuration store. Safe to call twice;
// the second call warns and does nothing.
func (e *Engine) Shutdown() error {
	if e.stage == EngineStageShutdown || e.stage == EngineStageUninitialized {
		core.LogWarn("engine shutdown called on a %s engine", e.stage)
		return nil
	}
	e.stage = EngineStageShuttingDown
	e.running.Store(false)
	core.LogInfo("shutting down %s", e.appName)

	e.layers.Clear()
	e.saveUserPreferences()

	err := e.systems.ShutdownAll()
	e.configStore.Clear()

	e.stage = EngineStageShutdown
	return err
}

// Suspension parks Update and Render while the window cannot present,
// e.g. minimized to a zero-sized framebuffer.
func (e *Engine) SetSuspended(suspended bool) {
	if e.suspended == suspended {
		return
	}
	e.suspended = suspended
	if suspended {
		core.LogDebug("engine suspended")
	} else {
		core.LogDebug("engine resumed")
	}
}

func (e *Engine) Suspended() bool { return e.suspended }

// OnResize propagates a new framebuffer size to the renderer. A zero
// size suspends the engine until a real size arrives.
func (e *Engine) OnResize(width, height uint32) {
	if width == 0 || height == 0 {
		e.SetSuspended(true)
		return
	}
	e.SetSuspended(false)
	e.width = width
	e.height = height
	e.renderSystem.OnResize(width, height)
}

func (e *Engine) Stage() Stage     { return e.stage }
func (e *Engine) RunMode() RunMode { return e.runMode }

// SetRunMode switches between edit and play modes at runtime, gating
// gameplay input accordingly.
func (e *Engine) SetRunMode(mode RunMode) {
	if e.runMode == mode {
		return
	}
	e.runMode = mode
	core.LogInfo("run mode is now %s", mode)
	e.applyRunMode()
}

func (e *Engine) applyRunMode() {
	e.inputSystem.SetGameplayInputEnabled(e.runMode != RunModeEdit)
}

func (e *Engine) Name() string                     { return e.appName }
func (e *Engine) Size() (uint32, uint32)           { return e.width, e.height }
func (e *Engine) MaxFrameRate() int                { return e.maxFrameRate }
func (e *Engine) Configuration() *config.Store     { return e.configStore }
func (e *Engine) Systems() *systems.Manager        { return e.systems }
func (e *Engine) Layers() *LayerStack              { return e.layers }
func (e *Engine) Time() *systems.TimeSystem        { return e.timeSystem }
func (e *Engine) Events() *systems.EventSystem     { return e.eventSystem }
func (e *Engine) Jobs() *systems.JobSystem         { return e.jobSystem }
func (e *Engine) Rendering() *systems.RenderSystem { return e.renderSystem }
func (e *Engine) Input() *systems.InputSystem      { return e.inputSystem }
func (e *Engine) Assets() *systems.AssetSystem     { return e.assetSystem }
func (e *Engine) Cameras() *systems.CameraSystem   { return e.cameraSystem }

// ---------------------------------------------------------------------------
// Configuration plumbing.

// loadConfiguration builds the layered store: built-in defaults under
// everything, then EngineDefaults, Engine, UserPreferences documents by
// ascending priority, with in-memory RuntimeOverrides on top.
func (e *Engine) loadConfiguration() {
	s := config.NewStore()
	e.configStore = s

	defaultsPath := filepath.Join(e.configDir, "EngineDefaults.toml")
	if err := s.LoadLayerFromFile(defaultsPath, layerEngineDefaults, 100, true); err != nil {
		core.LogError("missing %s, continuing with built-in defaults: %v", defaultsPath, err)
		s.AddOrReplaceLayer(layerEngineDefaults, 100)
		e.seedBuiltinDefaults()
	}

	enginePath := filepath.Join(e.configDir, "Engine.toml")
	if err := s.LoadLayerFromFile(enginePath, layerEngineConfig, 200, true); err != nil {
		if core.KindOf(err) != core.ErrFileNotFound {
			core.LogWarn("cannot load %s: %v", enginePath, err)
		}
	}

	e.userPrefsPath = filepath.Join(e.configDir, "UserPreferences.toml")
	if err := s.LoadLayerFromFile(e.userPrefsPath, layerUserPreferences, 900, true); err != nil {
		// First run: the layer exists empty and is written at shutdown.
		s.AddOrReplaceLayer(layerUserPreferences, 900)
	}

	// Runtime overrides sit above everything, including preferences.
	s.AddOrReplaceLayer(config.RuntimeOverridesLayer, config.RuntimeOverridesPriority)
}

func (e *Engine) seedBuiltinDefaults() {
	defaults := map[string]interface{}{
		"Engine.LogLevel":     "info",
		"Engine.MaxFrameRate": 0,
		"Renderer.VSync":      "Enabled",
	}
	for path, value := range defaults {
		if err := e.configStore.SetInLayer(layerEngineDefaults, 100, path, value); err != nil {
			core.LogWarn("cannot seed default %s: %v", path, err)
		}
	}
}

func (e *Engine) applyLoggingConfiguration() {
	s := e.configStore
	core.ConfigureLogging(core.LoggingOptions{
		Level:             config.GetAs(s, "Logging.Level", config.GetAs(s, "Engine.LogLevel", "info")),
		EnableConsole:     config.GetAs(s, "Logging.EnableConsole", true),
		ConsoleColors:     config.GetAs(s, "Logging.ConsoleColors", true),
		EnableFileLogging: config.GetAs(s, "Logging.EnableFileLogging", false),
		LogDirectory:      config.GetAs(s, "Logging.LogDirectory", "Logs"),
	})
}

// applyRenderConfiguration folds the [Renderer] section over the
// defaults and hands the result to the renderer.
func (e *Engine) applyRenderConfiguration() {
	s := e.configStore
	settings := e.renderSystem.Settings()

	settings.API = config.GetAs(s, "Renderer.API", settings.API)
	if mode, ok := metadata.ParseVSyncMode(config.GetAs(s, "Renderer.VSync", settings.VSync.String())); ok {
		settings.VSync = mode
	}
	settings.MSAASamples = config.GetAs(s, "Renderer.MSAASamples", settings.MSAASamples)
	settings.AnisotropicFiltering = config.GetAs(s, "Renderer.AnisotropicFiltering", settings.AnisotropicFiltering)
	settings.TextureQuality = config.GetAs(s, "Renderer.TextureQuality", settings.TextureQuality)
	settings.ShadowQuality = config.GetAs(s, "Renderer.ShadowQuality", settings.ShadowQuality)
	settings.PostProcessing = config.GetAs(s, "Renderer.PostProcessing", settings.PostProcessing)
	settings.Gamma = config.GetAs(s, "Renderer.Gamma", settings.Gamma)
	settings.ClearColor.R = config.GetAs(s, "Renderer.ClearColor.r", settings.ClearColor.R)
	settings.ClearColor.G = config.GetAs(s, "Renderer.ClearColor.g", settings.ClearColor.G)
	settings.ClearColor.B = config.GetAs(s, "Renderer.ClearColor.b", settings.ClearColor.B)
	settings.ClearColor.A = config.GetAs(s, "Renderer.ClearColor.a", settings.ClearColor.A)

	e.renderSystem.ApplySettings(settings)
}

// ApplyConfiguration re-reads the sections a live reload may change:
// log level and sinks, the frame-rate cap and the render settings.
// The application host calls this when ReloadChangedFiles reports a
// change; window keys are applied by the host itself.
func (e *Engine) ApplyConfiguration() {
	e.applyLoggingConfiguration()
	e.maxFrameRate = config.GetAs(e.configStore, "Engine.MaxFrameRate", e.maxFrameRate)
	if e.stage == EngineStageRunning {
		e.applyRenderConfiguration()
	}
}

func (e *Engine) saveUserPreferences() {
	if e.userPrefsPath == "" {
		return
	}
	if err := e.configStore.SaveLayerToFile(e.userPrefsPath, layerUserPreferences); err != nil {
		core.LogWarn("user preferences not saved: %v", err)
		return
	}
	core.LogDebug("user preferences saved to %s", e.userPrefsPath)
}
