package systems

import (
	"github.com/hcfgod/Vortex-sub001/engine/assets"
	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer"
)

// AssetSystem hosts the asset registry inside the system lifecycle.
// Loads run on the job system's workers; GPU creation goes through the
// renderer's command queue; Update pumps completions, delayed unloads
// and shader hot-reload.
type AssetSystem struct {
	BaseSystem

	config   assets.RegistryConfig
	jobs     *JobSystem
	renderer *renderer.Renderer

	registry *assets.Registry
}

func NewAssetSystem(config assets.RegistryConfig, jobs *JobSystem, r *renderer.Renderer) (*AssetSystem, error) {
	if r == nil {
		return nil, core.NewError(core.ErrNullReference, "asset system requires a renderer")
	}
	return &AssetSystem{
		config:   config,
		jobs:     jobs,
		renderer: r,
	}, nil
}

func (as *AssetSystem) Name() string             { return "Assets" }
func (as *AssetSystem) Priority() SystemPriority { return PriorityCore }

// Initialize opens the pack and starts the source watcher. The job
// system may be nil, in which case loads run synchronously on the
// caller.
func (as *AssetSystem) Initialize() error {
	var runner assets.TaskRunner
	if as.jobs != nil {
		runner = as.jobs
	}
	registry, err := assets.NewRegistry(as.config, runner, as.renderer.Queue())
	if err != nil {
		return core.WrapError(core.ErrEngineSystemInitFailed, err, "asset registry")
	}
	as.registry = registry
	as.MarkInitialized()
	return nil
}

func (as *AssetSystem) Update(deltaTime float64) error {
	as.registry.Update()
	return nil
}

func (as *AssetSystem) Render(deltaTime float64) error { return nil }

func (as *AssetSystem) Shutdown() error {
	if as.registry != nil {
		as.registry.Shutdown()
	}
	as.MarkShutdown()
	return nil
}

// Registry exposes the underlying registry. Nil before Initialize.
func (as *AssetSystem) Registry() *assets.Registry { return as.registry }
