package systems

import (
	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/components"
)

const DEFAULT_MAX_CAMERA_COUNT = 61

// CameraSystem hands out named, reference-counted cameras. The default
// camera always exists, is never counted and never released.
type CameraSystem struct {
	BaseSystem

	maxCameras int
	cameras    map[string]*cameraEntry
	defaultCam *components.Camera
}

type cameraEntry struct {
	camera   *components.Camera
	refCount uint32
}

type CameraSystemConfig struct {
	// MaxCameraCount bounds the named cameras, the default excluded.
	// Zero picks DEFAULT_MAX_CAMERA_COUNT.
	MaxCameraCount int
}

func NewCameraSystem(config CameraSystemConfig) *CameraSystem {
	maxCameras := config.MaxCameraCount
	if maxCameras <= 0 {
		maxCameras = DEFAULT_MAX_CAMERA_COUNT
	}
	return &CameraSystem{
		maxCameras: maxCameras,
		cameras:    make(map[string]*cameraEntry),
		defaultCam: components.NewCamera(),
	}
}

func (cs *CameraSystem) Name() string             { return "Cameras" }
func (cs *CameraSystem) Priority() SystemPriority { return PriorityHigh }

func (cs *CameraSystem) Initialize() error {
	cs.defaultCam.Reset()
	cs.MarkInitialized()
	return nil
}

func (cs *CameraSystem) Update(deltaTime float64) error { return nil }
func (cs *CameraSystem) Render(deltaTime float64) error { return nil }

func (cs *CameraSystem) Shutdown() error {
	for name, entry := range cs.cameras {
		if entry.refCount > 0 {
			core.LogWarn("camera %q still has %d references at shutdown", name, entry.refCount)
		}
		delete(cs.cameras, name)
	}
	cs.MarkShutdown()
	return nil
}

// Acquire returns the camera registered under name, creating it on
// first use. Each Acquire must be paired with a Release. Asking for the
// default name returns the default camera without counting.
func (cs *CameraSystem) Acquire(name string) (*components.Camera, error) {
	if name == "" {
		return nil, core.NewError(core.ErrInvalidParameter, "camera name must not be empty")
	}
	if name == components.DEFAULT_CAMERA_NAME {
		return cs.defaultCam, nil
	}
	entry, exists := cs.cameras[name]
	if !exists {
		if len(cs.cameras) >= cs.maxCameras {
			return nil, core.NewError(core.ErrOutOfMemory,
				"camera limit %d reached, cannot create %q", cs.maxCameras, name)
		}
		entry = &cameraEntry{camera: components.NewCamera()}
		cs.cameras[name] = entry
		core.LogDebug("created camera %q", name)
	}
	entry.refCount++
	return entry.camera, nil
}

// Release drops one reference. The last release resets and frees the
// slot. Releasing the default camera is a logged no-op.
func (cs *CameraSystem) Release(name string) {
	if name == components.DEFAULT_CAMERA_NAME {
		core.LogDebug("the default camera is never released")
		return
	}
	entry, exists := cs.cameras[name]
	if !exists {
		core.LogWarn("released unknown camera %q", name)
		return
	}
	entry.refCount--
	if entry.refCount == 0 {
		entry.camera.Reset()
		delete(cs.cameras, name)
	}
}

func (cs *CameraSystem) GetDefault() *components.Camera { return cs.defaultCam }

// Count returns the number of live named cameras.
func (cs *CameraSystem) Count() int { return len(cs.cameras) }
