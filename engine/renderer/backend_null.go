package renderer

import (
	"sync"

	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

// NullBackend fulfils the backend contract without any graphics API
// behind it. It hands out handles, tracks what is alive and counts
// frames, which is everything headless runs and tests need.
type NullBackend struct {
	mu          sync.Mutex
	initialized bool
	width       uint32
	height      uint32
	settings    metadata.RenderSettings

	nextHandle   uint32
	liveTextures map[uint32]string
	liveShaders  map[uint32]string
	boundShader  uint32

	frames       uint64
	frameStarted bool
}

func NewNullBackend() *NullBackend {
	return &NullBackend{
		liveTextures: make(map[uint32]string),
		liveShaders:  make(map[uint32]string),
		boundShader:  metadata.InvalidHandle,
	}
}

func (b *NullBackend) Name() string { return "Null" }

func (b *NullBackend) Initialize(appName string, width, height uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return core.NewError(core.ErrRendererInitFailed, "null backend initialized twice")
	}
	b.initialized = true
	b.width = width
	b.height = height
	b.settings = metadata.DefaultRenderSettings()
	core.LogInfo("null render backend ready for %s (%dx%d)", appName, width, height)
	return nil
}

func (b *NullBackend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil
	}
	if n := len(b.liveTextures) + len(b.liveShaders); n > 0 {
		core.LogWarn("null backend shutting down with %d live resources", n)
	}
	b.initialized = false
	return nil
}

func (b *NullBackend) Resized(width, height uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width = width
	b.height = height
	return nil
}

func (b *NullBackend) ApplySettings(settings metadata.RenderSettings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings = settings
	return nil
}

func (b *NullBackend) BeginFrame(deltaTime float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return core.NewError(core.ErrInvalidState, "begin frame before backend initialization")
	}
	b.frameStarted = true
	return nil
}

func (b *NullBackend) EndFrame(deltaTime float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.frameStarted {
		return core.NewError(core.ErrInvalidState, "end frame without a begin")
	}
	b.frameStarted = false
	b.frames++
	return nil
}

func (b *NullBackend) TextureCreate(pixels []uint8, texture *metadata.Texture) error {
	if texture == nil {
		return core.NewError(core.ErrInvalidParameter, "nil texture")
	}
	expected := int(texture.Width) * int(texture.Height) * int(texture.ChannelCount)
	if expected > 0 && len(pixels) < expected {
		return core.NewError(core.ErrTextureLoadFailed,
			"texture %s: %d pixel bytes, need %d", texture.Name, len(pixels), expected)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if texture.Handle != metadata.InvalidHandle {
		delete(b.liveTextures, texture.Handle)
	}
	texture.Handle = b.allocHandleLocked()
	if texture.Generation == metadata.InvalidHandle {
		texture.Generation = 0
	} else {
		texture.Generation++
	}
	b.liveTextures[texture.Handle] = texture.Name
	return nil
}

func (b *NullBackend) TextureDestroy(texture *metadata.Texture) {
	if texture == nil || texture.Handle == metadata.InvalidHandle {
		return
	}
	b.mu.Lock()
	delete(b.liveTextures, texture.Handle)
	b.mu.Unlock()
	texture.Handle = metadata.InvalidHandle
	texture.Generation = metadata.InvalidHandle
}

func (b *NullBackend) ShaderCreate(shader *metadata.Shader, stages map[metadata.ShaderStage][]byte) error {
	if shader == nil {
		return core.NewError(core.ErrInvalidParameter, "nil shader")
	}
	if len(stages[metadata.ShaderStageVertex]) == 0 || len(stages[metadata.ShaderStageFragment]) == 0 {
		return core.NewError(core.ErrShaderCompilationFailed,
			"shader %s: both vertex and fragment stages are required", shader.Name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if shader.Handle != metadata.InvalidHandle {
		delete(b.liveShaders, shader.Handle)
	}
	shader.Handle = b.allocHandleLocked()
	if shader.Generation == metadata.InvalidHandle {
		shader.Generation = 0
	} else {
		shader.Generation++
	}
	b.liveShaders[shader.Handle] = shader.Name
	return nil
}

func (b *NullBackend) ShaderDestroy(shader *metadata.Shader) {
	if shader == nil || shader.Handle == metadata.InvalidHandle {
		return
	}
	b.mu.Lock()
	if b.boundShader == shader.Handle {
		b.boundShader = metadata.InvalidHandle
	}
	delete(b.liveShaders, shader.Handle)
	b.mu.Unlock()
	shader.Handle = metadata.InvalidHandle
	shader.Generation = metadata.InvalidHandle
}

func (b *NullBackend) ShaderUse(shader *metadata.Shader) error {
	if shader == nil || shader.Handle == metadata.InvalidHandle {
		return core.NewError(core.ErrInvalidParameter, "shader without a backend resource")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.liveShaders[shader.Handle]; !ok {
		return core.NewError(core.ErrInvalidState, "shader %s is not alive", shader.Name)
	}
	b.boundShader = shader.Handle
	return nil
}

func (b *NullBackend) allocHandleLocked() uint32 {
	h := b.nextHandle
	b.nextHandle++
	return h
}

// Inspection helpers for tests and diagnostics.

func (b *NullBackend) FrameCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

func (b *NullBackend) LiveTextureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.liveTextures)
}

func (b *NullBackend) LiveShaderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.liveShaders)
}

func (b *NullBackend) Settings() metadata.RenderSettings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}
