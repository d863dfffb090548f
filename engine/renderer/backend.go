package renderer

import (
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

// Backend is the device-facing half of the renderer. Exactly one
// backend exists per renderer and all of its methods run on the render
// thread; the command queue is the only sanctioned way to reach it from
// anywhere else.
type Backend interface {
	Initialize(appName string, width, height uint32) error
	Shutdown() error

	Resized(width, height uint32) error
	ApplySettings(settings metadata.RenderSettings) error

	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error

	TextureCreate(pixels []uint8, texture *metadata.Texture) error
	TextureDestroy(texture *metadata.Texture)

	ShaderCreate(shader *metadata.Shader, stages map[metadata.ShaderStage][]byte) error
	ShaderDestroy(shader *metadata.Shader)
	ShaderUse(shader *metadata.Shader) error

	Name() string
}
