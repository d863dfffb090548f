package assets

import (
	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

// ShaderCompiler turns stage source into bytecode the backend accepts.
// Real backends plug in an external toolchain; the build pipeline runs
// glslc ahead of time so runtime compiles stay the exception.
type ShaderCompiler interface {
	Compile(name string, stage metadata.ShaderStage, source []uint8, opts ShaderCompileOptions) ([]uint8, error)
	Name() string
}

// SourceCompiler hands GLSL source through untouched. It pairs with
// backends that consume source directly, which keeps shader loading
// runnable on machines without a shader toolchain installed.
type SourceCompiler struct{}

func (SourceCompiler) Compile(name string, stage metadata.ShaderStage, source []uint8, _ ShaderCompileOptions) ([]uint8, error) {
	if len(source) == 0 {
		return nil, core.NewError(core.ErrShaderCompilationFailed, "shader %s has empty %s source", name, stage)
	}
	return source, nil
}

func (SourceCompiler) Name() string { return "source-passthrough" }
