package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

const testVertexSource = `#version 450
layout(location = 0) in vec3 in_position;
layout(location = 1) in vec2 in_texcoord;
layout(binding = 0) uniform sampler2D u_diffuse;
void main() {
    gl_Position = vec4(in_position, 1.0);
}
`

const testFragmentSource = `#version 450
layout(location = 0) out vec4 out_color;
uniform mat4 u_projection;
void main() {
    out_color = vec4(1.0);
}
`

func writeShaderSources(t *testing.T, root string) (string, string) {
	t.Helper()
	vert := filepath.Join(root, "basic.vert")
	frag := filepath.Join(root, "basic.frag")
	require.NoError(t, os.WriteFile(vert, []byte(testVertexSource), 0o644))
	require.NoError(t, os.WriteFile(frag, []byte(testFragmentSource), 0o644))
	return vert, frag
}

func TestLoadShader(t *testing.T) {
	r, backend := newTestRegistry(t, nil)
	writeShaderSources(t, r.config.AssetsRoot)

	h, err := r.LoadShader("basic", "basic.vert", "basic.frag", metadata.DefaultShaderOptions(), nil)
	require.NoError(t, err)
	require.True(t, h.IsLoaded())
	assert.Equal(t, 1, backend.LiveShaderCount())

	s := h.Shader()
	require.NotNil(t, s)
	assert.True(t, s.HasResource())
	assert.Equal(t, uint32(0), s.Generation)

	// Reflection picked up both attributes and the uniforms of each
	// stage.
	require.Len(t, s.Attributes, 2)
	assert.Equal(t, "in_position", s.Attributes[0].Name)
	assert.Equal(t, uint32(0), s.Attributes[0].Location)
	assert.Equal(t, "vec3", s.Attributes[0].Type)
	assert.Equal(t, "in_texcoord", s.Attributes[1].Name)

	require.Len(t, s.Uniforms, 2)
	assert.Equal(t, "u_diffuse", s.Uniforms[0].Name)
	assert.Equal(t, metadata.ShaderStageVertex, s.Uniforms[0].Stage)
	assert.Equal(t, "u_projection", s.Uniforms[1].Name)
	assert.Equal(t, metadata.ShaderStageFragment, s.Uniforms[1].Stage)
}

func TestShaderHotReloadSwapsProgram(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	vert, _ := writeShaderSources(t, r.config.AssetsRoot)

	h, err := r.LoadShader("basic", "basic.vert", "basic.frag", metadata.DefaultShaderOptions(), nil)
	require.NoError(t, err)
	require.True(t, h.IsLoaded())
	require.Equal(t, uint32(0), h.Shader().Generation)

	// Rewrite the vertex stage with a different interface.
	edited := `#version 450
layout(location = 0) in vec3 in_position;
layout(location = 1) in vec3 in_normal;
layout(location = 2) in vec2 in_texcoord;
void main() {
    gl_Position = vec4(in_position, 1.0);
}
`
	require.NoError(t, os.WriteFile(vert, []byte(edited), 0o644))
	bump := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(vert, bump, bump))

	r.Update()

	require.True(t, h.IsLoaded())
	s := h.Shader()
	assert.Equal(t, uint32(1), s.Generation, "hot reload rebuilds the program")
	require.Len(t, s.Attributes, 3)
	assert.Equal(t, "in_normal", s.Attributes[1].Name)

	// No further change, no further reload.
	r.Update()
	assert.Equal(t, uint32(1), h.Shader().Generation)
}

func TestShaderHotReloadFailureKeepsOldProgram(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	vert, frag := writeShaderSources(t, r.config.AssetsRoot)

	h, err := r.LoadShader("basic", "basic.vert", "basic.frag", metadata.DefaultShaderOptions(), nil)
	require.NoError(t, err)
	oldAttrs := len(h.Shader().Attributes)

	// Touch the vertex source but break the fragment stage away.
	bump := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(vert, bump, bump))
	require.NoError(t, os.Remove(frag))

	r.Update()

	assert.True(t, h.IsLoaded(), "failed reload returns the asset to Loaded")
	assert.Equal(t, uint32(0), h.Shader().Generation, "previous program survives")
	assert.Len(t, h.Shader().Attributes, oldAttrs)
}

// failRealCompiler rejects everything except the built-in fallback
// program.
type failRealCompiler struct{}

func (failRealCompiler) Compile(name string, _ metadata.ShaderStage, source []uint8, _ ShaderCompileOptions) ([]uint8, error) {
	if name != metadata.FALLBACK_SHADER_NAME {
		return nil, errors.New("toolchain rejected source")
	}
	return source, nil
}

func (failRealCompiler) Name() string { return "fail-real" }

func TestShaderCompileFailureInstallsFallback(t *testing.T) {
	r, backend := newTestRegistry(t, func(cfg *RegistryConfig) {
		cfg.Compiler = failRealCompiler{}
	})
	writeShaderSources(t, r.config.AssetsRoot)

	h, err := r.LoadShader("basic", "basic.vert", "basic.frag", metadata.DefaultShaderOptions(), nil)
	require.NoError(t, err)

	assert.True(t, h.IsLoaded())
	assert.True(t, r.lookup(h.ID()).UsesFallback())
	require.NotNil(t, h.Shader())
	assert.True(t, h.Shader().HasResource())
	assert.Equal(t, 1, backend.LiveShaderCount())
}

func TestShaderFallbackRecoversOnSourceFix(t *testing.T) {
	r, _ := newTestRegistry(t, func(cfg *RegistryConfig) {
		cfg.Compiler = failRealCompiler{}
	})
	vert, _ := writeShaderSources(t, r.config.AssetsRoot)

	h, err := r.LoadShader("basic", "basic.vert", "basic.frag", metadata.DefaultShaderOptions(), nil)
	require.NoError(t, err)
	require.True(t, r.lookup(h.ID()).UsesFallback())
	gen := h.Shader().Generation

	// The toolchain starts accepting the source again; editing the
	// file triggers the reload that swaps the real program in.
	r.config.Compiler = SourceCompiler{}
	bump := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(vert, bump, bump))

	r.Update()

	assert.True(t, h.IsLoaded())
	assert.False(t, r.lookup(h.ID()).UsesFallback())
	assert.Equal(t, gen+1, h.Shader().Generation)
	assert.NotEmpty(t, h.Shader().Attributes)
}

// countingCompiler records how often it runs.
type countingCompiler struct {
	calls int
}

func (c *countingCompiler) Compile(_ string, _ metadata.ShaderStage, source []uint8, _ ShaderCompileOptions) ([]uint8, error) {
	c.calls++
	return source, nil
}

func (c *countingCompiler) Name() string { return "counting" }

func TestShaderPrefersPackBytecodeCache(t *testing.T) {
	w := NewPackWriter()
	require.NoError(t, w.AddBytes(SHADER_CACHE_DIR+"/basic.vert.spv", []byte{0x03, 0x02, 0x23, 0x07}))
	require.NoError(t, w.AddBytes(SHADER_CACHE_DIR+"/basic.frag.spv", []byte{0x03, 0x02, 0x23, 0x07}))
	packPath := filepath.Join(t.TempDir(), "shaders.vxpk")
	require.NoError(t, w.WriteFile(packPath))

	compiler := &countingCompiler{}
	r, _ := newTestRegistry(t, func(cfg *RegistryConfig) {
		cfg.PackPath = packPath
		cfg.Compiler = compiler
	})

	h, err := r.LoadShader("basic", "basic.vert", "basic.frag", metadata.DefaultShaderOptions(), nil)
	require.NoError(t, err)
	assert.True(t, h.IsLoaded())
	assert.Zero(t, compiler.calls, "precompiled bytecode skips the compiler")
}

func TestLoadShaderFromManifest(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	root := r.config.AssetsRoot
	writeShaderSources(t, root)
	manifest := `name = "basic"
vertex = "basic.vert"
fragment = "basic.frag"

[options]
OptimizationLevel = 2
GenerateDebugInfo = true
TargetProfile = "spirv1.5"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "basic.shader.toml"), []byte(manifest), 0o644))

	h, err := r.LoadShaderFromManifest("basic.shader.toml", metadata.DefaultShaderOptions(), nil)
	require.NoError(t, err)
	assert.True(t, h.IsLoaded())
	assert.Equal(t, "basic", h.Name())
	assert.Equal(t, ShaderCompileOptions{
		OptimizationLevel: 2,
		GenerateDebugInfo: true,
		TargetProfile:     "spirv1.5",
	}, r.lookup(h.ID()).compileOpts)
}

func TestLoadShaderFromManifestInPack(t *testing.T) {
	w := NewPackWriter()
	require.NoError(t, w.AddBytes("shaders/basic.toml", []byte("name = \"basic\"\nvertex = \"shaders/basic.vert\"\nfragment = \"shaders/basic.frag\"\n")))
	require.NoError(t, w.AddBytes("shaders/basic.vert", []byte(testVertexSource)))
	require.NoError(t, w.AddBytes("shaders/basic.frag", []byte(testFragmentSource)))
	packPath := filepath.Join(t.TempDir(), "shaders.vxpk")
	require.NoError(t, w.WriteFile(packPath))

	r, _ := newTestRegistry(t, func(cfg *RegistryConfig) {
		cfg.PackPath = packPath
	})

	h, err := r.LoadShaderFromManifest("shaders/basic.toml", metadata.DefaultShaderOptions(), nil)
	require.NoError(t, err)
	assert.True(t, h.IsLoaded())
	assert.NotEmpty(t, h.Shader().Attributes, "pack-sourced GLSL still reflects")
}

func TestLoadShaderFromMissingManifest(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	h, err := r.LoadShaderFromManifest("nope.toml", metadata.DefaultShaderOptions(), nil)
	require.Error(t, err)
	assert.Equal(t, core.ErrFileNotFound, core.KindOf(err))
	assert.False(t, h.IsValid())
}

func TestParseShaderManifestValidation(t *testing.T) {
	_, err := ParseShaderManifest([]byte("vertex = \"a.vert\"\nfragment = \"a.frag\"\n"))
	require.Error(t, err)
	assert.Equal(t, core.ErrInvalidParameter, core.KindOf(err))

	_, err = ParseShaderManifest([]byte("name = \"x\"\nvertex = \"a.vert\"\n"))
	require.Error(t, err)
	assert.Equal(t, core.ErrInvalidParameter, core.KindOf(err))

	_, err = ParseShaderManifest([]byte("this is not toml ["))
	require.Error(t, err)
	assert.Equal(t, core.ErrConfigParseError, core.KindOf(err))

	m, err := ParseShaderManifest([]byte("name = \"x\"\nvertex = \"a.vert\"\nfragment = \"a.frag\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", m.Name)
	assert.Zero(t, m.Options.OptimizationLevel)
}
