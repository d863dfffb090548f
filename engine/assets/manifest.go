package assets

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// ShaderCompileOptions mirror the manifest [options] table and are
// passed through to the shader compiler.
type ShaderCompileOptions struct {
	OptimizationLevel int    `toml:"OptimizationLevel"`
	GenerateDebugInfo bool   `toml:"GenerateDebugInfo"`
	TargetProfile     string `toml:"TargetProfile"`
}

/**
 * @brief Shader manifest as stored on disk or in a pack.
 *
 * Vertex and fragment paths resolve first against the asset pack, then
 * relative to the assets root.
 */
type ShaderManifest struct {
	Name     string               `toml:"name"`
	Vertex   string               `toml:"vertex"`
	Fragment string               `toml:"fragment"`
	Options  ShaderCompileOptions `toml:"options"`
}

// ParseShaderManifest decodes and validates manifest bytes.
func ParseShaderManifest(data []uint8) (*ShaderManifest, error) {
	var m ShaderManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, core.WrapError(core.ErrConfigParseError, err, "shader manifest does not parse")
	}
	if m.Name == "" {
		return nil, core.NewError(core.ErrInvalidParameter, "shader manifest is missing a name")
	}
	if m.Vertex == "" || m.Fragment == "" {
		return nil, core.NewError(core.ErrInvalidParameter, "shader manifest %s needs both vertex and fragment paths", m.Name)
	}
	return &m, nil
}

// LoadShaderManifest reads a manifest from the pack when available,
// falling back to the filesystem.
func LoadShaderManifest(pack *PackReader, path string) (*ShaderManifest, error) {
	if pack != nil {
		if data, err := pack.Read(path); err == nil {
			return ParseShaderManifest(data)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.WrapError(core.ErrFileNotFound, err, "shader manifest %s not found", path)
		}
		return nil, core.WrapError(core.ErrFileAccessDenied, err, "cannot read shader manifest %s", path)
	}
	return ParseShaderManifest(data)
}
