package assets

import (
	"github.com/fzipp/bmfont"
	"github.com/google/uuid"

	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

// AssetType tags what kind of payload an asset carries.
type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeTexture
	AssetTypeShader
	AssetTypeBitmapFont
	AssetTypeBinary
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeTexture:
		return "Texture"
	case AssetTypeShader:
		return "Shader"
	case AssetTypeBitmapFont:
		return "BitmapFont"
	case AssetTypeBinary:
		return "Binary"
	default:
		return "None"
	}
}

// AssetState tracks where an asset is in its lifecycle. Transitions are
// forward-only, with two exceptions: Loaded assets re-enter Loading
// during hot-reload, and any asset moves to Unloaded when the registry
// erases it.
type AssetState int

const (
	AssetStateUnregistered AssetState = iota
	AssetStateLoading
	AssetStateLoaded
	AssetStateFailed
	AssetStateUnloaded
)

func (s AssetState) String() string {
	switch s {
	case AssetStateLoading:
		return "Loading"
	case AssetStateLoaded:
		return "Loaded"
	case AssetStateFailed:
		return "Failed"
	case AssetStateUnloaded:
		return "Unloaded"
	default:
		return "Unregistered"
	}
}

/**
 * @brief One registry-owned asset record.
 *
 * Callers fill Name, Type, an optional payload and Dependencies before
 * RegisterAsset; everything unexported is registry state guarded by the
 * registry mutex.
 */
type Asset struct {
	ID   uuid.UUID
	Name string
	Type AssetType

	// Payload. At most one of these is set once the asset is Loaded.
	Texture *metadata.Texture
	Shader  *metadata.Shader
	Font    *bmfont.Descriptor
	Data    []uint8

	// Dependencies lists assets this one needs alive. The delayed
	// unload pass refuses to erase an asset that a loaded, referenced
	// asset still lists here.
	Dependencies []uuid.UUID

	state         AssetState
	progress      float32
	usingFallback bool

	// Shader source tracking for hot-reload. Only disk-resolved
	// sources appear here; pack entries cannot change underneath us.
	sources     []sourceRef
	compileOpts ShaderCompileOptions
}

// UsesFallback reports whether the last load attempt failed and the
// registry substituted the error texture or passthrough shader.
func (a *Asset) UsesFallback() bool {
	return a.usingFallback
}
