package assets

import (
	"github.com/fzipp/bmfont"
	"github.com/google/uuid"

	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

/**
 * @brief Non-owning counted reference to a registry asset.
 *
 * Every live handle holds one reference; Clone takes another, Release
 * gives it back. A handle releases at most once, so the registry count
 * stays honest even when callers double-release by accident.
 */
type Handle struct {
	registry *Registry
	id       uuid.UUID
	released bool
}

// InvalidHandle is what lookups return when nothing matches. Its
// methods are all safe to call.
func InvalidHandle() *Handle {
	return &Handle{}
}

// IsValid reports whether the handle points at a registered asset.
func (h *Handle) IsValid() bool {
	if h == nil || h.registry == nil || h.released {
		return false
	}
	return h.registry.exists(h.id)
}

func (h *Handle) ID() uuid.UUID {
	if h == nil {
		return uuid.Nil
	}
	return h.id
}

// Clone takes an additional reference on the same asset and returns a
// handle that must be released independently.
func (h *Handle) Clone() *Handle {
	if !h.IsValid() {
		return InvalidHandle()
	}
	if !h.registry.Acquire(h.id) {
		return InvalidHandle()
	}
	return &Handle{registry: h.registry, id: h.id}
}

// Release gives the reference back. Releasing twice warns and does
// nothing further.
func (h *Handle) Release() {
	if h == nil || h.registry == nil {
		return
	}
	if h.released {
		core.LogWarn("asset handle for %s released twice", h.id)
		return
	}
	h.released = true
	h.registry.Release(h.id)
}

func (h *Handle) IsLoaded() bool {
	if h == nil || h.registry == nil || h.released {
		return false
	}
	return h.registry.IsLoaded(h.id)
}

func (h *Handle) Progress() float32 {
	if h == nil || h.registry == nil || h.released {
		return 0
	}
	return h.registry.GetProgress(h.id)
}

func (h *Handle) State() AssetState {
	if h == nil || h.registry == nil || h.released {
		return AssetStateUnregistered
	}
	return h.registry.StateOf(h.id)
}

func (h *Handle) Name() string {
	a := h.asset()
	if a == nil {
		return ""
	}
	return a.Name
}

func (h *Handle) Type() AssetType {
	a := h.asset()
	if a == nil {
		return AssetTypeNone
	}
	return a.Type
}

// Texture returns the texture payload, or nil while the asset is not
// Loaded or is of another type.
func (h *Handle) Texture() *metadata.Texture {
	a := h.asset()
	if a == nil || !h.registry.IsLoaded(h.id) {
		return nil
	}
	return a.Texture
}

func (h *Handle) Shader() *metadata.Shader {
	a := h.asset()
	if a == nil || !h.registry.IsLoaded(h.id) {
		return nil
	}
	return a.Shader
}

func (h *Handle) Font() *bmfont.Descriptor {
	a := h.asset()
	if a == nil || !h.registry.IsLoaded(h.id) {
		return nil
	}
	return a.Font
}

func (h *Handle) Bytes() []uint8 {
	a := h.asset()
	if a == nil || !h.registry.IsLoaded(h.id) {
		return nil
	}
	return a.Data
}

func (h *Handle) asset() *Asset {
	if h == nil || h.registry == nil || h.released {
		return nil
	}
	return h.registry.lookup(h.id)
}
