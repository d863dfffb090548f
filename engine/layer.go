package engine

import (
	"fmt"
	"sort"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// Layer is one slice of the application: game world, UI, debug overlay.
// Layers receive updates front-to-back and events back-to-front.
type Layer interface {
	OnAttach(e *Engine)
	OnDetach(e *Engine)
	OnUpdate(e *Engine, deltaTime float64)
	OnRender(e *Engine, deltaTime float64)
	// OnEvent reports whether the layer consumed the event.
	OnEvent(e *Engine, ctx *core.EventContext) bool
}

// LayerType is the coarse ordering band. Within a band, LayerOptions
// Priority orders layers.
type LayerType uint8

const (
	LayerGame LayerType = iota
	LayerUI
	LayerDebug
	LayerOverlay
)

func (t LayerType) String() string {
	switch t {
	case LayerGame:
		return "game"
	case LayerUI:
		return "ui"
	case LayerDebug:
		return "debug"
	case LayerOverlay:
		return "overlay"
	}
	return "unknown"
}

// LayerOrderSpan is the priority radius of a type band. Bands sit two
// spans apart, so clamped priorities from neighboring bands can never
// interleave.
const LayerOrderSpan = 1 << 20

type LayerOptions struct {
	Type LayerType
	// Priority orders layers inside the type band. Clamped to
	// ±(LayerOrderSpan-1) so a priority can never jump bands.
	Priority      int
	BlockEvents   bool
	StartDisabled bool
}

type layerEntry struct {
	layer    Layer
	name     string
	opts     LayerOptions
	order    int64
	disabled bool
	removed  bool
}

// LayerStack owns the pushed layers. Update and Render walk in
// ascending effective order; OnEvent walks in reverse so overlays see
// input first. Panics from layer callbacks are recovered and logged
// with the layer name; iteration continues.
type LayerStack struct {
	engine  *Engine
	entries []*layerEntry
	byName  map[string]*layerEntry
}

func NewLayerStack(e *Engine) *LayerStack {
	return &LayerStack{
		engine: e,
		byName: make(map[string]*layerEntry),
	}
}

func effectiveOrder(opts LayerOptions) int64 {
	priority := opts.Priority
	if priority >= LayerOrderSpan {
		priority = LayerOrderSpan - 1
	}
	if priority <= -LayerOrderSpan {
		priority = -(LayerOrderSpan - 1)
	}
	return int64(opts.Type)*(2*LayerOrderSpan) + int64(priority)
}

// PushLayer inserts the layer in sorted position and attaches it. The
// stack owns the layer from here on. When the requested name is taken
// the stack picks name_2, name_3 and so on; the name actually used is
// returned.
func (ls *LayerStack) PushLayer(name string, layer Layer, opts LayerOptions) (string, error) {
	if layer == nil {
		return "", core.NewError(core.ErrNullReference, "cannot push a nil layer")
	}
	if name == "" {
		return "", core.NewError(core.ErrInvalidParameter, "layer name must not be empty")
	}

	unique := name
	for n := 2; ; n++ {
		if _, taken := ls.byName[unique]; !taken {
			break
		}
		unique = fmt.Sprintf("%s_%d", name, n)
	}
	if unique != name {
		core.LogWarn("layer name %q is taken, using %q", name, unique)
	}

	entry := &layerEntry{
		layer:    layer,
		name:     unique,
		opts:     opts,
		order:    effectiveOrder(opts),
		disabled: opts.StartDisabled,
	}

	// Insert after every entry with the same order so push order is
	// preserved within a band.
	idx := sort.Search(len(ls.entries), func(i int) bool {
		return ls.entries[i].order > entry.order
	})
	ls.entries = append(ls.entries, nil)
	copy(ls.entries[idx+1:], ls.entries[idx:])
	ls.entries[idx] = entry
	ls.byName[unique] = entry

	ls.safeCall(entry, "OnAttach", func() { layer.OnAttach(ls.engine) })
	core.LogDebug("layer %q attached (%s, order %d)", unique, opts.Type, entry.order)
	return unique, nil
}

// PopLayer detaches and removes the named layer.
func (ls *LayerStack) PopLayer(name string) error {
	entry, exists := ls.byName[name]
	if !exists {
		return core.NewError(core.ErrInvalidParameter, "no layer named %q", name)
	}
	ls.remove(entry)
	return nil
}

// PopLayerInstance removes by identity, for callers that kept the layer
// pointer instead of the assigned name.
func (ls *LayerStack) PopLayerInstance(layer Layer) error {
	for _, entry := range ls.entries {
		if entry.layer == layer {
			ls.remove(entry)
			return nil
		}
	}
	return core.NewError(core.ErrInvalidParameter, "layer is not on the stack")
}

func (ls *LayerStack) remove(entry *layerEntry) {
	ls.safeCall(entry, "OnDetach", func() { entry.layer.OnDetach(ls.engine) })
	entry.removed = true
	delete(ls.byName, entry.name)
	for i, cur := range ls.entries {
		if cur == entry {
			ls.entries = append(ls.entries[:i], ls.entries[i+1:]...)
			break
		}
	}
	core.LogDebug("layer %q detached", entry.name)
}

// Clear detaches every layer, topmost first.
func (ls *LayerStack) Clear() {
	for len(ls.entries) > 0 {
		ls.remove(ls.entries[len(ls.entries)-1])
	}
}

// Update walks enabled layers bottom-up.
func (ls *LayerStack) Update(deltaTime float64) {
	for _, entry := range ls.snapshot() {
		if entry.removed || entry.disabled {
			continue
		}
		ls.safeCall(entry, "OnUpdate", func() { entry.layer.OnUpdate(ls.engine, deltaTime) })
	}
}

// Render walks enabled layers bottom-up.
func (ls *LayerStack) Render(deltaTime float64) {
	for _, entry := range ls.snapshot() {
		if entry.removed || entry.disabled {
			continue
		}
		ls.safeCall(entry, "OnRender", func() { entry.layer.OnRender(ls.engine, deltaTime) })
	}
}

// OnEvent offers the event to layers top-down. The walk stops at the
// first layer that consumes the event, or after a layer with
// BlockEvents set, consumed or not.
func (ls *LayerStack) OnEvent(ctx *core.EventContext) bool {
	entries := ls.snapshot()
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.removed || entry.disabled {
			continue
		}
		handled := false
		ls.safeCall(entry, "OnEvent", func() { handled = entry.layer.OnEvent(ls.engine, ctx) })
		if handled {
			ctx.MarkHandled()
			return true
		}
		if entry.opts.BlockEvents {
			return false
		}
	}
	return false
}

// SetLayerEnabled toggles a layer without detaching it. Disabled layers
// skip updates, rendering and events.
func (ls *LayerStack) SetLayerEnabled(name string, enabled bool) error {
	entry, exists := ls.byName[name]
	if !exists {
		return core.NewError(core.ErrInvalidParameter, "no layer named %q", name)
	}
	entry.disabled = !enabled
	return nil
}

func (ls *LayerStack) IsLayerEnabled(name string) bool {
	entry, exists := ls.byName[name]
	return exists && !entry.disabled
}

// Get returns the named layer, or nil.
func (ls *LayerStack) Get(name string) Layer {
	if entry, exists := ls.byName[name]; exists {
		return entry.layer
	}
	return nil
}

func (ls *LayerStack) Count() int { return len(ls.entries) }

// LayerNames returns the names in effective order.
func (ls *LayerStack) LayerNames() []string {
	names := make([]string, len(ls.entries))
	for i, entry := range ls.entries {
		names[i] = entry.name
	}
	return names
}

// ValidateIntegrity checks the sorted-order and unique-name invariants.
func (ls *LayerStack) ValidateIntegrity() error {
	seen := make(map[string]bool, len(ls.entries))
	for i, entry := range ls.entries {
		if seen[entry.name] {
			return core.NewError(core.ErrInvalidState, "duplicate layer name %q", entry.name)
		}
		seen[entry.name] = true
		if i > 0 && ls.entries[i-1].order > entry.order {
			return core.NewError(core.ErrInvalidState,
				"layer %q (order %d) sorted after %q (order %d)",
				ls.entries[i-1].name, ls.entries[i-1].order, entry.name, entry.order)
		}
		if ls.byName[entry.name] != entry {
			return core.NewError(core.ErrInvalidState, "layer index out of sync for %q", entry.name)
		}
	}
	if len(seen) != len(ls.byName) {
		return core.NewError(core.ErrInvalidState, "layer index size mismatch")
	}
	return nil
}

// snapshot copies the entry slice so layers may push or pop during a
// traversal without corrupting it.
func (ls *LayerStack) snapshot() []*layerEntry {
	out := make([]*layerEntry, len(ls.entries))
	copy(out, ls.entries)
	return out
}

func (ls *LayerStack) safeCall(entry *layerEntry, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			core.LogError("layer %q panicked in %s: %v", entry.name, hook, r)
		}
	}()
	fn()
}
