package systems

import (
	"reflect"
	"sort"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// Manager stores systems keyed by their concrete type and drives the
// four lifecycle traversals. Traversal order is ascending priority with
// registration order breaking ties; Shutdown walks the exact reverse.
type Manager struct {
	ordered []System
	byType  map[reflect.Type]System
}

func NewManager() *Manager {
	return &Manager{
		byType: make(map[reflect.Type]System),
	}
}

// Register stores a system. Registering a second system of the same
// concrete type is an error.
func (m *Manager) Register(sys System) error {
	if sys == nil {
		return core.NewError(core.ErrNullReference, "cannot register a nil system")
	}
	t := reflect.TypeOf(sys)
	if _, exists := m.byType[t]; exists {
		return core.NewError(core.ErrInvalidParameter, "system %s already registered", t)
	}
	m.byType[t] = sys
	m.ordered = append(m.ordered, sys)
	sort.SliceStable(m.ordered, func(i, j int) bool {
		return m.ordered[i].Priority() < m.ordered[j].Priority()
	})
	core.LogDebug("registered system %s (%s)", sys.Name(), sys.Priority())
	return nil
}

// Get returns the registered system of concrete type T, or the zero
// value when none is registered.
func Get[T System](m *Manager) T {
	var zero T
	sys, ok := m.byType[reflect.TypeOf(zero)]
	if !ok {
		return zero
	}
	return sys.(T)
}

func (m *Manager) Count() int { return len(m.ordered) }

// Systems returns the traversal order. The slice is a copy; the systems
// are not.
func (m *Manager) Systems() []System {
	out := make([]System, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// InitializeAll initializes systems in traversal order. The first error
// is returned, but the traversal continues so later systems still get
// their chance to come up.
func (m *Manager) InitializeAll() error {
	var first error
	for _, sys := range m.ordered {
		if sys.IsInitialized() {
			continue
		}
		if err := sys.Initialize(); err != nil {
			core.LogError("system %s failed to initialize: %v", sys.Name(), err)
			if first == nil {
				first = core.WrapError(core.ErrEngineSystemInitFailed, err, "system %s", sys.Name())
			}
		}
	}
	return first
}

// UpdateAll updates initialized systems in traversal order.
func (m *Manager) UpdateAll(deltaTime float64) error {
	var first error
	for _, sys := range m.ordered {
		if !sys.IsInitialized() {
			continue
		}
		if err := sys.Update(deltaTime); err != nil {
			core.LogError("system %s update failed: %v", sys.Name(), err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// RenderAll renders initialized systems in traversal order.
func (m *Manager) RenderAll(deltaTime float64) error {
	var first error
	for _, sys := range m.ordered {
		if !sys.IsInitialized() {
			continue
		}
		if err := sys.Render(deltaTime); err != nil {
			core.LogError("system %s render failed: %v", sys.Name(), err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// ShutdownAll shuts systems down in strict reverse traversal order.
// Every initialized system is attempted even after a failure.
func (m *Manager) ShutdownAll() error {
	var first error
	for i := len(m.ordered) - 1; i >= 0; i-- {
		sys := m.ordered[i]
		if !sys.IsInitialized() {
			continue
		}
		if err := sys.Shutdown(); err != nil {
			core.LogError("system %s failed to shut down: %v", sys.Name(), err)
			if first == nil {
				first = core.WrapError(core.ErrEngineShutdownFailed, err, "system %s", sys.Name())
			}
		}
	}
	return first
}
