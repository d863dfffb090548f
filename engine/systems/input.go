package systems

import (
	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// InputSystem owns the input state and the registered action maps.
// Update evaluates enabled maps against the current state; EndFrame
// clears the one-frame edges after the whole frame has rendered.
type InputSystem struct {
	BaseSystem

	state *core.InputState

	maps     []*core.ActionMap
	mapsByID map[string]*core.ActionMap
}

func NewInputSystem() *InputSystem {
	return &InputSystem{
		state:    core.NewInputState(),
		mapsByID: make(map[string]*core.ActionMap),
	}
}

func (is *InputSystem) Name() string             { return "Input" }
func (is *InputSystem) Priority() SystemPriority { return PriorityHigh }

func (is *InputSystem) Initialize() error {
	core.SetActiveInput(is.state)
	is.MarkInitialized()
	return nil
}

// Update runs action evaluation. Maps are evaluated in registration
// order so callback ordering is stable across frames. Actions are
// gameplay input, so edit mode skips evaluation entirely while raw
// keyboard and mouse queries stay live for editor use.
func (is *InputSystem) Update(deltaTime float64) error {
	if !is.state.GameplayInputEnabled() {
		return nil
	}
	for _, m := range is.maps {
		m.Evaluate(is.state)
	}
	return nil
}

func (is *InputSystem) Render(deltaTime float64) error { return nil }

func (is *InputSystem) Shutdown() error {
	if core.ActiveInput() == is.state {
		core.SetActiveInput(nil)
	}
	is.MarkShutdown()
	return nil
}

// EndFrame clears edges and frame deltas. The engine calls it at the
// very end of Render so every system and layer saw this frame's edges.
func (is *InputSystem) EndFrame() {
	is.state.EndFrame()
}

func (is *InputSystem) State() *core.InputState { return is.state }

// SetGameplayInputEnabled gates gameplay-facing input, used by the edit
// run mode. Active actions are canceled immediately so nothing stays
// stuck in the performed phase while disabled.
func (is *InputSystem) SetGameplayInputEnabled(enabled bool) {
	if enabled == is.state.GameplayInputEnabled() {
		return
	}
	is.state.SetGameplayInputEnabled(enabled)
	if !enabled {
		for _, m := range is.maps {
			m.CancelAll()
		}
	}
}

// AddActionMap registers a map. A second map with the same name
// replaces the first.
func (is *InputSystem) AddActionMap(m *core.ActionMap) {
	if m == nil {
		return
	}
	if old, exists := is.mapsByID[m.Name()]; exists {
		core.LogWarn("action map %q replaced", m.Name())
		for i, cur := range is.maps {
			if cur == old {
				is.maps[i] = m
				break
			}
		}
	} else {
		is.maps = append(is.maps, m)
	}
	is.mapsByID[m.Name()] = m
}

func (is *InputSystem) ActionMap(name string) *core.ActionMap {
	return is.mapsByID[name]
}

func (is *InputSystem) RemoveActionMap(name string) bool {
	m, exists := is.mapsByID[name]
	if !exists {
		return false
	}
	m.CancelAll()
	delete(is.mapsByID, name)
	for i, cur := range is.maps {
		if cur == m {
			is.maps = append(is.maps[:i], is.maps[i+1:]...)
			break
		}
	}
	return true
}
