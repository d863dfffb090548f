package core

import "math"

// Input actions decouple gameplay intent ("jump", "move") from the
// physical device. Bindings resolve against the polled InputState once
// per frame and drive the action through its phase machine:
//
//	Waiting -> Started -> Performed -> Canceled -> Waiting
//
// Button actions fire Started+Performed once on activation and Canceled
// on release. Actions with at least one axis binding are value actions:
// they additionally re-fire Performed every frame they stay active and
// carry a value in [-1,1].

type ActionPhase uint8

const (
	ActionWaiting ActionPhase = iota
	ActionStarted
	ActionPerformed
	ActionCanceled
)

func (p ActionPhase) String() string {
	switch p {
	case ActionWaiting:
		return "waiting"
	case ActionStarted:
		return "started"
	case ActionPerformed:
		return "performed"
	case ActionCanceled:
		return "canceled"
	}
	return "unknown"
}

type BindingKind uint8

const (
	BindKey BindingKind = iota
	BindMouseButton
	BindGamepadButton
	BindAxisKeys
	BindGamepadAxis
)

// ActionBinding ties one physical control to an action. Use the
// constructor helpers rather than filling the struct directly.
type ActionBinding struct {
	Kind BindingKind

	Key    KeyCode
	Button Button

	PadSlot   int
	PadButton GamepadButton

	// Axis bindings only.
	NegativeKey KeyCode
	PositiveKey KeyCode
	Axis        GamepadAxis
	Deadzone    float32
}

func KeyBinding(key KeyCode) ActionBinding {
	return ActionBinding{Kind: BindKey, Key: key}
}

func MouseBinding(button Button) ActionBinding {
	return ActionBinding{Kind: BindMouseButton, Button: button}
}

func GamepadButtonBinding(slot int, button GamepadButton) ActionBinding {
	return ActionBinding{Kind: BindGamepadButton, PadSlot: slot, PadButton: button}
}

// AxisKeysBinding builds a 1D axis from two keys, e.g. A/D for strafe.
func AxisKeysBinding(negative, positive KeyCode) ActionBinding {
	return ActionBinding{Kind: BindAxisKeys, NegativeKey: negative, PositiveKey: positive}
}

func GamepadAxisBinding(slot int, axis GamepadAxis, deadzone float32) ActionBinding {
	return ActionBinding{Kind: BindGamepadAxis, PadSlot: slot, Axis: axis, Deadzone: deadzone}
}

// value samples the binding against the current input state.
func (b ActionBinding) value(in *InputState) float32 {
	switch b.Kind {
	case BindKey:
		if in.IsKeyDown(b.Key) {
			return 1
		}
	case BindMouseButton:
		if in.IsButtonDown(b.Button) {
			return 1
		}
	case BindGamepadButton:
		if in.IsGamepadButtonDown(b.PadSlot, b.PadButton) {
			return 1
		}
	case BindAxisKeys:
		v := float32(0)
		if in.IsKeyDown(b.PositiveKey) {
			v += 1
		}
		if in.IsKeyDown(b.NegativeKey) {
			v -= 1
		}
		return v
	case BindGamepadAxis:
		v := in.GamepadAxisValue(b.PadSlot, b.Axis)
		if float32(math.Abs(float64(v))) < b.Deadzone {
			return 0
		}
		return v
	}
	return 0
}

type ActionCallback func(action *InputAction)

type InputAction struct {
	name     string
	bindings []ActionBinding
	phase    ActionPhase
	value    float32

	// Any axis binding turns the whole action into a value action.
	continuous bool

	onStarted   ActionCallback
	onPerformed ActionCallback
	onCanceled  ActionCallback
}

func NewInputAction(name string, bindings ...ActionBinding) *InputAction {
	a := &InputAction{name: name}
	for _, b := range bindings {
		a.AddBinding(b)
	}
	return a
}

func (a *InputAction) Name() string       { return a.name }
func (a *InputAction) Phase() ActionPhase { return a.phase }
func (a *InputAction) Value() float32     { return a.value }

func (a *InputAction) AddBinding(b ActionBinding) *InputAction {
	a.bindings = append(a.bindings, b)
	if b.Kind == BindAxisKeys || b.Kind == BindGamepadAxis {
		a.continuous = true
	}
	return a
}

func (a *InputAction) OnStarted(fn ActionCallback) *InputAction {
	a.onStarted = fn
	return a
}

func (a *InputAction) OnPerformed(fn ActionCallback) *InputAction {
	a.onPerformed = fn
	return a
}

func (a *InputAction) OnCanceled(fn ActionCallback) *InputAction {
	a.onCanceled = fn
	return a
}

// evaluate advances the phase machine from the sampled bindings. The
// binding with the largest magnitude wins so a stick at rest never
// masks a pressed key.
func (a *InputAction) evaluate(in *InputState) {
	value := float32(0)
	for _, b := range a.bindings {
		v := b.value(in)
		if math.Abs(float64(v)) > math.Abs(float64(value)) {
			value = v
		}
	}
	a.value = value
	active := value != 0

	switch a.phase {
	case ActionWaiting, ActionCanceled:
		if active {
			a.phase = ActionStarted
			if a.onStarted != nil {
				a.onStarted(a)
			}
			a.phase = ActionPerformed
			if a.onPerformed != nil {
				a.onPerformed(a)
			}
		} else {
			a.phase = ActionWaiting
		}
	case ActionStarted, ActionPerformed:
		if active {
			a.phase = ActionPerformed
			// Button actions stay silently performed while held.
			if a.continuous && a.onPerformed != nil {
				a.onPerformed(a)
			}
		} else {
			a.cancel()
		}
	}
}

func (a *InputAction) cancel() {
	a.phase = ActionCanceled
	a.value = 0
	if a.onCanceled != nil {
		a.onCanceled(a)
	}
}

// ActionMap groups actions that enable and disable together, e.g. one
// map for gameplay and one for menus.
type ActionMap struct {
	name    string
	actions []*InputAction
	byName  map[string]*InputAction
	enabled bool
}

func NewActionMap(name string) *ActionMap {
	return &ActionMap{
		name:    name,
		byName:  make(map[string]*InputAction),
		enabled: true,
	}
}

func (m *ActionMap) Name() string  { return m.name }
func (m *ActionMap) Enabled() bool { return m.enabled }

func (m *ActionMap) AddAction(action *InputAction) *InputAction {
	if action == nil {
		return nil
	}
	if _, exists := m.byName[action.name]; exists {
		LogWarn("action map %s already has an action named %s, replacing it", m.name, action.name)
		for i, a := range m.actions {
			if a.name == action.name {
				m.actions[i] = action
				break
			}
		}
		m.byName[action.name] = action
		return action
	}
	m.actions = append(m.actions, action)
	m.byName[action.name] = action
	return action
}

func (m *ActionMap) Action(name string) *InputAction {
	return m.byName[name]
}

func (m *ActionMap) Enable() {
	m.enabled = true
}

// Disable cancels any in-flight action so callbacks observe a clean
// release even when the map goes away mid-press.
func (m *ActionMap) Disable() {
	m.enabled = false
	m.CancelAll()
}

// CancelAll forces every in-flight action back to waiting, firing the
// canceled callbacks. The enabled flag is left alone.
func (m *ActionMap) CancelAll() {
	for _, a := range m.actions {
		if a.phase == ActionStarted || a.phase == ActionPerformed {
			a.cancel()
		}
		a.phase = ActionWaiting
	}
}

// Evaluate runs every action in insertion order against the input
// state. Disabled maps are skipped entirely.
func (m *ActionMap) Evaluate(in *InputState) {
	if !m.enabled || in == nil {
		return
	}
	for _, a := range m.actions {
		a.evaluate(in)
	}
}
