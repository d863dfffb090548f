package core

import "sync/atomic"

/**
 * @brief Polled input state for keyboard, mouse and gamepads.
 *
 * The platform layer feeds device transitions through the Process*
 * methods between frames; game code polls the resulting state during
 * update. Each transition also fires the matching event through the
 * active dispatcher, so layered code can react without polling.
 *
 * Pressed/released edges survive exactly one frame and are cleared by
 * EndFrame(). A key that goes down and back up inside a single frame
 * reports both edges for that frame.
 */

type keyboardState struct {
	held     [KEYS_MAX_KEYS]bool
	pressed  [KEYS_MAX_KEYS]bool
	released [KEYS_MAX_KEYS]bool
}

type mouseState struct {
	x, y             float32
	deltaX, deltaY   float32
	scrollX, scrollY float32
	held             [BUTTON_MAX_BUTTONS]bool
	pressed          [BUTTON_MAX_BUTTONS]bool
	released         [BUTTON_MAX_BUTTONS]bool
}

type gamepadState struct {
	connected bool
	name      string
	held      [GAMEPAD_BUTTON_MAX_BUTTONS]bool
	pressed   [GAMEPAD_BUTTON_MAX_BUTTONS]bool
	released  [GAMEPAD_BUTTON_MAX_BUTTONS]bool
	axes      [GAMEPAD_AXIS_MAX_AXES]float32
}

type InputState struct {
	keyboard keyboardState
	mouse    mouseState
	gamepads [MAX_GAMEPADS]gamepadState

	// Gameplay input is disabled in edit mode. Held state keeps
	// tracking the device so nothing sticks on re-enable, but edges
	// are suppressed and gamepad queries report neutral values.
	gameplayEnabled bool

	sink func(EventContext) bool
}

func NewInputState() *InputState {
	return &InputState{gameplayEnabled: true}
}

// SetEventSink redirects the events this state produces. The default
// sink is EventFire; the application host installs its own router so
// window layers can consume input before dispatcher subscribers see it.
func (in *InputState) SetEventSink(sink func(EventContext) bool) {
	in.sink = sink
}

func (in *InputState) fire(ctx EventContext) {
	if in.sink != nil {
		in.sink(ctx)
		return
	}
	EventFire(ctx)
}

func (in *InputState) SetGameplayInputEnabled(enabled bool) {
	in.gameplayEnabled = enabled
}

func (in *InputState) GameplayInputEnabled() bool {
	return in.gameplayEnabled
}

/** @brief Clears one-frame edges and frame-relative deltas. Called once per frame after all systems have run. */
func (in *InputState) EndFrame() {
	for i := range in.keyboard.pressed {
		in.keyboard.pressed[i] = false
		in.keyboard.released[i] = false
	}
	for i := range in.mouse.pressed {
		in.mouse.pressed[i] = false
		in.mouse.released[i] = false
	}
	in.mouse.deltaX = 0
	in.mouse.deltaY = 0
	in.mouse.scrollX = 0
	in.mouse.scrollY = 0
	for g := range in.gamepads {
		for i := range in.gamepads[g].pressed {
			in.gamepads[g].pressed[i] = false
			in.gamepads[g].released[i] = false
		}
	}
}

// ---------------------------------------------------------------------------
// Feed methods, called by the platform layer.

func (in *InputState) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEYS_MAX_KEYS {
		LogWarn("ignoring key code 0x%X outside the key table", uint16(key))
		return
	}
	if in.keyboard.held[key] == pressed {
		// OS key-repeat arrives as a second press. Surface it as a
		// repeat event but do not fabricate a new edge.
		if pressed {
			in.fire(EventContext{Type: EventKeyPressed, Data: KeyEvent{Key: key, Repeat: true}})
		}
		return
	}
	in.keyboard.held[key] = pressed
	if in.gameplayEnabled {
		if pressed {
			in.keyboard.pressed[key] = true
		} else {
			in.keyboard.released[key] = true
		}
	}
	if pressed {
		in.fire(EventContext{Type: EventKeyPressed, Data: KeyEvent{Key: key}})
	} else {
		in.fire(EventContext{Type: EventKeyReleased, Data: KeyEvent{Key: key}})
	}
}

func (in *InputState) ProcessChar(ch rune) {
	in.fire(EventContext{Type: EventKeyTyped, Data: KeyTypedEvent{Char: ch}})
}

func (in *InputState) ProcessButton(button Button, pressed bool) {
	if button >= BUTTON_MAX_BUTTONS {
		return
	}
	if in.mouse.held[button] == pressed {
		return
	}
	in.mouse.held[button] = pressed
	if in.gameplayEnabled {
		if pressed {
			in.mouse.pressed[button] = true
		} else {
			in.mouse.released[button] = true
		}
	}
	if pressed {
		in.fire(EventContext{Type: EventMouseButtonPressed, Data: MouseButtonEvent{Button: button}})
	} else {
		in.fire(EventContext{Type: EventMouseButtonReleased, Data: MouseButtonEvent{Button: button}})
	}
}

func (in *InputState) ProcessMouseMove(x, y float32) {
	if in.mouse.x == x && in.mouse.y == y {
		return
	}
	in.mouse.deltaX += x - in.mouse.x
	in.mouse.deltaY += y - in.mouse.y
	in.mouse.x = x
	in.mouse.y = y
	in.fire(EventContext{Type: EventMouseMoved, Data: MouseMovedEvent{X: x, Y: y}})
}

func (in *InputState) ProcessMouseWheel(xOffset, yOffset float32) {
	in.mouse.scrollX += xOffset
	in.mouse.scrollY += yOffset
	in.fire(EventContext{Type: EventMouseScrolled, Data: MouseScrolledEvent{XOffset: xOffset, YOffset: yOffset}})
}

func (in *InputState) ProcessGamepadConnection(slot int, connected bool, name string) {
	if slot < 0 || slot >= MAX_GAMEPADS {
		return
	}
	pad := &in.gamepads[slot]
	if pad.connected == connected {
		return
	}
	// Reset the snapshot on both transitions so stale state from a
	// previous controller never leaks into the next one.
	*pad = gamepadState{connected: connected, name: name}
	if connected {
		LogInfo("gamepad connected in slot %d: %s", slot, name)
		in.fire(EventContext{Type: EventGamepadConnected, Data: GamepadEvent{Slot: slot}})
	} else {
		LogInfo("gamepad disconnected from slot %d", slot)
		in.fire(EventContext{Type: EventGamepadDisconnected, Data: GamepadEvent{Slot: slot}})
	}
}

func (in *InputState) ProcessGamepadButton(slot int, button GamepadButton, pressed bool) {
	if slot < 0 || slot >= MAX_GAMEPADS || button >= GAMEPAD_BUTTON_MAX_BUTTONS {
		return
	}
	pad := &in.gamepads[slot]
	if !pad.connected || pad.held[button] == pressed {
		return
	}
	pad.held[button] = pressed
	if in.gameplayEnabled {
		if pressed {
			pad.pressed[button] = true
		} else {
			pad.released[button] = true
		}
	}
}

func (in *InputState) ProcessGamepadAxis(slot int, axis GamepadAxis, value float32) {
	if slot < 0 || slot >= MAX_GAMEPADS || axis >= GAMEPAD_AXIS_MAX_AXES {
		return
	}
	pad := &in.gamepads[slot]
	if !pad.connected {
		return
	}
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	pad.axes[axis] = value
}

// ---------------------------------------------------------------------------
// Queries.

func (in *InputState) IsKeyDown(key KeyCode) bool {
	if key >= KEYS_MAX_KEYS {
		return false
	}
	return in.keyboard.held[key]
}

func (in *InputState) IsKeyPressed(key KeyCode) bool {
	if key >= KEYS_MAX_KEYS {
		return false
	}
	return in.keyboard.pressed[key]
}

func (in *InputState) IsKeyReleased(key KeyCode) bool {
	if key >= KEYS_MAX_KEYS {
		return false
	}
	return in.keyboard.released[key]
}

func (in *InputState) IsButtonDown(button Button) bool {
	if button >= BUTTON_MAX_BUTTONS {
		return false
	}
	return in.mouse.held[button]
}

func (in *InputState) IsButtonPressed(button Button) bool {
	if button >= BUTTON_MAX_BUTTONS {
		return false
	}
	return in.mouse.pressed[button]
}

func (in *InputState) IsButtonReleased(button Button) bool {
	if button >= BUTTON_MAX_BUTTONS {
		return false
	}
	return in.mouse.released[button]
}

func (in *InputState) MousePosition() (x, y float32) {
	return in.mouse.x, in.mouse.y
}

func (in *InputState) MouseDelta() (dx, dy float32) {
	return in.mouse.deltaX, in.mouse.deltaY
}

func (in *InputState) MouseScroll() (sx, sy float32) {
	return in.mouse.scrollX, in.mouse.scrollY
}

func (in *InputState) IsGamepadConnected(slot int) bool {
	if slot < 0 || slot >= MAX_GAMEPADS {
		return false
	}
	return in.gamepads[slot].connected
}

func (in *InputState) GamepadName(slot int) string {
	if slot < 0 || slot >= MAX_GAMEPADS {
		return ""
	}
	return in.gamepads[slot].name
}

func (in *InputState) IsGamepadButtonDown(slot int, button GamepadButton) bool {
	if !in.gameplayEnabled || slot < 0 || slot >= MAX_GAMEPADS || button >= GAMEPAD_BUTTON_MAX_BUTTONS {
		return false
	}
	return in.gamepads[slot].held[button]
}

func (in *InputState) IsGamepadButtonPressed(slot int, button GamepadButton) bool {
	if !in.gameplayEnabled || slot < 0 || slot >= MAX_GAMEPADS || button >= GAMEPAD_BUTTON_MAX_BUTTONS {
		return false
	}
	return in.gamepads[slot].pressed[button]
}

func (in *InputState) IsGamepadButtonReleased(slot int, button GamepadButton) bool {
	if !in.gameplayEnabled || slot < 0 || slot >= MAX_GAMEPADS || button >= GAMEPAD_BUTTON_MAX_BUTTONS {
		return false
	}
	return in.gamepads[slot].released[button]
}

func (in *InputState) GamepadAxisValue(slot int, axis GamepadAxis) float32 {
	if !in.gameplayEnabled || slot < 0 || slot >= MAX_GAMEPADS || axis >= GAMEPAD_AXIS_MAX_AXES {
		return 0
	}
	return in.gamepads[slot].axes[axis]
}

// ---------------------------------------------------------------------------
// Active instance, mirroring the active dispatcher.

var activeInput atomic.Pointer[InputState]

func SetActiveInput(in *InputState) {
	activeInput.Store(in)
}

func ActiveInput() *InputState {
	return activeInput.Load()
}
