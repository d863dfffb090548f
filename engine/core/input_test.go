package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyEdgesLastOneFrame(t *testing.T) {
	in := NewInputState()

	in.ProcessKey(KEY_W, true)
	assert.True(t, in.IsKeyDown(KEY_W))
	assert.True(t, in.IsKeyPressed(KEY_W))
	assert.False(t, in.IsKeyReleased(KEY_W))

	in.EndFrame()
	assert.True(t, in.IsKeyDown(KEY_W), "held state survives the frame boundary")
	assert.False(t, in.IsKeyPressed(KEY_W))

	in.ProcessKey(KEY_W, false)
	assert.False(t, in.IsKeyDown(KEY_W))
	assert.True(t, in.IsKeyReleased(KEY_W))

	in.EndFrame()
	assert.False(t, in.IsKeyReleased(KEY_W))
}

func TestKeyRepeatDoesNotRetrigger(t *testing.T) {
	d := NewEventDispatcher()
	SetActiveDispatcher(d)
	defer SetActiveDispatcher(nil)

	var repeats []bool
	SubscribeTo(d, EventKeyPressed, func(e KeyEvent) bool {
		repeats = append(repeats, e.Repeat)
		return false
	})

	in := NewInputState()
	in.ProcessKey(KEY_SPACE, true)
	in.EndFrame()
	in.ProcessKey(KEY_SPACE, true) // OS auto-repeat

	assert.False(t, in.IsKeyPressed(KEY_SPACE), "repeat is not a new edge")
	require.Equal(t, []bool{false, true}, repeats)
}

func TestKeyDownAndUpInOneFrame(t *testing.T) {
	in := NewInputState()
	in.ProcessKey(KEY_ESCAPE, true)
	in.ProcessKey(KEY_ESCAPE, false)

	assert.True(t, in.IsKeyPressed(KEY_ESCAPE))
	assert.True(t, in.IsKeyReleased(KEY_ESCAPE))
	assert.False(t, in.IsKeyDown(KEY_ESCAPE))
}

func TestKeyOutOfRangeIgnored(t *testing.T) {
	in := NewInputState()
	assert.NotPanics(t, func() { in.ProcessKey(KEYS_MAX_KEYS, true) })
	assert.False(t, in.IsKeyDown(KEYS_MAX_KEYS))
	assert.False(t, in.IsKeyPressed(KeyCode(0xFFFF)))
}

func TestMouseDeltaAccumulatesPerFrame(t *testing.T) {
	in := NewInputState()

	in.ProcessMouseMove(100, 100)
	in.EndFrame()

	in.ProcessMouseMove(110, 95)
	in.ProcessMouseMove(120, 90)
	dx, dy := in.MouseDelta()
	assert.InDelta(t, 20, dx, 0.001)
	assert.InDelta(t, -10, dy, 0.001)

	in.EndFrame()
	dx, dy = in.MouseDelta()
	assert.Zero(t, dx)
	assert.Zero(t, dy)
	x, y := in.MousePosition()
	assert.InDelta(t, 120, x, 0.001, "position persists across frames")
	assert.InDelta(t, 90, y, 0.001)
}

func TestMouseButtonsAndWheel(t *testing.T) {
	in := NewInputState()

	in.ProcessButton(BUTTON_LEFT, true)
	assert.True(t, in.IsButtonDown(BUTTON_LEFT))
	assert.True(t, in.IsButtonPressed(BUTTON_LEFT))

	in.ProcessMouseWheel(0, 1)
	in.ProcessMouseWheel(0, 0.5)
	_, sy := in.MouseScroll()
	assert.InDelta(t, 1.5, sy, 0.001)

	in.EndFrame()
	assert.True(t, in.IsButtonDown(BUTTON_LEFT))
	assert.False(t, in.IsButtonPressed(BUTTON_LEFT))
	_, sy = in.MouseScroll()
	assert.Zero(t, sy)
}

func TestGameplayDisabledSuppressesEdges(t *testing.T) {
	in := NewInputState()
	in.SetGameplayInputEnabled(false)

	in.ProcessKey(KEY_A, true)
	assert.True(t, in.IsKeyDown(KEY_A), "held state keeps tracking the device")
	assert.False(t, in.IsKeyPressed(KEY_A), "edges are suppressed")

	in.ProcessButton(BUTTON_RIGHT, true)
	assert.False(t, in.IsButtonPressed(BUTTON_RIGHT))

	in.SetGameplayInputEnabled(true)
	in.ProcessKey(KEY_A, false)
	assert.True(t, in.IsKeyReleased(KEY_A), "edges resume after re-enable")
}

func TestGameplayDisabledNeutralizesGamepad(t *testing.T) {
	in := NewInputState()
	in.ProcessGamepadConnection(0, true, "pad")
	in.ProcessGamepadAxis(0, GAMEPAD_AXIS_LEFT_X, 0.8)
	in.ProcessGamepadButton(0, GAMEPAD_BUTTON_A, true)
	require.InDelta(t, 0.8, in.GamepadAxisValue(0, GAMEPAD_AXIS_LEFT_X), 0.001)
	require.True(t, in.IsGamepadButtonDown(0, GAMEPAD_BUTTON_A))

	in.SetGameplayInputEnabled(false)
	assert.Zero(t, in.GamepadAxisValue(0, GAMEPAD_AXIS_LEFT_X))
	assert.False(t, in.IsGamepadButtonDown(0, GAMEPAD_BUTTON_A))
	assert.True(t, in.IsGamepadConnected(0), "connection status is not gameplay input")
}

func TestGamepadConnectionLifecycle(t *testing.T) {
	d := NewEventDispatcher()
	SetActiveDispatcher(d)
	defer SetActiveDispatcher(nil)

	var slots []int
	SubscribeTo(d, EventGamepadConnected, func(e GamepadEvent) bool {
		slots = append(slots, e.Slot)
		return false
	})

	in := NewInputState()
	in.ProcessGamepadConnection(1, true, "Wireless Controller")
	in.ProcessGamepadConnection(1, true, "Wireless Controller") // duplicate notification
	assert.Equal(t, []int{1}, slots)
	assert.Equal(t, "Wireless Controller", in.GamepadName(1))

	in.ProcessGamepadAxis(1, GAMEPAD_AXIS_RIGHT_Y, -2.5)
	assert.InDelta(t, -1, in.GamepadAxisValue(1, GAMEPAD_AXIS_RIGHT_Y), 0.001, "axis values clamp to [-1,1]")

	in.ProcessGamepadConnection(1, false, "")
	assert.False(t, in.IsGamepadConnected(1))
	assert.Zero(t, in.GamepadAxisValue(1, GAMEPAD_AXIS_RIGHT_Y), "disconnect resets the snapshot")
}

func TestGamepadInputRequiresConnection(t *testing.T) {
	in := NewInputState()
	in.ProcessGamepadButton(2, GAMEPAD_BUTTON_START, true)
	in.ProcessGamepadAxis(2, GAMEPAD_AXIS_LEFT_X, 0.5)
	assert.False(t, in.IsGamepadButtonDown(2, GAMEPAD_BUTTON_START))
	assert.Zero(t, in.GamepadAxisValue(2, GAMEPAD_AXIS_LEFT_X))

	assert.NotPanics(t, func() {
		in.ProcessGamepadConnection(-1, true, "bad slot")
		in.ProcessGamepadConnection(MAX_GAMEPADS, true, "bad slot")
	})
}

func TestActiveInputAccessor(t *testing.T) {
	assert.Nil(t, ActiveInput())
	in := NewInputState()
	SetActiveInput(in)
	defer SetActiveInput(nil)
	assert.Same(t, in, ActiveInput())
}
