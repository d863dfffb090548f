package platform

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// GLFW has no per-button callbacks for joysticks, so gamepads are
// polled once per pump. The engine button and axis tables follow the
// standard gamepad mapping, which makes the translation a direct cast.
func (p *Platform) pollGamepads() {
	for slot := 0; slot < core.MAX_GAMEPADS; slot++ {
		joy := glfw.Joystick(slot)
		present := joy.Present() && joy.IsGamepad()
		if present != p.joyConnected[slot] {
			p.joyConnected[slot] = present
			name := ""
			if present {
				name = joy.GetGamepadName()
			}
			p.input.ProcessGamepadConnection(slot, present, name)
		}
		if !present {
			continue
		}
		state := joy.GetGamepadState()
		if state == nil {
			continue
		}
		for b := 0; b < int(core.GAMEPAD_BUTTON_MAX_BUTTONS); b++ {
			p.input.ProcessGamepadButton(slot, core.GamepadButton(b), state.Buttons[b] == glfw.Press)
		}
		for a := 0; a < int(core.GAMEPAD_AXIS_MAX_AXES); a++ {
			p.input.ProcessGamepadAxis(slot, core.GamepadAxis(a), state.Axes[a])
		}
	}
}
