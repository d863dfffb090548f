package core

import (
	"fmt"
	"sync"
)

// EventType is the stable per-kind identifier subscriptions key on.
// Engine-internal types live below 0x100; applications register their own
// from EventTypeCustomBase upward.
type EventType uint16

const (
	EventNone EventType = 0x00

	// Shuts the application down on the next frame.
	EventWindowClose EventType = 0x01
	// Window resized or resolution changed from the OS.
	EventWindowResize EventType = 0x02
	// Window gained input focus.
	EventWindowFocus EventType = 0x03
	// Window lost input focus.
	EventWindowLostFocus EventType = 0x04
	// Window moved on screen.
	EventWindowMoved EventType = 0x05

	// Keyboard key pressed. Data: KeyEvent.
	EventKeyPressed EventType = 0x06
	// Keyboard key released. Data: KeyEvent.
	EventKeyReleased EventType = 0x07
	// Printable character produced. Data: KeyTypedEvent.
	EventKeyTyped EventType = 0x08

	// Mouse button pressed. Data: MouseButtonEvent.
	EventMouseButtonPressed EventType = 0x09
	// Mouse button released. Data: MouseButtonEvent.
	EventMouseButtonReleased EventType = 0x0A
	// Mouse moved. Data: MouseMovedEvent.
	EventMouseMoved EventType = 0x0B
	// Mouse wheel scrolled. Data: MouseScrolledEvent.
	EventMouseScrolled EventType = 0x0C

	// Gamepad plugged into a slot. Data: GamepadEvent.
	EventGamepadConnected EventType = 0x0D
	// Gamepad removed from a slot. Data: GamepadEvent.
	EventGamepadDisconnected EventType = 0x0E

	// Fired once when the engine finishes initialization.
	EventApplicationStarted EventType = 0x0F
	// Fired at the end of every engine update. Data: EngineUpdateEvent.
	EventEngineUpdate EventType = 0x10
	// Fired at the end of every engine render. Data: EngineRenderEvent.
	EventEngineRender EventType = 0x11

	MaxEngineEventType EventType = 0xFF
	// First event type available to applications.
	EventTypeCustomBase EventType = 0x100
)

// EventCategory is a bitwise-OR of base categories.
type EventCategory uint8

const (
	CategoryNone        EventCategory = 0
	CategoryApplication EventCategory = 1 << 0
	CategoryEngine      EventCategory = 1 << 1
	CategoryWindow      EventCategory = 1 << 2
	CategoryInput       EventCategory = 1 << 3
	CategoryKeyboard    EventCategory = 1 << 4
	CategoryMouse       EventCategory = 1 << 5
	CategoryMouseButton EventCategory = 1 << 6
	CategoryGamepad     EventCategory = 1 << 7
)

// Has reports whether every bit of other is set in c.
func (c EventCategory) Has(other EventCategory) bool {
	return c&other == other
}

var engineEventCategories = map[EventType]EventCategory{
	EventWindowClose:         CategoryApplication | CategoryWindow,
	EventWindowResize:        CategoryApplication | CategoryWindow,
	EventWindowFocus:         CategoryApplication | CategoryWindow,
	EventWindowLostFocus:     CategoryApplication | CategoryWindow,
	EventWindowMoved:         CategoryApplication | CategoryWindow,
	EventKeyPressed:          CategoryInput | CategoryKeyboard,
	EventKeyReleased:         CategoryInput | CategoryKeyboard,
	EventKeyTyped:            CategoryInput | CategoryKeyboard,
	EventMouseButtonPressed:  CategoryInput | CategoryMouse | CategoryMouseButton,
	EventMouseButtonReleased: CategoryInput | CategoryMouse | CategoryMouseButton,
	EventMouseMoved:          CategoryInput | CategoryMouse,
	EventMouseScrolled:       CategoryInput | CategoryMouse,
	EventGamepadConnected:    CategoryInput | CategoryGamepad,
	EventGamepadDisconnected: CategoryInput | CategoryGamepad,
	EventApplicationStarted:  CategoryApplication,
	EventEngineUpdate:        CategoryEngine,
	EventEngineRender:        CategoryEngine,
}

var customEventsMu sync.RWMutex
var customEventCategories = map[EventType]EventCategory{}
var customEventNames = map[EventType]string{}

// RegisterEventType declares a custom event type's category and display
// name. Re-registering an engine type or an already registered custom type
// returns an error and leaves the tables untouched.
func RegisterEventType(t EventType, category EventCategory, name string) error {
	if t < EventTypeCustomBase {
		return NewError(ErrInvalidParameter, "event type %#x is reserved for the engine", uint16(t))
	}
	customEventsMu.Lock()
	defer customEventsMu.Unlock()
	if _, exists := customEventCategories[t]; exists {
		return NewError(ErrInvalidState, "event type %#x is already registered", uint16(t))
	}
	customEventCategories[t] = category
	customEventNames[t] = name
	return nil
}

// Category resolves the category bitmask for t; CategoryNone when unknown.
func (t EventType) Category() EventCategory {
	if c, ok := engineEventCategories[t]; ok {
		return c
	}
	customEventsMu.RLock()
	defer customEventsMu.RUnlock()
	return customEventCategories[t]
}

func (t EventType) String() string {
	switch t {
	case EventWindowClose:
		return "WindowClose"
	case EventWindowResize:
		return "WindowResize"
	case EventWindowFocus:
		return "WindowFocus"
	case EventWindowLostFocus:
		return "WindowLostFocus"
	case EventWindowMoved:
		return "WindowMoved"
	case EventKeyPressed:
		return "KeyPressed"
	case EventKeyReleased:
		return "KeyReleased"
	case EventKeyTyped:
		return "KeyTyped"
	case EventMouseButtonPressed:
		return "MouseButtonPressed"
	case EventMouseButtonReleased:
		return "MouseButtonReleased"
	case EventMouseMoved:
		return "MouseMoved"
	case EventMouseScrolled:
		return "MouseScrolled"
	case EventGamepadConnected:
		return "GamepadConnected"
	case EventGamepadDisconnected:
		return "GamepadDisconnected"
	case EventApplicationStarted:
		return "ApplicationStarted"
	case EventEngineUpdate:
		return "EngineUpdate"
	case EventEngineRender:
		return "EngineRender"
	}
	customEventsMu.RLock()
	name, ok := customEventNames[t]
	customEventsMu.RUnlock()
	if ok {
		return name
	}
	return fmt.Sprintf("EventType(%#x)", uint16(t))
}

// EventContext pairs an event type with its immutable payload. The handled
// flag is set when any subscriber or layer reports the event consumed;
// later subscribers in the same dispatch observe it.
type EventContext struct {
	Type    EventType
	Data    interface{}
	handled bool
}

func (e *EventContext) MarkHandled()    { e.handled = true }
func (e *EventContext) IsHandled() bool { return e.handled }

// Payload types for engine events. Payloads are treated as immutable after
// the event is fired.

type WindowResizeEvent struct {
	Width  uint32
	Height uint32
}

type WindowMovedEvent struct {
	X int32
	Y int32
}

type KeyEvent struct {
	Key    KeyCode
	Repeat bool
}

type KeyTypedEvent struct {
	Char rune
}

type MouseButtonEvent struct {
	Button Button
}

type MouseMovedEvent struct {
	X float32
	Y float32
}

type MouseScrolledEvent struct {
	XOffset float32
	YOffset float32
}

type GamepadEvent struct {
	Slot int
}

type EngineUpdateEvent struct {
	Delta float64
}

type EngineRenderEvent struct {
	Delta float64
}

type ApplicationStartedEvent struct{}
