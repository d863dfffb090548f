package systems

// SystemPriority orders system traversal. Lower values run first during
// initialization, update and render; shutdown walks the same order in
// reverse.
type SystemPriority uint8

const (
	PriorityCritical SystemPriority = iota
	PriorityCore
	PriorityHigh
	PriorityNormal
	PriorityLow
)

func (p SystemPriority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityCore:
		return "core"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	}
	return "unknown"
}

// System is one engine subsystem managed by the Manager. Implementations
// embed BaseSystem and call MarkInitialized/MarkShutdown so the manager
// can skip systems that are not eligible for a traversal.
type System interface {
	Name() string
	Priority() SystemPriority
	Initialize() error
	Update(deltaTime float64) error
	Render(deltaTime float64) error
	Shutdown() error
	IsInitialized() bool
}

// BaseSystem carries the initialized flag shared by every system.
// Lifecycle transitions happen on the main goroutine.
type BaseSystem struct {
	initialized bool
}

func (b *BaseSystem) MarkInitialized() { b.initialized = true }
func (b *BaseSystem) MarkShutdown()    { b.initialized = false }

func (b *BaseSystem) IsInitialized() bool { return b.initialized }
