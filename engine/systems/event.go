package systems

import (
	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// EventSystem owns the dispatcher and drains the queued-event FIFO once
// per frame. It registers itself as the process-wide active dispatcher
// so EventFire/EventEnqueue reach it without plumbing.
type EventSystem struct {
	BaseSystem

	dispatcher *core.EventDispatcher

	// MaxEventsPerUpdate caps one drain. 0 drains everything.
	MaxEventsPerUpdate int
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		dispatcher: core.NewEventDispatcher(),
	}
}

func (es *EventSystem) Name() string             { return "Events" }
func (es *EventSystem) Priority() SystemPriority { return PriorityCritical }

func (es *EventSystem) Initialize() error {
	core.SetActiveDispatcher(es.dispatcher)
	es.MarkInitialized()
	return nil
}

func (es *EventSystem) Update(deltaTime float64) error {
	es.dispatcher.ProcessQueuedEvents(es.MaxEventsPerUpdate)
	return nil
}

func (es *EventSystem) Render(deltaTime float64) error { return nil }

func (es *EventSystem) Shutdown() error {
	if n := es.dispatcher.ClearEventQueue(); n > 0 {
		core.LogDebug("discarded %d queued events at shutdown", n)
	}
	if core.ActiveDispatcher() == es.dispatcher {
		core.SetActiveDispatcher(nil)
	}
	es.MarkShutdown()
	return nil
}

func (es *EventSystem) Dispatcher() *core.EventDispatcher { return es.dispatcher }
