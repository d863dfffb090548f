package core

import (
	"sync"
	"sync/atomic"
)

// EventHandler receives a dispatched event. Returning true marks the event
// handled; dispatch still continues to the remaining subscribers, which can
// observe the flag through ctx.IsHandled.
type EventHandler func(ctx *EventContext) bool

// SubscriptionID names exactly one (event type, handler) pair. IDs are
// never reused; 0 is never a valid id.
type SubscriptionID uint64

const InvalidSubscriptionID SubscriptionID = 0

type subscription struct {
	id      SubscriptionID
	handler EventHandler
}

// EventDispatcher routes typed events to subscribers, immediately or
// through a FIFO queue drained once per frame by the event system.
//
// Subscriptions are guarded by a readers-writer lock; dispatch takes the
// read side and snapshots the handler list, so handlers may subscribe or
// unsubscribe freely mid-dispatch. The queue has its own mutex and is
// swapped out before dispatching, so queueing from a handler is safe too.
type EventDispatcher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscription
	idIndex     map[SubscriptionID]EventType
	nextID      atomic.Uint64

	queueMu sync.Mutex
	queue   []EventContext
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		subscribers: make(map[EventType][]subscription),
		idIndex:     make(map[SubscriptionID]EventType),
	}
}

// Subscribe registers handler for events of type t.
func (d *EventDispatcher) Subscribe(t EventType, handler EventHandler) SubscriptionID {
	if handler == nil {
		LogWarn("Subscribe called with nil handler for event type %s", t)
		return InvalidSubscriptionID
	}
	id := SubscriptionID(d.nextID.Add(1))
	d.mu.Lock()
	d.subscribers[t] = append(d.subscribers[t], subscription{id: id, handler: handler})
	d.idIndex[id] = t
	d.mu.Unlock()
	return id
}

// Unsubscribe removes the subscription named by id. Unknown ids return
// false and mutate nothing.
func (d *EventDispatcher) Unsubscribe(id SubscriptionID) bool {
	if id == InvalidSubscriptionID {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.idIndex[id]
	if !ok {
		return false
	}
	delete(d.idIndex, id)
	subs := d.subscribers[t]
	for i := range subs {
		if subs[i].id == id {
			d.subscribers[t] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(d.subscribers[t]) == 0 {
		delete(d.subscribers, t)
	}
	return true
}

// UnsubscribeAll removes every subscription for t and returns how many
// were removed.
func (d *EventDispatcher) UnsubscribeAll(t EventType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	subs := d.subscribers[t]
	for _, s := range subs {
		delete(d.idIndex, s.id)
	}
	delete(d.subscribers, t)
	return len(subs)
}

// SubscriptionCount returns the number of live subscriptions for t.
func (d *EventDispatcher) SubscriptionCount(t EventType) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers[t])
}

// DispatchImmediate invokes every current subscriber of ctx.Type in
// subscription order and reports whether any of them handled the event.
// A panicking handler is logged by id and skipped.
func (d *EventDispatcher) DispatchImmediate(ctx *EventContext) bool {
	if ctx == nil {
		return false
	}
	d.mu.RLock()
	subs := make([]subscription, len(d.subscribers[ctx.Type]))
	copy(subs, d.subscribers[ctx.Type])
	d.mu.RUnlock()

	for _, s := range subs {
		if invokeHandler(s, ctx) {
			ctx.MarkHandled()
		}
	}
	return ctx.IsHandled()
}

func invokeHandler(s subscription, ctx *EventContext) (handled bool) {
	defer func() {
		if r := recover(); r != nil {
			LogError("event handler %d panicked on %s: %v", s.id, ctx.Type, r)
			handled = false
		}
	}()
	return s.handler(ctx)
}

// QueueEvent stores a copy of ctx for deferred dispatch.
func (d *EventDispatcher) QueueEvent(ctx EventContext) {
	d.queueMu.Lock()
	d.queue = append(d.queue, ctx)
	d.queueMu.Unlock()
}

// ProcessQueuedEvents drains up to max queued events (0 = all) in FIFO
// order and returns the number dispatched. The queue lock is released
// before any handler runs.
func (d *EventDispatcher) ProcessQueuedEvents(max int) int {
	d.queueMu.Lock()
	n := len(d.queue)
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		d.queueMu.Unlock()
		return 0
	}
	batch := make([]EventContext, n)
	copy(batch, d.queue[:n])
	d.queue = d.queue[n:]
	if len(d.queue) == 0 {
		d.queue = nil
	}
	d.queueMu.Unlock()

	for i := range batch {
		d.DispatchImmediate(&batch[i])
	}
	return n
}

// QueuedEventCount returns the number of events waiting in the queue.
func (d *EventDispatcher) QueuedEventCount() int {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	return len(d.queue)
}

// ClearEventQueue drops all queued events without dispatching and returns
// how many were dropped.
func (d *EventDispatcher) ClearEventQueue() int {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	n := len(d.queue)
	d.queue = nil
	return n
}

// SubscribeTo wraps a payload-typed handler, sparing callers the type
// assertion. Events of type t whose payload is not a T are ignored.
func SubscribeTo[T any](d *EventDispatcher, t EventType, fn func(T) bool) SubscriptionID {
	return d.Subscribe(t, func(ctx *EventContext) bool {
		payload, ok := ctx.Data.(T)
		if !ok {
			LogError("wrong payload associated with event type %s", ctx.Type)
			return false
		}
		return fn(payload)
	})
}

// The active dispatcher is a convenience accessor for code without a
// handle on the event system (platform callbacks, input feed). It is set
// by the event system during engine initialization and cleared at
// shutdown.
var activeDispatcher atomic.Pointer[EventDispatcher]

func SetActiveDispatcher(d *EventDispatcher) {
	activeDispatcher.Store(d)
}

func ActiveDispatcher() *EventDispatcher {
	return activeDispatcher.Load()
}

// EventFire dispatches immediately through the active dispatcher.
// Returns false when no dispatcher is active.
func EventFire(ctx EventContext) bool {
	d := activeDispatcher.Load()
	if d == nil {
		return false
	}
	return d.DispatchImmediate(&ctx)
}

// EventEnqueue queues through the active dispatcher, dropping the event
// with a warning when none is active.
func EventEnqueue(ctx EventContext) {
	d := activeDispatcher.Load()
	if d == nil {
		LogWarn("event %s queued with no active dispatcher, dropped", ctx.Type)
		return
	}
	d.QueueEvent(ctx)
}
