package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted while a command runs
// are queued in the back buffer and only become visible after SwapBuffers,
// so observers never see a half-applied batch. Delivery keeps emission order.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []any
	back     []any
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]any, 0, 32),
		back:     make([]any, 0, 32),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer.
func Emit[T any](b *Bus, event T) {
	b.back = append(b.back, event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// Pending returns the number of events waiting in the back buffer.
func (b *Bus) Pending() int {
	return len(b.back)
}

// DispatchAll delivers all front-buffer events to their subscribed handlers
// and empties the front buffer. Handlers may Emit; those events wait for
// the next swap.
func (b *Bus) DispatchAll() {
	b.mu.Lock()
	snapshot := make(map[reflect.Type][]any, len(b.handlers))
	for t, hs := range b.handlers {
		snapshot[t] = hs
	}
	b.mu.Unlock()

	events := b.front
	b.front = nil
	for _, ev := range events {
		for _, h := range snapshot[reflect.TypeOf(ev)] {
			// Subscribe and Emit key on the same static type.
			callHandler(h, ev)
		}
	}
	b.front = events[:0]
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
