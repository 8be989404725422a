// Package linkage carries cross-view interaction events so views can
// highlight each other without feedback loops.
package linkage

// Kind identifies a class of cross-view interaction.
type Kind string

// Interaction kinds emitted by the dashboard views.
const (
	KindSelectAuthor Kind = "selectAuthor"
	KindFilterTime   Kind = "filterTime"
	KindHoverFile    Kind = "hoverFile"
)

// Event is one delivered interaction. SourceID names the view whose handler
// emitted it.
type Event struct {
	Kind     Kind   `json:"kind"`
	Payload  any    `json:"payload"`
	SourceID string `json:"sourceId"`
}

// Handler receives events for one subscription.
type Handler func(Event)

type subscriber struct {
	id      string
	handler Handler
}

// Bus dispatches view interactions synchronously, in subscription order,
// skipping the subscriber whose id matches the emitting view. A Bus belongs
// to one dashboard session: construct it with the session, inject it into
// each view, and Reset it when a new analysis starts. Bus is not safe for
// concurrent use; the dashboard drives it from a single logical thread.
type Bus struct {
	subscribers map[Kind][]subscriber
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: map[Kind][]subscriber{}}
}

// Subscribe registers a handler for the kind under the given view id.
// Handlers fire in subscription order.
func (b *Bus) Subscribe(kind Kind, id string, handler Handler) {
	b.subscribers[kind] = append(b.subscribers[kind], subscriber{id: id, handler: handler})
}

// Unsubscribe removes every handler the view id registered for the kind.
func (b *Bus) Unsubscribe(kind Kind, id string) {
	subs := b.subscribers[kind]
	kept := subs[:0]

	for _, s := range subs {
		if s.id != id {
			kept = append(kept, s)
		}
	}

	b.subscribers[kind] = kept
}

// Emit delivers the event to every subscriber for the kind except the one
// registered under sourceID, exactly once each, synchronously in the same
// control-flow turn. There is no queuing, no retry, and no cancellation.
func (b *Bus) Emit(kind Kind, payload any, sourceID string) {
	event := Event{Kind: kind, Payload: payload, SourceID: sourceID}

	for _, s := range b.subscribers[kind] {
		if s.id == sourceID {
			continue
		}

		s.handler(event)
	}
}

// SubscriberCount returns the number of handlers registered for the kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	return len(b.subscribers[kind])
}

// Reset drops every subscription. Called when a new analysis session starts
// so no handler remains bound to a discarded dataset.
func (b *Bus) Reset() {
	b.subscribers = map[Kind][]subscriber{}
}
