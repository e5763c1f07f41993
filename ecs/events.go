package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

const (
	EventAnimation  = "animation"
	EventTransition = "transition"
)

// AnimationEvent is pushed for every clip event an animator crosses.
type AnimationEvent struct {
	Entity Entity
	Clip   string
	Name   string
	Time   float64
	Value  float64
}

// TransitionEvent is pushed whenever an animator changes clip.
type TransitionEvent struct {
	Entity Entity
	From   string
	To     string
	Cut    bool
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}
