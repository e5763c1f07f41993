package component

// Event is a named point event on a clip timeline.
type Event struct {
	Name  string
	Time  float64
	Value float64
}

// AddEvent appends an event at timestamp t.
func (c *Clip) AddEvent(name string, t, value float64) error {
	if c == nil {
		return ErrNoEvent
	}
	if len(c.events) >= c.eventCap {
		return ErrEventCapacity
	}
	if n := len(c.events); n > 0 && t <= c.events[n-1].Time {
		return ErrTimestampOrder
	}
	c.events = append(c.events, Event{Name: name, Time: t, Value: value})
	return nil
}

// RemoveLastEvent drops the most recently added event.
func (c *Clip) RemoveLastEvent() error {
	if c == nil || len(c.events) == 0 {
		return ErrNoEvent
	}
	c.events[len(c.events)-1] = Event{}
	c.events = c.events[:len(c.events)-1]
	return nil
}

// RemoveAllEvents drops every event.
func (c *Clip) RemoveAllEvents() {
	for c.RemoveLastEvent() == nil {
	}
}

// EventCount returns the number of events.
func (c *Clip) EventCount() int {
	if c == nil {
		return 0
	}
	return len(c.events)
}

// EventCapacity returns the fixed event storage size.
func (c *Clip) EventCapacity() int {
	if c == nil {
		return 0
	}
	return c.eventCap
}

// NextEvent returns the first event strictly after t.
func (c *Clip) NextEvent(t float64) (Event, bool) {
	if c == nil {
		return Event{}, false
	}
	for _, evt := range c.events {
		if evt.Time > t {
			return evt, true
		}
	}
	return Event{}, false
}

// EventsBetween returns events with from < Time <= to, in order.
func (c *Clip) EventsBetween(from, to float64) []Event {
	if c == nil || to <= from {
		return nil
	}
	var out []Event
	for t := from; ; {
		evt, ok := c.NextEvent(t)
		if !ok || evt.Time > to {
			return out
		}
		out = append(out, evt)
		t = evt.Time
	}
}

// ClipEventHandler handles events fired while a clip plays.
type ClipEventHandler func(clip *Clip, evt Event)

// ClipEventEmitter dispatches clip events to handlers.
type ClipEventEmitter struct {
	Handlers []ClipEventHandler
}

// Emit sends an event to all handlers.
func (e *ClipEventEmitter) Emit(clip *Clip, evt Event) {
	if e == nil || len(e.Handlers) == 0 {
		return
	}
	for _, h := range e.Handlers {
		if h != nil {
			h(clip, evt)
		}
	}
}

// Library is a named clip store.
type Library struct {
	clips map[string]*Clip
}

// NewLibrary creates an empty clip library.
func NewLibrary() *Library {
	return &Library{clips: make(map[string]*Clip)}
}

// Add stores a clip under its name, replacing an unowned clip of the same name.
func (l *Library) Add(c *Clip) error {
	if l == nil || c == nil {
		return ErrClipNotFound
	}
	if l.clips == nil {
		l.clips = make(map[string]*Clip)
	}
	if old, ok := l.clips[c.Name]; ok && old != c && old.Owned() {
		return ErrClipInUse
	}
	l.clips[c.Name] = c
	return nil
}

// Get looks a clip up by name.
func (l *Library) Get(name string) (*Clip, bool) {
	if l == nil {
		return nil, false
	}
	c, ok := l.clips[name]
	return c, ok
}

// Delete removes a clip; it fails while a set still owns it.
func (l *Library) Delete(name string) error {
	if l == nil {
		return ErrClipNotFound
	}
	c, ok := l.clips[name]
	if !ok {
		return ErrClipNotFound
	}
	if c.Owned() {
		return ErrClipInUse
	}
	delete(l.clips, name)
	return nil
}

// Len returns the number of stored clips.
func (l *Library) Len() int {
	if l == nil {
		return 0
	}
	return len(l.clips)
}
