package animset

import (
	"fmt"
	"math"

	"github.com/milk9111/animgraph/component"
)

// Instance plays one set: it tracks the current clip, the time spent in it
// and an optional destination, and asks the set where to go each update.
type Instance struct {
	set     *Set
	table   *LinkTable
	current Slot
	target  Slot
	time    float64
	key     int
	fresh   bool
	closed  bool

	// Events receives the clip events crossed by Update.
	Events component.ClipEventEmitter
	// OnTransition, when set, is called for every clip change.
	OnTransition func(from, to Slot, cut bool)
}

// NewInstance starts playing set at start and locks the set.
func NewInstance(set *Set, start Slot) (*Instance, error) {
	if _, err := set.populated(start); err != nil {
		return nil, fmt.Errorf("animset: new instance: %w", err)
	}
	set.Acquire()
	inst := &Instance{
		set:     set,
		current: start,
		target:  NoSlot,
		fresh:   true,
	}
	inst.syncKey()
	return inst, nil
}

// Set returns the played set.
func (i *Instance) Set() *Set { return i.set }

// Current returns the slot being played.
func (i *Instance) Current() Slot { return i.current }

// Target returns the pending destination or NoSlot.
func (i *Instance) Target() Slot { return i.target }

// Time returns the time spent in the current clip.
func (i *Instance) Time() float64 { return i.time }

// Clip returns the clip being played.
func (i *Instance) Clip() *component.Clip {
	c, _ := i.set.Clip(i.current)
	return c
}

// Key returns the index of the key displayed right now.
func (i *Instance) Key() (int, bool) {
	return i.key, i.key >= 0
}

// Pose returns the pose of the displayed key, nil when past the clip end.
func (i *Instance) Pose() any {
	if i.key < 0 {
		return nil
	}
	return i.Clip().KeyPose(i.key)
}

// Links returns the table this instance routes with.
func (i *Instance) Links() *LinkTable {
	if i.table != nil {
		return i.table
	}
	return i.set.links
}

// SetTarget asks the instance to route towards slot. NoSlot clears it, and
// so does the slot already being played, which counts as reached.
func (i *Instance) SetTarget(slot Slot) error {
	if i.closed {
		return ErrClosed
	}
	if slot != NoSlot {
		if _, err := i.set.populated(slot); err != nil {
			return err
		}
	}
	if slot == i.current {
		slot = NoSlot
	}
	i.target = slot
	return nil
}

// SetTargetByName is SetTarget with a clip name lookup.
func (i *Instance) SetTargetByName(name string) error {
	slot := i.set.SlotByName(name)
	if slot == NoSlot {
		return fmt.Errorf("%w: %q", ErrEmptySlot, name)
	}
	return i.SetTarget(slot)
}

// ClearTarget switches back to free routing.
func (i *Instance) ClearTarget() {
	i.target = NoSlot
}

// Play jumps straight to slot, ignoring links.
func (i *Instance) Play(slot Slot) error {
	if i.closed {
		return ErrClosed
	}
	if _, err := i.set.populated(slot); err != nil {
		return err
	}
	i.current = slot
	i.time = 0
	i.fresh = true
	if i.target == slot {
		i.target = NoSlot
	}
	i.syncKey()
	return nil
}

// Update advances time by dt and follows the links. Natural transitions chain
// while the carried time overruns the next clip; an immediate cut ends the
// update. The returned decision describes the final state, with Changed, Cut
// and ClearTarget set if any step of the update did so.
func (i *Instance) Update(dt float64) (Decision, error) {
	if i.closed {
		return Decision{}, ErrClosed
	}
	if dt < 0 || math.IsNaN(dt) {
		return Decision{}, fmt.Errorf("%w: %v", ErrNegativeDelta, dt)
	}
	if i.table == nil && i.set.PrivateLinks() {
		i.table = i.set.CloneLinkTable()
	}

	out := Decision{Slot: i.current}
	from := i.time
	i.time += dt

	for steps := 0; steps <= i.set.Capacity(); steps++ {
		d, err := i.set.ComputeActive(i.current, i.target, i.time, i.table)
		if err != nil {
			return out, err
		}
		out.NoRoute = d.NoRoute
		if !d.Changed {
			i.emit(from, i.time)
			break
		}

		if !d.Cut {
			i.emit(from, i.Clip().Duration())
		}
		prev := i.current
		i.current, i.time = d.Slot, d.Time
		i.fresh = true
		from = 0
		out.Changed = true
		if d.ClearTarget || i.current == i.target {
			i.target = NoSlot
			out.ClearTarget = out.ClearTarget || d.ClearTarget
		}
		if i.OnTransition != nil {
			i.OnTransition(prev, i.current, d.Cut)
		}
		if d.Cut {
			out.Cut = true
			break
		}
	}

	out.Slot, out.Time = i.current, i.time
	i.syncKey()
	return out, nil
}

// Close releases the set. The instance can not be used afterwards.
func (i *Instance) Close() {
	if i == nil || i.closed {
		return
	}
	i.closed = true
	i.set.Release()
	i.table = nil
}

// emit fires the current clip's events crossed between from and to. The first
// update of a clip also fires events sitting at its very start.
func (i *Instance) emit(from, to float64) {
	if len(i.Events.Handlers) == 0 {
		i.fresh = false
		return
	}
	if i.fresh {
		from = math.Inf(-1)
	}
	clip := i.Clip()
	for _, evt := range clip.EventsBetween(from, to) {
		i.Events.Emit(clip, evt)
	}
	i.fresh = false
}

func (i *Instance) syncKey() {
	idx, ok := i.Clip().KeyAt(i.time)
	if !ok {
		idx = -1
	}
	i.key = idx
}
