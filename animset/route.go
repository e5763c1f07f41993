package animset

import "fmt"

// Decision is the outcome of one routing call.
type Decision struct {
	// Slot is the clip to play, unchanged when nothing happened.
	Slot Slot
	// Time is the elapsed time relative to Slot.
	Time float64
	// Changed is set when a transition was taken.
	Changed bool
	// Cut is set when the transition was an immediate cut.
	Cut bool
	// ClearTarget asks the caller to drop its pending destination.
	ClearTarget bool
	// NoRoute is set when no usable route leaves the current slot.
	NoRoute bool
}

// NextHop returns the slot that routing from src would pick right now,
// without consuming loop counters. dst may be NoSlot for free routing.
func (t *LinkTable) NextHop(src, dst Slot) (Slot, bool) {
	if t == nil || !t.valid(src) || (dst != NoSlot && !t.valid(dst)) {
		return NoSlot, false
	}

	if dst != NoSlot {
		c := t.at(src, dst)
		if !c.path {
			return NoSlot, false
		}
		return Slot(c.hop), true
	}

	best, bestPrio := NoSlot, -1
	for i := 0; i < t.size; i++ {
		c := t.at(src, Slot(i))
		if !c.usable() {
			continue
		}
		prio := int(c.linkPriority())
		if prio > bestPrio || (prio == bestPrio && Slot(i) == src) {
			best, bestPrio = Slot(i), prio
		}
	}
	return best, best != NoSlot
}

// consume spends one use of the direct link src->dst.
func (t *LinkTable) consume(src, dst Slot) {
	c := t.at(src, dst)
	assert(c.link, "consuming unlinked cell (%d,%d)", src, dst)
	if !c.hasLoop {
		return
	}
	if c.loop <= 1 {
		t.dirty = true
	}
	if c.loop > 0 {
		c.loop--
	}
}

// ComputeActive decides which clip src should hand over to. dst is the
// desired destination or NoSlot for free routing; elapsed is the time spent
// in src. table is the link table to route with, nil meaning the master one.
//
// An immediate-cut link transitions at once and resets the time to 0.
// Otherwise the transition waits until elapsed exceeds the clip duration and
// carries the remainder over to the next clip.
func (s *Set) ComputeActive(src, dst Slot, elapsed float64, table *LinkTable) (Decision, error) {
	keep := Decision{Slot: src, Time: elapsed}

	clip, err := s.populated(src)
	if err != nil {
		return keep, err
	}
	if dst != NoSlot {
		if _, err := s.populated(dst); err != nil {
			return keep, err
		}
	}
	if table == nil {
		table = s.links
	}
	if table.Size() != s.Capacity() {
		return keep, fmt.Errorf("%w: table %d, set %d", ErrTableSize, table.Size(), s.Capacity())
	}
	if err := table.Compile(); err != nil {
		return keep, err
	}

	next, ok := table.NextHop(src, dst)
	if !ok {
		keep.NoRoute = true
		return keep, nil
	}
	link := table.at(src, next)

	if link.immediate {
		table.consume(src, next)
		return Decision{
			Slot:        next,
			Time:        0,
			Changed:     true,
			Cut:         true,
			ClearTarget: link.clearTarget,
		}, nil
	}

	length := clip.Duration()
	if elapsed <= length {
		return keep, nil
	}
	if next == src && length <= 0 {
		keep.NoRoute = true
		return keep, nil
	}

	table.consume(src, next)
	return Decision{
		Slot:        next,
		Time:        elapsed - length,
		Changed:     true,
		ClearTarget: link.clearTarget,
	}, nil
}
