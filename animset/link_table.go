package animset

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

const (
	// MaxSlots is the largest number of slots a table can address.
	MaxSlots = 255
	// MaxPriority is the highest link priority.
	MaxPriority = 15
	// DefaultPriority applies to direct links without an explicit priority.
	DefaultPriority = 8
	// MaxLoopCount is the highest loop counter value.
	MaxLoopCount = 255
	// maxPathLength caps computed path lengths.
	maxPathLength = 255
)

// Slot indexes one clip of a set.
type Slot int

// NoSlot is the "none" sentinel for slot lookups and free routing.
const NoSlot Slot = -1

// Property names a per-link setting.
type Property int

const (
	PropPriority Property = iota + 1
	PropLoopCounter
	PropImmediateCut
	PropClearTarget
)

func (p Property) String() string {
	switch p {
	case PropPriority:
		return "priority"
	case PropLoopCounter:
		return "loop"
	case PropImmediateCut:
		return "immediate"
	case PropClearTarget:
		return "cleartarget"
	default:
		return fmt.Sprintf("Property(%d)", int(p))
	}
}

// cell is one (src, dst) entry. Link, priority, loop and flag fields belong
// to authored direct links; path, hop, length and pathPriority are compiled.
type cell struct {
	link        bool
	hasPriority bool
	priority    uint8
	hasLoop     bool
	loop        uint8
	immediate   bool
	clearTarget bool

	path         bool
	hop          uint8
	length       uint8
	pathPriority uint8
}

func (c *cell) linkPriority() uint8 {
	if c.hasPriority {
		return c.priority
	}
	return DefaultPriority
}

// usable reports whether a direct link may be taken: exhausted loop counters
// disable the link without removing it.
func (c *cell) usable() bool {
	return c.link && !(c.hasLoop && c.loop == 0)
}

func (c *cell) clearPath() {
	c.path = false
	c.hop = 0
	c.length = 0
	c.pathPriority = 0
}

// LinkTable is the square slot-by-slot link matrix of a set together with
// the compiled first hop of every reachable pair.
type LinkTable struct {
	size  int
	cells []cell
	links int
	dirty bool
}

// NewLinkTable creates an empty dirty table addressing size slots.
func NewLinkTable(size int) (*LinkTable, error) {
	if size <= 0 || size > MaxSlots {
		return nil, fmt.Errorf("%w: %d", ErrTableSize, size)
	}
	return &LinkTable{
		size:  size,
		cells: make([]cell, size*size),
		dirty: true,
	}, nil
}

// Size returns the number of addressable slots.
func (t *LinkTable) Size() int {
	if t == nil {
		return 0
	}
	return t.size
}

// LinkCount returns the number of direct links.
func (t *LinkTable) LinkCount() int {
	if t == nil {
		return 0
	}
	return t.links
}

// Dirty reports whether the table needs compiling.
func (t *LinkTable) Dirty() bool {
	return t != nil && t.dirty
}

// MarkDirty forces the next Compile to run.
func (t *LinkTable) MarkDirty() {
	if t != nil {
		t.dirty = true
	}
}

// Clone deep-copies the table.
func (t *LinkTable) Clone() *LinkTable {
	if t == nil {
		return nil
	}
	clone := *t
	clone.cells = append([]cell(nil), t.cells...)
	return &clone
}

func (t *LinkTable) valid(s Slot) bool {
	return s >= 0 && int(s) < t.size
}

func (t *LinkTable) at(src, dst Slot) *cell {
	assert(t.valid(src) && t.valid(dst), "cell (%d,%d) outside table of size %d", src, dst, t.size)
	return &t.cells[int(src)*t.size+int(dst)]
}

func (t *LinkTable) checkPair(src, dst Slot) error {
	if t == nil || !t.valid(src) || !t.valid(dst) {
		return fmt.Errorf("%w: (%d,%d)", ErrInvalidSlot, src, dst)
	}
	return nil
}

// HasLink reports whether a direct link src->dst exists.
func (t *LinkTable) HasLink(src, dst Slot) bool {
	if t.checkPair(src, dst) != nil {
		return false
	}
	return t.at(src, dst).link
}

// SetLink adds or removes the direct link src->dst. A new link starts with
// default priority and no flags; removing a link erases all its properties.
func (t *LinkTable) SetLink(src, dst Slot, linked bool) error {
	if err := t.checkPair(src, dst); err != nil {
		return err
	}
	c := t.at(src, dst)
	if c.link == linked {
		return nil
	}
	*c = cell{link: linked}
	if linked {
		t.links++
	} else {
		t.links--
	}
	t.dirty = true
	return nil
}

// SetProperty sets a property on an existing direct link. A loop counter of 0
// removes the counter.
func (t *LinkTable) SetProperty(src, dst Slot, p Property, value int) error {
	if err := t.checkPair(src, dst); err != nil {
		return err
	}
	c := t.at(src, dst)
	if !c.link {
		return fmt.Errorf("%w: (%d,%d)", ErrUnlinked, src, dst)
	}
	switch p {
	case PropPriority:
		if value < 0 || value > MaxPriority {
			return fmt.Errorf("%w: %d", ErrInvalidPriority, value)
		}
		c.hasPriority = true
		c.priority = uint8(value)
	case PropLoopCounter:
		if value < 0 || value > MaxLoopCount {
			return fmt.Errorf("%w: %d", ErrInvalidLoop, value)
		}
		c.hasLoop = value != 0
		c.loop = uint8(value)
	case PropImmediateCut:
		c.immediate = value != 0
	case PropClearTarget:
		c.clearTarget = value != 0
	default:
		return fmt.Errorf("%w: %v", ErrInvalidProperty, p)
	}
	t.dirty = true
	return nil
}

// RemoveProperty resets a property of a direct link to its absent state.
func (t *LinkTable) RemoveProperty(src, dst Slot, p Property) error {
	if err := t.checkPair(src, dst); err != nil {
		return err
	}
	c := t.at(src, dst)
	if !c.link {
		return fmt.Errorf("%w: (%d,%d)", ErrUnlinked, src, dst)
	}
	switch p {
	case PropPriority:
		c.hasPriority = false
		c.priority = 0
	case PropLoopCounter:
		c.hasLoop = false
		c.loop = 0
	case PropImmediateCut:
		c.immediate = false
	case PropClearTarget:
		c.clearTarget = false
	default:
		return fmt.Errorf("%w: %v", ErrInvalidProperty, p)
	}
	t.dirty = true
	return nil
}

// Property reads a direct link property. ok is false for unlinked cells and
// for an absent loop counter; priority falls back to DefaultPriority and the
// flags read as 0 or 1.
func (t *LinkTable) Property(src, dst Slot, p Property) (value int, ok bool) {
	if t.checkPair(src, dst) != nil {
		return 0, false
	}
	c := t.at(src, dst)
	if !c.link {
		return 0, false
	}
	switch p {
	case PropPriority:
		return int(c.linkPriority()), true
	case PropLoopCounter:
		if !c.hasLoop {
			return 0, false
		}
		return int(c.loop), true
	case PropImmediateCut:
		return boolInt(c.immediate), true
	case PropClearTarget:
		return boolInt(c.clearTarget), true
	default:
		return 0, false
	}
}

// Path describes the compiled route between two slots.
type Path struct {
	Direct   bool
	Hop      Slot
	Length   int
	Priority int
}

// Path returns the compiled route src->dst. Call Compile first; a dirty table
// may hold stale routes.
func (t *LinkTable) Path(src, dst Slot) (Path, bool) {
	if t.checkPair(src, dst) != nil {
		return Path{}, false
	}
	c := t.at(src, dst)
	if !c.path {
		return Path{}, false
	}
	return Path{
		Direct:   c.link,
		Hop:      Slot(c.hop),
		Length:   int(c.length),
		Priority: int(c.pathPriority),
	}, true
}

// clearSlot wipes every row and column cell touching s.
func (t *LinkTable) clearSlot(s Slot) {
	assert(t.valid(s), "slot %d outside table of size %d", s, t.size)
	for i := 0; i < t.size; i++ {
		for _, c := range []*cell{t.at(s, Slot(i)), t.at(Slot(i), s)} {
			if c.link {
				t.links--
			}
			*c = cell{}
		}
	}
	t.dirty = true
}

func (t *LinkTable) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	for src := 0; src < t.size; src++ {
		for dst := 0; dst < t.size; dst++ {
			c := &t.cells[src*t.size+dst]
			if !c.link && !c.path {
				continue
			}
			fmt.Fprintf(&b, "%d -> %d:", src, dst)
			if c.path {
				fmt.Fprintf(&b, " hop=%d len=%d prio=%d", c.hop, c.length, c.pathPriority)
			} else {
				b.WriteString(" no-path")
			}
			if c.link {
				b.WriteString(" direct")
				if c.hasLoop {
					fmt.Fprintf(&b, " loop=%d", c.loop)
				}
				if c.immediate {
					b.WriteString(" immediate")
				}
				if c.clearTarget {
					b.WriteString(" cleartarget")
				}
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Dump renders the raw table for debugging.
func (t *LinkTable) Dump() string {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	return cfg.Sdump(t)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
