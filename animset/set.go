package animset

import (
	"fmt"
	"log"

	"github.com/milk9111/animgraph/component"
)

// Logger receives author-data diagnostics. Tests may swap it out.
var Logger = log.Default()

// Link identifies a direct link of a set.
type Link struct {
	Src Slot
	Dst Slot
}

// Set is a fixed-capacity collection of clips plus the master link table
// routing between them.
type Set struct {
	Name string

	clips   []*component.Clip
	count   int
	ids     map[uint32]Slot
	links   *LinkTable
	refs    int
	private bool
}

// New creates an empty set holding up to capacity clips.
func New(name string, capacity int) (*Set, error) {
	table, err := NewLinkTable(capacity)
	if err != nil {
		return nil, fmt.Errorf("animset: create %q: %w", name, err)
	}
	return &Set{
		Name:  name,
		clips: make([]*component.Clip, capacity),
		ids:   make(map[uint32]Slot),
		links: table,
	}, nil
}

// Capacity returns the number of slots.
func (s *Set) Capacity() int {
	if s == nil {
		return 0
	}
	return len(s.clips)
}

// Count returns the number of populated slots.
func (s *Set) Count() int {
	if s == nil {
		return 0
	}
	return s.count
}

// Clip returns the clip stored in slot.
func (s *Set) Clip(slot Slot) (*component.Clip, bool) {
	c, err := s.populated(slot)
	return c, err == nil
}

func (s *Set) populated(slot Slot) (*component.Clip, error) {
	if s == nil || slot < 0 || int(slot) >= len(s.clips) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	c := s.clips[slot]
	if c == nil {
		return nil, fmt.Errorf("%w: %d", ErrEmptySlot, slot)
	}
	return c, nil
}

// SlotByName looks a clip up by name, returning NoSlot when absent.
func (s *Set) SlotByName(name string) Slot {
	return s.SlotByID(component.ClipID(name))
}

// SlotByID looks a clip up by its hashed name, returning NoSlot when absent.
func (s *Set) SlotByID(id uint32) Slot {
	if s == nil {
		return NoSlot
	}
	if slot, ok := s.ids[id]; ok {
		return slot
	}
	return NoSlot
}

// Locked reports whether instances reference the set.
func (s *Set) Locked() bool {
	return s != nil && s.refs > 0
}

// Refs returns the number of live references.
func (s *Set) Refs() int {
	if s == nil {
		return 0
	}
	return s.refs
}

// Acquire adds a reference, locking the set against structural edits.
func (s *Set) Acquire() {
	if s != nil {
		s.refs++
	}
}

// Release drops a reference.
func (s *Set) Release() {
	if s == nil || s.refs == 0 {
		return
	}
	s.refs--
}

// PrivateLinks reports whether instances must route on their own table
// clone. It turns on once any loop counter is configured.
func (s *Set) PrivateLinks() bool {
	return s != nil && s.private
}

// LinkTable returns the master table.
func (s *Set) LinkTable() *LinkTable {
	if s == nil {
		return nil
	}
	return s.links
}

// CloneLinkTable deep-copies the master table for one instance.
func (s *Set) CloneLinkTable() *LinkTable {
	if s == nil {
		return nil
	}
	return s.links.Clone()
}

// AddClip stores c in the first free slot and takes ownership of it.
func (s *Set) AddClip(c *component.Clip) (Slot, error) {
	if s == nil || c == nil {
		return NoSlot, fmt.Errorf("%w: nil clip", ErrInvalidSlot)
	}
	if s.Locked() {
		return NoSlot, ErrLocked
	}
	if s.count >= len(s.clips) {
		return NoSlot, ErrNoFreeSlot
	}
	if err := c.Claim(s); err != nil {
		return NoSlot, fmt.Errorf("animset: add clip %q: %w", c.Name, err)
	}
	slot := NoSlot
	for i, existing := range s.clips {
		if existing == nil {
			slot = Slot(i)
			break
		}
	}
	assert(slot != NoSlot, "no empty slot with count %d < %d", s.count, len(s.clips))

	s.clips[slot] = c
	s.count++
	if _, dup := s.ids[c.ID()]; dup {
		Logger.Printf("animset: %s: clip name %q already used, lookup keeps the first slot", s.Name, c.Name)
	} else {
		s.ids[c.ID()] = slot
	}
	return slot, nil
}

// RemoveClip frees slot, releases its clip and wipes every link touching it.
func (s *Set) RemoveClip(slot Slot) error {
	if s.Locked() {
		return ErrLocked
	}
	c, err := s.populated(slot)
	if err != nil {
		return err
	}
	c.Release(s)
	s.clips[slot] = nil
	s.count--
	if s.ids[c.ID()] == slot {
		delete(s.ids, c.ID())
	}
	s.links.clearSlot(slot)
	return nil
}

// RemoveAllClips empties the set.
func (s *Set) RemoveAllClips() error {
	if s.Locked() {
		return ErrLocked
	}
	for i, c := range s.clips {
		if c == nil {
			continue
		}
		if err := s.RemoveClip(Slot(i)); err != nil {
			return err
		}
	}
	return nil
}

// AddLink creates the direct link src->dst.
func (s *Set) AddLink(src, dst Slot) (Link, error) {
	if s.Locked() {
		return Link{}, ErrLocked
	}
	if _, err := s.populated(src); err != nil {
		return Link{}, err
	}
	if _, err := s.populated(dst); err != nil {
		return Link{}, err
	}
	if s.links.HasLink(src, dst) {
		return Link{}, fmt.Errorf("%w: %s -> %s", ErrAlreadyLinked, s.clipName(src), s.clipName(dst))
	}
	if err := s.links.SetLink(src, dst, true); err != nil {
		return Link{}, err
	}
	return Link{Src: src, Dst: dst}, nil
}

// GetLink returns the direct link src->dst if there is one.
func (s *Set) GetLink(src, dst Slot) (Link, bool) {
	if s == nil || !s.links.HasLink(src, dst) {
		return Link{}, false
	}
	return Link{Src: src, Dst: dst}, true
}

// RemoveLink deletes a direct link and its properties.
func (s *Set) RemoveLink(l Link) error {
	if s.Locked() {
		return ErrLocked
	}
	if s == nil || !s.links.HasLink(l.Src, l.Dst) {
		return fmt.Errorf("%w: (%d,%d)", ErrUnlinked, l.Src, l.Dst)
	}
	return s.links.SetLink(l.Src, l.Dst, false)
}

// SetLinkProperty updates a link property on the master table. Property
// edits stay allowed on a locked set.
func (s *Set) SetLinkProperty(l Link, p Property, value int) error {
	if s == nil {
		return ErrUnlinked
	}
	if err := s.links.SetProperty(l.Src, l.Dst, p, value); err != nil {
		return err
	}
	if p == PropLoopCounter && value != 0 {
		s.private = true
	}
	return nil
}

// RemoveLinkProperty resets a link property on the master table.
func (s *Set) RemoveLinkProperty(l Link, p Property) error {
	if s == nil {
		return ErrUnlinked
	}
	return s.links.RemoveProperty(l.Src, l.Dst, p)
}

// LinkProperty reads a link property from the master table.
func (s *Set) LinkProperty(l Link, p Property) (int, bool) {
	if s == nil {
		return 0, false
	}
	return s.links.Property(l.Src, l.Dst, p)
}

func (s *Set) clipName(slot Slot) string {
	if c, ok := s.Clip(slot); ok {
		return c.Name
	}
	return fmt.Sprintf("#%d", slot)
}
