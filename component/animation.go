package component

import (
	"errors"
	"hash/crc32"
)

var (
	ErrKeyCapacity    = errors.New("component: no room to add key")
	ErrEventCapacity  = errors.New("component: no room to add event")
	ErrTimestampOrder = errors.New("component: timestamp not after previous one")
	ErrNoKey          = errors.New("component: clip has no key")
	ErrNoEvent        = errors.New("component: clip has no event")
	ErrClipOwned      = errors.New("component: clip already owned")
	ErrClipInUse      = errors.New("component: clip is referenced")
	ErrClipNotFound   = errors.New("component: clip not found")
)

// Key is one timed pose of a clip. Time is cumulative from the clip start and
// marks the end of the key.
type Key struct {
	Pose any
	Time float64
}

// Clip is an ordered list of timed keys plus an ordered list of point events.
// Both lists have a capacity fixed at creation and strictly increasing
// timestamps.
type Clip struct {
	Name string

	keys     []Key
	events   []Event
	keyCap   int
	eventCap int
	owner    any
}

// NewClip creates an empty clip able to hold keyCap keys and eventCap events.
func NewClip(name string, keyCap, eventCap int) *Clip {
	if keyCap < 0 {
		keyCap = 0
	}
	if eventCap < 0 {
		eventCap = 0
	}
	return &Clip{
		Name:     name,
		keys:     make([]Key, 0, keyCap),
		events:   make([]Event, 0, eventCap),
		keyCap:   keyCap,
		eventCap: eventCap,
	}
}

// ClipID hashes a clip name into its numeric ID.
func ClipID(name string) uint32 {
	return crc32.ChecksumIEEE([]byte(name))
}

// ID returns the hashed clip name.
func (c *Clip) ID() uint32 {
	if c == nil {
		return 0
	}
	return ClipID(c.Name)
}

// AddKey appends a key ending at timestamp t.
func (c *Clip) AddKey(pose any, t float64) error {
	if c == nil {
		return ErrNoKey
	}
	if len(c.keys) >= c.keyCap {
		return ErrKeyCapacity
	}
	if n := len(c.keys); n > 0 && t <= c.keys[n-1].Time {
		return ErrTimestampOrder
	}
	c.keys = append(c.keys, Key{Pose: pose, Time: t})
	return nil
}

// RemoveLastKey drops the most recently added key.
func (c *Clip) RemoveLastKey() error {
	if c == nil || len(c.keys) == 0 {
		return ErrNoKey
	}
	c.keys[len(c.keys)-1] = Key{}
	c.keys = c.keys[:len(c.keys)-1]
	return nil
}

// RemoveAllKeys drops every key.
func (c *Clip) RemoveAllKeys() {
	for c.RemoveLastKey() == nil {
	}
}

// KeyCount returns the number of keys.
func (c *Clip) KeyCount() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// KeyCapacity returns the fixed key storage size.
func (c *Clip) KeyCapacity() int {
	if c == nil {
		return 0
	}
	return c.keyCap
}

// Key returns the key at index i.
func (c *Clip) Key(i int) (Key, bool) {
	if c == nil || i < 0 || i >= len(c.keys) {
		return Key{}, false
	}
	return c.keys[i], true
}

// KeyPose returns the pose of key i, or nil.
func (c *Clip) KeyPose(i int) any {
	k, ok := c.Key(i)
	if !ok {
		return nil
	}
	return k.Pose
}

// KeyAt returns the index of the key displayed at time t: the first key whose
// timestamp is >= t. It fails for an empty clip or when t is past the end.
func (c *Clip) KeyAt(t float64) (int, bool) {
	if c == nil || len(c.keys) == 0 {
		return -1, false
	}
	lo, hi := 0, len(c.keys)-1
	for lo < hi {
		mid := (lo + hi) >> 1
		if t > c.keys[mid].Time {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if c.keys[lo].Time < t {
		return -1, false
	}
	return lo, true
}

// Duration is the timestamp of the last key, 0 for an empty clip.
func (c *Clip) Duration() float64 {
	if c == nil || len(c.keys) == 0 {
		return 0
	}
	return c.keys[len(c.keys)-1].Time
}

// Claim marks the clip as owned. A clip has at most one owner and sits in
// at most one slot, so claiming an owned clip fails even for the same owner.
func (c *Clip) Claim(owner any) error {
	if c == nil || owner == nil {
		return ErrClipNotFound
	}
	if c.owner != nil {
		return ErrClipOwned
	}
	c.owner = owner
	return nil
}

// Release drops ownership if owner currently holds the clip.
func (c *Clip) Release(owner any) {
	if c == nil || c.owner != owner {
		return
	}
	c.owner = nil
}

// Owned reports whether some set holds the clip.
func (c *Clip) Owned() bool {
	return c != nil && c.owner != nil
}
