package animset

import (
	"errors"
	"fmt"
)

var (
	ErrTableSize       = errors.New("animset: table size out of range")
	ErrNoFreeSlot      = errors.New("animset: no free slot")
	ErrInvalidSlot     = errors.New("animset: invalid slot")
	ErrEmptySlot       = errors.New("animset: slot holds no clip")
	ErrLocked          = errors.New("animset: set is referenced and locked")
	ErrAlreadyLinked   = errors.New("animset: slots already linked")
	ErrUnlinked        = errors.New("animset: cell has no direct link")
	ErrInvalidProperty = errors.New("animset: invalid link property")
	ErrInvalidPriority = errors.New("animset: priority out of range")
	ErrInvalidLoop     = errors.New("animset: loop counter out of range")
	ErrSetInUse        = errors.New("animset: set is referenced")
	ErrSetNotFound     = errors.New("animset: set not found")
	ErrClosed          = errors.New("animset: instance closed")
	ErrNegativeDelta   = errors.New("animset: negative time step")
)

// assert panics on broken internal invariants. Public entry points validate
// their arguments and return errors instead.
func assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("animset: "+format, args...))
	}
}
