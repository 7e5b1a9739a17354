package scene

import (
	"strconv"
	"sync/atomic"
)

// Identifies a drawable or a texture owned by the scene
type Identity uint64

// The id of nothing
const EmptyIdentity Identity = 0

var lastIdentity uint64

// Returns a process wide unique identity
func NewIdentity() Identity {
	return Identity(atomic.AddUint64(&lastIdentity, 1))
}

func (id Identity) IsEmpty() bool {
	return id == EmptyIdentity
}

func (id Identity) String() string {
	if id == EmptyIdentity {
		return "empty"
	}
	return "#" + strconv.FormatUint(uint64(id), 10)
}
