package app

import "github.com/avern/huddle/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a member whose outbound buffer is full.
type Policy interface {
	OnBackpressure(sid core.SessionID) BackpressureAction
}

// SimplePolicy kicks a member that cannot keep up. Signaling traffic is tiny;
// a full buffer means the transport is gone or wedged.
type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(core.SessionID) BackpressureAction {
	return KickMember
}
