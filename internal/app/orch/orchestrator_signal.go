package orch

import (
	"encoding/json"

	"github.com/avern/huddle/internal/core"
)

// RelayOffer forwards an opaque offer payload to target. The payload is
// never inspected. caller names the reply target inside the envelope; the
// membership guard always judges sender, the authenticated connection
// handle, so a payload-supplied caller cannot widen what sender may reach.
// A target that has already disconnected means the envelope is dropped
// silently.
func (o *Orchestrator) RelayOffer(sender, target, caller core.SessionID, signal json.RawMessage) {
	env := UserJoined{Type: EventUserJoined, Signal: signal, CallerID: string(caller)}
	if err := o.Router.Deliver(sender, target, env); err != nil {
		o.onDeliveryError(target, err)
	}
}

// RelayAnswer forwards an opaque answer payload back to the original
// offerer, identifying sender as the answering side.
func (o *Orchestrator) RelayAnswer(sender, target core.SessionID, signal json.RawMessage) {
	env := ReturnedSignal{Type: EventReturnedSignal, Signal: signal, ID: string(sender)}
	if err := o.Router.Deliver(sender, target, env); err != nil {
		o.onDeliveryError(target, err)
	}
}
