// Package orch holds the session coordinator: the sole writer of room and
// membership state. Every connection event (join, relay, disconnect) runs as
// one indivisible transition; no operation here blocks on I/O.
package orch

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avern/huddle/internal/app"
	"github.com/avern/huddle/internal/core"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.Directory
	Router   *app.Router
	Policy   app.Policy

	// mu serializes membership transitions. Transitions are pure map work
	// plus non-blocking sends, so one mutex is enough.
	mu sync.Mutex
}

func New(registry *app.Registry, rooms *app.Directory, router *app.Router, policy app.Policy) *Orchestrator {
	return &Orchestrator{
		Registry: registry,
		Rooms:    rooms,
		Router:   router,
		Policy:   policy,
	}
}

// notify sends a membership event to one handle, applying the backpressure
// policy on delivery failure. Delivery never blocks.
func (o *Orchestrator) notify(target core.SessionID, v any) {
	if err := o.Router.Notify(target, v); err != nil {
		o.onDeliveryError(target, err)
	}
}

func (o *Orchestrator) onDeliveryError(sid core.SessionID, err error) {
	log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("delivery failed")
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackpressure(sid) {
	case app.KickMember:
		// Cancel the session's pumps; the transport teardown path runs
		// Disconnect and performs the membership cleanup.
		o.Registry.Cancel(sid)
	case app.DropFrame, app.NoAction:
	}
}
