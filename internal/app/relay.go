package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avern/huddle/internal/core"
)

// Router forwards signal envelopes point-to-point between live connections.
// It is stateless: no envelope is ever stored, queued, or retried. A relay
// to a handle that is no longer registered is silently dropped, mirroring a
// negotiation timeout on the remote side.
type Router struct {
	registry *Registry

	// guard drops relays whose sender and target do not share a room. The
	// original behavior is room-agnostic relay; the guard is an opt-in
	// hardening step.
	guard bool
}

func NewRouter(registry *Registry, guard bool) *Router {
	return &Router{registry: registry, guard: guard}
}

// Deliver marshals v and sends it to the target's live transport. The
// returned error is only ever a delivery problem on a live connection
// (backpressure or a closing socket); unknown targets return nil.
func (rt *Router) Deliver(sender, target core.SessionID, v any) error {
	if rt.guard && !rt.sameRoom(sender, target) {
		log.Warn().Str("module", "app.router").
			Str("from", string(sender)).Str("to", string(target)).
			Msg("relay outside sender's room blocked")
		return nil
	}
	return rt.send(target, v)
}

// Notify sends a membership event to a single handle. Notifications are
// never guarded: they originate from the coordinator, not a peer.
func (rt *Router) Notify(target core.SessionID, v any) error {
	return rt.send(target, v)
}

func (rt *Router) send(target core.SessionID, v any) error {
	conn, ok := rt.registry.Conn(target)
	if !ok {
		log.Debug().Str("module", "app.router").Str("to", string(target)).Msg("target not registered, dropping")
		return nil
	}
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("marshal envelope")
		return nil
	}
	return conn.TrySend(core.Frame(frame))
}

func (rt *Router) sameRoom(a, b core.SessionID) bool {
	ra, ok := rt.registry.RoomOf(a)
	if !ok {
		return false
	}
	rb, ok := rt.registry.RoomOf(b)
	return ok && ra == rb
}
