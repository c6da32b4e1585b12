package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/avern/huddle/internal/core"
	"github.com/avern/huddle/internal/domain"
)

// Connect records a freshly attached transport. The handle starts with no
// room; Join moves it into one. A handle that already owns a live
// connection keeps it: Connect reports false and the caller must discard
// the new transport without running any teardown for the handle.
func (o *Orchestrator) Connect(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) bool {
	return o.Registry.Register(sid, conn, cancel)
}

// Join moves the handle into the given room, implicitly leaving its previous
// room first, and notifies the pre-existing occupants so each can initiate
// negotiation toward the newcomer. Re-joining the current room is a no-op
// and produces no duplicate notifications.
func (o *Orchestrator) Join(sid core.SessionID, room domain.RoomID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.Registry.Conn(sid); !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("join from unregistered handle")
		return
	}

	prev, had := o.Registry.RoomOf(sid)
	if had && prev == room {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("repeat join, no-op")
		return
	}

	if had {
		departed := o.Rooms.Leave(prev, sid)
		for _, member := range departed {
			o.notify(member, UserDisconnected{Type: EventUserDisconnected, ID: string(sid)})
		}
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(prev)).Msg("left previous room")
	}

	others := o.Rooms.Join(room, sid)
	o.Registry.SetRoom(sid, room)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Int("peers", len(others)).Msg("joined room")

	for _, member := range others {
		o.notify(member, UserConnected{Type: EventUserConnected, ID: string(sid)})
	}
}

// Disconnect tears down all state for a departed transport and notifies the
// remaining room members. Calling it again for the same handle is a no-op:
// the registry entry is gone, so nothing is decremented or re-notified.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	room, ok := o.Registry.Unregister(sid)
	if !ok {
		return
	}
	if room == "" {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("disconnect outside any room")
		return
	}

	remaining := o.Rooms.Leave(room, sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Int("remaining", len(remaining)).Msg("disconnected")
	for _, member := range remaining {
		o.notify(member, UserDisconnected{Type: EventUserDisconnected, ID: string(sid)})
	}
}
