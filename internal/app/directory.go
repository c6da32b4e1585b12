package app

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avern/huddle/internal/core"
	"github.com/avern/huddle/internal/domain"
)

// Directory maps room ids to their member sets. Rooms are created by the
// first join and deleted by the last leave; an empty room never appears in
// the map.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[core.SessionID]struct{}
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomID]map[core.SessionID]struct{})}
}

// Join adds sid to the room, creating it if absent, and returns the other
// members present at the moment of join. A repeat join of the same room is a
// no-op that still returns the others.
func (d *Directory) Join(room domain.RoomID, sid core.SessionID) []core.SessionID {
	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.rooms[room]
	if !ok {
		set = make(map[core.SessionID]struct{})
		d.rooms[room] = set
		log.Info().Str("module", "app.directory").Str("room", string(room)).Msg("room created")
	}
	others := othersLocked(set, sid)
	set[sid] = struct{}{}
	return others
}

// Leave removes sid from the room and returns the remaining members. The
// room entry is deleted when its set empties. No-op if sid was not a member
// or the room is unknown.
func (d *Directory) Leave(room domain.RoomID, sid core.SessionID) []core.SessionID {
	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.rooms[room]
	if !ok {
		return nil
	}
	delete(set, sid)
	if len(set) == 0 {
		delete(d.rooms, room)
		log.Info().Str("module", "app.directory").Str("room", string(room)).Msg("room deleted")
		return nil
	}
	return othersLocked(set, sid)
}

// MembersOf returns a snapshot of the room's members. Unknown room ids are a
// normal state and yield an empty slice, never an error.
func (d *Directory) MembersOf(room domain.RoomID) []core.SessionID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	set, ok := d.rooms[room]
	if !ok {
		return nil
	}
	out := make([]core.SessionID, 0, len(set))
	for sid := range set {
		out = append(out, sid)
	}
	sortSIDs(out)
	return out
}

// Contains reports whether sid is currently a member of the room.
func (d *Directory) Contains(room domain.RoomID, sid core.SessionID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	set, ok := d.rooms[room]
	if !ok {
		return false
	}
	_, ok = set[sid]
	return ok
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"memberCount"`
}

// Snapshot lists all live rooms for the inspection API.
func (d *Directory) Snapshot() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for id, set := range d.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(set)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func othersLocked(set map[core.SessionID]struct{}, sid core.SessionID) []core.SessionID {
	out := make([]core.SessionID, 0, len(set))
	for member := range set {
		if member != sid {
			out = append(out, member)
		}
	}
	sortSIDs(out)
	return out
}

func sortSIDs(sids []core.SessionID) {
	sort.Slice(sids, func(i, j int) bool { return sids[i] < sids[j] })
}
