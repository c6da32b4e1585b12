package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avern/huddle/internal/core"
	"github.com/avern/huddle/internal/domain"
)

func (ctl *SignalWSController) handleJoinRoom(sid core.SessionID, c *WsSignalConn, data []byte) {
	type joinPayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	room, err := domain.NewRoomID(p.RoomID)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("invalid room id")
		ctl.sendError(c, "invalid_room_id")
		return
	}

	if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("join rate limited")
		ctl.sendError(c, "rate_limited")
		return
	}

	ctl.Orch.Join(sid, room)
}
