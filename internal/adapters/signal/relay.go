package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avern/huddle/internal/core"
)

// handleSendSignal relays an offer toward another participant. The signal
// field is opaque and forwarded verbatim.
func (ctl *SignalWSController) handleSendSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	type sendSignalPayload struct {
		Type         string          `json:"type"`
		UserToSignal string          `json:"userToSignal"`
		CallerID     string          `json:"callerID"`
		Signal       json.RawMessage `json:"signal"`
	}
	var p sendSignalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad send-signal payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if p.UserToSignal == "" || len(p.Signal) == 0 {
		ctl.sendError(c, "bad_payload")
		return
	}

	// callerID names the reply target inside the envelope. Clients send
	// their own id here; fall back to the connection's handle when it is
	// omitted. The sending identity is always the connection's handle.
	caller := core.SessionID(p.CallerID)
	if caller == "" {
		caller = sid
	}

	ctl.Orch.RelayOffer(sid, core.SessionID(p.UserToSignal), caller, p.Signal)
}

// handleReturnSignal relays an answer back to the original offerer. The
// answering side is identified by its connection handle, not the payload.
func (ctl *SignalWSController) handleReturnSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	type returnSignalPayload struct {
		Type     string          `json:"type"`
		CallerID string          `json:"callerID"`
		Signal   json.RawMessage `json:"signal"`
	}
	var p returnSignalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad return-signal payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if p.CallerID == "" || len(p.Signal) == 0 {
		ctl.sendError(c, "bad_payload")
		return
	}

	ctl.Orch.RelayAnswer(sid, core.SessionID(p.CallerID), p.Signal)
}
