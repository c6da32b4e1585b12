package orch

import "encoding/json"

// Outbound event names. These are the wire contract with the browser side.
const (
	EventUserConnected    = "user-connected"
	EventUserJoined       = "user-joined"
	EventReturnedSignal   = "receiving-returned-signal"
	EventUserDisconnected = "user-disconnected"
)

// UserConnected tells an existing room member that a new participant joined,
// so the member can initiate negotiation toward it.
type UserConnected struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// UserJoined carries an incoming offer. CallerID names the reply target.
type UserJoined struct {
	Type     string          `json:"type"`
	Signal   json.RawMessage `json:"signal"`
	CallerID string          `json:"callerID"`
}

// ReturnedSignal carries an incoming answer back to the original offerer.
type ReturnedSignal struct {
	Type   string          `json:"type"`
	Signal json.RawMessage `json:"signal"`
	ID     string          `json:"id"`
}

// UserDisconnected tells remaining members that a participant departed, so
// each remote party can tear down its negotiated connection.
type UserDisconnected struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}
