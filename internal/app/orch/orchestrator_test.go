package orch_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/avern/huddle/internal/app"
	"github.com/avern/huddle/internal/app/orch"
	"github.com/avern/huddle/internal/core"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return core.ErrBackpressure
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

// events decodes everything the connection received so far.
func (f *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		if err := json.Unmarshal(fr, &m); err != nil {
			t.Fatalf("bad frame %q: %v", fr, err)
		}
		out = append(out, m)
	}
	return out
}

type fixture struct {
	orch  *orch.Orchestrator
	reg   *app.Registry
	rooms *app.Directory
}

func newFixture(guard bool) *fixture {
	reg := app.NewRegistry()
	rooms := app.NewDirectory()
	router := app.NewRouter(reg, guard)
	return &fixture{
		orch:  orch.New(reg, rooms, router, app.SimplePolicy{}),
		reg:   reg,
		rooms: rooms,
	}
}

func (f *fixture) connect(sid core.SessionID) *fakeConn {
	c := &fakeConn{}
	f.orch.Connect(sid, c, func() {})
	return c
}

func TestFirstJoinSendsNoNotifications(t *testing.T) {
	f := newFixture(false)
	a := f.connect("a")

	f.orch.Join("a", "r1")

	if got := f.rooms.MembersOf("r1"); len(got) != 1 || got[0] != "a" {
		t.Fatalf("MembersOf(r1) = %v, want [a]", got)
	}
	if evs := a.events(t); len(evs) != 0 {
		t.Fatalf("sole joiner received notifications: %v", evs)
	}
}

func TestSecondJoinNotifiesExistingMember(t *testing.T) {
	f := newFixture(false)
	a := f.connect("a")
	b := f.connect("b")

	f.orch.Join("a", "r1")
	f.orch.Join("b", "r1")

	if got := f.rooms.MembersOf("r1"); len(got) != 2 {
		t.Fatalf("MembersOf(r1) = %v, want [a b]", got)
	}

	evs := a.events(t)
	if len(evs) != 1 {
		t.Fatalf("a received %d events, want 1: %v", len(evs), evs)
	}
	if evs[0]["type"] != orch.EventUserConnected || evs[0]["id"] != "b" {
		t.Fatalf("a received %v, want user-connected(b)", evs[0])
	}
	if evs := b.events(t); len(evs) != 0 {
		t.Fatalf("newcomer should receive nothing on join, got %v", evs)
	}
}

func TestRepeatJoinProducesNoSpuriousNotification(t *testing.T) {
	f := newFixture(false)
	a := f.connect("a")
	f.connect("b")
	f.orch.Join("a", "r1")
	f.orch.Join("b", "r1")
	before := len(a.events(t))

	f.orch.Join("b", "r1")

	if got := f.rooms.MembersOf("r1"); len(got) != 2 {
		t.Fatalf("repeat join changed membership: %v", got)
	}
	if after := len(a.events(t)); after != before {
		t.Fatalf("repeat join notified a again: %d -> %d", before, after)
	}
}

func TestJoinSwitchesRooms(t *testing.T) {
	f := newFixture(false)
	f.connect("a")
	b := f.connect("b")
	f.orch.Join("a", "r1")
	f.orch.Join("b", "r1")

	f.orch.Join("a", "r2")

	if got := f.rooms.MembersOf("r1"); len(got) != 1 || got[0] != "b" {
		t.Fatalf("MembersOf(r1) = %v, want [b]", got)
	}
	if got := f.rooms.MembersOf("r2"); len(got) != 1 || got[0] != "a" {
		t.Fatalf("MembersOf(r2) = %v, want [a]", got)
	}
	if room, _ := f.reg.RoomOf("a"); room != "r2" {
		t.Fatalf("registry room of a = %q, want r2", room)
	}

	evs := b.events(t)
	last := evs[len(evs)-1]
	if last["type"] != orch.EventUserDisconnected || last["id"] != "a" {
		t.Fatalf("b's last event = %v, want user-disconnected(a)", last)
	}
}

func TestRelayOfferVerbatim(t *testing.T) {
	f := newFixture(false)
	f.connect("a")
	b := f.connect("b")
	f.orch.Join("a", "r1")
	f.orch.Join("b", "r1")

	payload := json.RawMessage(`{"sdp":"v=0 fake offer","kind":"offer"}`)
	f.orch.RelayOffer("a", "b", "a", payload)

	evs := b.events(t)
	if len(evs) != 1 {
		t.Fatalf("b received %d events, want exactly 1: %v", len(evs), evs)
	}
	if evs[0]["type"] != orch.EventUserJoined || evs[0]["callerID"] != "a" {
		t.Fatalf("envelope = %v", evs[0])
	}
	signal, _ := json.Marshal(evs[0]["signal"])
	var want, got any
	_ = json.Unmarshal(payload, &want)
	_ = json.Unmarshal(signal, &got)
	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if string(wantJSON) != string(gotJSON) {
		t.Fatalf("signal altered: got %s want %s", gotJSON, wantJSON)
	}
}

func TestRelayAnswer(t *testing.T) {
	f := newFixture(false)
	a := f.connect("a")
	f.connect("b")
	f.orch.Join("a", "r1")
	f.orch.Join("b", "r1")
	a.mu.Lock()
	a.frames = nil // drop the join notification
	a.mu.Unlock()

	f.orch.RelayAnswer("b", "a", json.RawMessage(`"answer-blob"`))

	evs := a.events(t)
	if len(evs) != 1 {
		t.Fatalf("a received %d events, want 1: %v", len(evs), evs)
	}
	if evs[0]["type"] != orch.EventReturnedSignal || evs[0]["id"] != "b" || evs[0]["signal"] != "answer-blob" {
		t.Fatalf("envelope = %v", evs[0])
	}
}

func TestDisconnectNotifiesRemainder(t *testing.T) {
	f := newFixture(false)
	a := f.connect("a")
	b := f.connect("b")
	f.orch.Join("a", "r1")
	f.orch.Join("b", "r1")

	f.orch.Disconnect("a")

	if got := f.rooms.MembersOf("r1"); len(got) != 1 || got[0] != "b" {
		t.Fatalf("MembersOf(r1) = %v, want [b]", got)
	}
	evs := b.events(t)
	if len(evs) != 1 || evs[0]["type"] != orch.EventUserDisconnected || evs[0]["id"] != "a" {
		t.Fatalf("b events = %v, want one user-disconnected(a)", evs)
	}

	// A relay toward the departed handle is silently dropped.
	before := len(a.events(t))
	f.orch.RelayOffer("b", "a", "b", json.RawMessage(`"late"`))
	if after := len(a.events(t)); after != before {
		t.Fatal("relay to departed handle was delivered")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	f := newFixture(false)
	f.connect("a")
	b := f.connect("b")
	f.orch.Join("a", "r1")
	f.orch.Join("b", "r1")

	f.orch.Disconnect("a")
	f.orch.Disconnect("a")

	evs := b.events(t)
	departures := 0
	for _, e := range evs {
		if e["type"] == orch.EventUserDisconnected {
			departures++
		}
	}
	if departures != 1 {
		t.Fatalf("b saw %d departure notifications, want 1", departures)
	}
	if got := f.rooms.MembersOf("r1"); len(got) != 1 {
		t.Fatalf("double disconnect corrupted membership: %v", got)
	}
}

func TestDisconnectWithoutRoomIsNoOp(t *testing.T) {
	f := newFixture(false)
	f.connect("a")

	f.orch.Disconnect("a") // never joined anything
	f.orch.Disconnect("b") // never even connected
}

func TestRelayIsRoomAgnostic(t *testing.T) {
	f := newFixture(false)
	f.connect("a")
	c := f.connect("c")
	f.orch.Join("a", "r1")
	// c is registered but joined no room

	f.orch.RelayOffer("a", "c", "a", json.RawMessage(`"hello"`))

	if evs := c.events(t); len(evs) != 1 {
		t.Fatalf("room-agnostic relay not delivered: %v", evs)
	}
}

func TestRelayGuardBlocksCrossRoom(t *testing.T) {
	f := newFixture(true)
	f.connect("a")
	c := f.connect("c")
	f.orch.Join("a", "r1")
	f.orch.Join("c", "r2")

	f.orch.RelayOffer("a", "c", "a", json.RawMessage(`"hello"`))

	if evs := c.events(t); len(evs) != 0 {
		t.Fatalf("guard let cross-room relay through: %v", evs)
	}
}

func TestRelayGuardJudgesConnectionHandle(t *testing.T) {
	f := newFixture(true)
	f.connect("attacker")
	victim := f.connect("victim")
	f.connect("mate")
	f.orch.Join("attacker", "other")
	f.orch.Join("victim", "r1")
	f.orch.Join("mate", "r1")
	victim.mu.Lock()
	victim.frames = nil // drop mate's join notification
	victim.mu.Unlock()

	// The sender names a caller that shares the victim's room. The guard
	// must still judge the sending handle, not the payload identity.
	f.orch.RelayOffer("attacker", "victim", "mate", json.RawMessage(`"spoof"`))

	if evs := victim.events(t); len(evs) != 0 {
		t.Fatalf("guard bypassed via spoofed caller: %v", evs)
	}

	// A legitimate offer from inside the room still flows.
	f.orch.RelayOffer("mate", "victim", "mate", json.RawMessage(`"real"`))
	if evs := victim.events(t); len(evs) != 1 || evs[0]["callerID"] != "mate" {
		t.Fatalf("in-room relay broken: %v", evs)
	}
}

func TestConnectRejectsSecondTransport(t *testing.T) {
	f := newFixture(false)
	first := f.connect("a")
	f.connect("b")
	f.orch.Join("a", "r1")
	f.orch.Join("b", "r1")

	second := &fakeConn{}
	if f.orch.Connect("a", second, func() {}) {
		t.Fatal("second transport for a live handle was accepted")
	}

	// The live session keeps its registration and membership.
	if conn, _ := f.reg.Conn("a"); conn != first {
		t.Fatal("registry no longer holds the first transport")
	}
	if got := f.rooms.MembersOf("r1"); len(got) != 2 {
		t.Fatalf("MembersOf(r1) = %v, want [a b]", got)
	}
	if evs := first.events(t); len(evs) != 1 {
		t.Fatalf("rejected transport produced notifications: %v", evs)
	}
}

func TestThreePartyJoinFansOutPairwise(t *testing.T) {
	f := newFixture(false)
	a := f.connect("a")
	b := f.connect("b")
	f.connect("c")
	f.orch.Join("a", "r1")
	f.orch.Join("b", "r1")
	f.orch.Join("c", "r1")

	// Both existing members independently learn about c.
	for name, conn := range map[string]*fakeConn{"a": a, "b": b} {
		evs := conn.events(t)
		found := false
		for _, e := range evs {
			if e["type"] == orch.EventUserConnected && e["id"] == "c" {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s never saw user-connected(c): %v", name, evs)
		}
	}
}

func TestBackpressureKicksMember(t *testing.T) {
	reg := app.NewRegistry()
	rooms := app.NewDirectory()
	o := orch.New(reg, rooms, app.NewRouter(reg, false), app.SimplePolicy{})

	stuck := &fakeConn{full: true}
	kicked := false
	o.Connect("a", stuck, func() { kicked = true })
	o.Join("a", "r1")

	b := &fakeConn{}
	o.Connect("b", b, func() {})
	o.Join("b", "r1")

	if !kicked {
		t.Fatal("backpressured member was not kicked")
	}
	// Membership cleanup happens on the transport teardown path.
	o.Disconnect("a")
	if got := rooms.MembersOf("r1"); len(got) != 1 || got[0] != "b" {
		t.Fatalf("MembersOf(r1) = %v after kick, want [b]", got)
	}
}
