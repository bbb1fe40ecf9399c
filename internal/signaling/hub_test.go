package signaling

import (
	"encoding/json"
	"testing"

	"github.com/MichalTraczyk/rc-car/internal/protocol"
)

func newTestClient(h *Hub, id string) *Client {
	c := &Client{Hub: h, ID: id, Send: make(chan *protocol.Envelope, 16)}
	h.handleRegister(c)
	return c
}

func inbound(t *testing.T, h *Hub, c *Client, event string, data any) {
	t.Helper()
	env, err := protocol.NewEnvelope(event, data)
	if err != nil {
		t.Fatalf("NewEnvelope(%s): %v", event, err)
	}
	h.handleInbound(&Inbound{Client: c, Envelope: env})
}

func recv(t *testing.T, c *Client) *protocol.Envelope {
	t.Helper()
	select {
	case env := <-c.Send:
		return env
	default:
		t.Fatalf("client %s: no message queued", c.ID)
		return nil
	}
}

func drainSend(c *Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}

func carListFrom(t *testing.T, env *protocol.Envelope) []protocol.RegistryEntry {
	t.Helper()
	var entries []protocol.RegistryEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatalf("decode car list: %v", err)
	}
	return entries
}

func TestRegisterCarAppearsExactlyOnce(t *testing.T) {
	h := NewHub()
	car := newTestClient(h, "car-1")

	inbound(t, h, car, protocol.EventRegisterCar, "4821")

	env := recv(t, car)
	if env.Event != protocol.EventCarListUpdated {
		t.Fatalf("event = %q, want %q", env.Event, protocol.EventCarListUpdated)
	}
	entries := carListFrom(t, env)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].RoomCode != "4821" || entries[0].SocketID != "car-1" {
		t.Fatalf("entry = %+v", entries[0])
	}
}

func TestRegisterCarLastWins(t *testing.T) {
	h := NewHub()
	old := newTestClient(h, "car-old")
	next := newTestClient(h, "car-new")

	inbound(t, h, old, protocol.EventRegisterCar, "4821")
	inbound(t, h, next, protocol.EventRegisterCar, "4821")

	room := h.rooms["4821"]
	if room == nil || room.Publisher != next {
		t.Fatalf("publisher not replaced, room = %+v", room)
	}

	drainSend(next)
	h.handleInbound(&Inbound{Client: next, Envelope: &protocol.Envelope{Event: protocol.EventGetCarList, Ack: 9}})
	entries := carListFrom(t, recv(t, next))
	if len(entries) != 1 || entries[0].SocketID != "car-new" {
		t.Fatalf("entries = %+v, want single entry for car-new", entries)
	}
}

func TestGetCarListAckReply(t *testing.T) {
	h := NewHub()
	car := newTestClient(h, "car-1")
	controller := newTestClient(h, "ctrl-1")

	inbound(t, h, car, protocol.EventRegisterCar, "4821")
	drainSend(car)
	drainSend(controller)

	h.handleInbound(&Inbound{Client: controller, Envelope: &protocol.Envelope{Event: protocol.EventGetCarList, Ack: 7}})

	env := recv(t, controller)
	if env.Event != "" {
		t.Fatalf("ack reply event = %q, want empty", env.Event)
	}
	if env.Ack != 7 {
		t.Fatalf("ack = %d, want 7", env.Ack)
	}
	entries := carListFrom(t, env)
	if len(entries) != 1 || entries[0].RoomCode != "4821" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestGetCarListWithoutAckDropped(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "ctrl-1")

	h.handleInbound(&Inbound{Client: c, Envelope: &protocol.Envelope{Event: protocol.EventGetCarList}})

	select {
	case env := <-c.Send:
		t.Fatalf("unexpected reply %+v", env)
	default:
	}
}

func TestJoinRoomNotifiesPublisherOnly(t *testing.T) {
	h := NewHub()
	car := newTestClient(h, "car-1")
	controller := newTestClient(h, "ctrl-1")
	bystander := newTestClient(h, "ctrl-2")

	inbound(t, h, car, protocol.EventRegisterCar, "4821")
	drainSend(car)
	drainSend(controller)
	drainSend(bystander)

	inbound(t, h, controller, protocol.EventJoinRoom, "4821")

	env := recv(t, car)
	if env.Event != protocol.EventControllerJoined {
		t.Fatalf("event = %q, want %q", env.Event, protocol.EventControllerJoined)
	}
	var joined protocol.ControllerJoined
	if err := json.Unmarshal(env.Data, &joined); err != nil {
		t.Fatalf("decode controller-joined: %v", err)
	}
	if joined.ControllerID != "ctrl-1" {
		t.Fatalf("controllerId = %q, want ctrl-1", joined.ControllerID)
	}

	for _, c := range []*Client{controller, bystander} {
		select {
		case env := <-c.Send:
			t.Fatalf("client %s got unexpected %+v", c.ID, env)
		default:
		}
	}
}

func TestJoinNonexistentRoomSilent(t *testing.T) {
	h := NewHub()
	controller := newTestClient(h, "ctrl-1")

	inbound(t, h, controller, protocol.EventJoinRoom, "0000")

	select {
	case env := <-controller.Send:
		t.Fatalf("unexpected message %+v", env)
	default:
	}
	if _, ok := h.groups["0000"][controller]; !ok {
		t.Fatalf("controller not in broadcast group")
	}
	if _, ok := h.rooms["0000"]; ok {
		t.Fatalf("registry room created for empty join")
	}
}

func TestForwardExcludesSenderAndTagsSenderID(t *testing.T) {
	h := NewHub()
	car := newTestClient(h, "car-1")
	controller := newTestClient(h, "ctrl-1")

	inbound(t, h, car, protocol.EventRegisterCar, "4821")
	inbound(t, h, controller, protocol.EventJoinRoom, "4821")
	drainSend(car)
	drainSend(controller)

	inbound(t, h, car, protocol.EventOffer, protocol.RoomSignal{
		RoomCode: "4821",
		Offer:    `{"type":"offer","sdp":"v=0 fake"}`,
	})

	select {
	case env := <-car.Send:
		t.Fatalf("sender received its own signal %+v", env)
	default:
	}

	env := recv(t, controller)
	if env.Event != protocol.EventOffer {
		t.Fatalf("event = %q, want offer", env.Event)
	}
	var relayed protocol.RelayedSignal
	if err := json.Unmarshal(env.Data, &relayed); err != nil {
		t.Fatalf("decode relayed: %v", err)
	}
	if relayed.SenderID != "car-1" {
		t.Fatalf("senderId = %q, want car-1", relayed.SenderID)
	}
	if relayed.Offer != `{"type":"offer","sdp":"v=0 fake"}` {
		t.Fatalf("payload altered: %q", relayed.Offer)
	}
}

func TestForwardToEmptyGroupIsNoop(t *testing.T) {
	h := NewHub()
	car := newTestClient(h, "car-1")

	inbound(t, h, car, protocol.EventICECandidate, protocol.RoomSignal{
		RoomCode:  "9999",
		Candidate: `{"candidate":"candidate:1"}`,
	})

	select {
	case env := <-car.Send:
		t.Fatalf("unexpected message %+v", env)
	default:
	}
}

func TestPublisherDisconnectRemovesRoom(t *testing.T) {
	h := NewHub()
	car := newTestClient(h, "car-1")
	controller := newTestClient(h, "ctrl-1")

	inbound(t, h, car, protocol.EventRegisterCar, "4821")
	inbound(t, h, controller, protocol.EventJoinRoom, "4821")
	drainSend(car)
	drainSend(controller)

	h.handleUnregister(car)

	if _, ok := h.rooms["4821"]; ok {
		t.Fatalf("room survived publisher disconnect")
	}

	// The viewer only sees the registry broadcast, no targeted notification.
	env := recv(t, controller)
	if env.Event != protocol.EventCarListUpdated {
		t.Fatalf("event = %q, want %q", env.Event, protocol.EventCarListUpdated)
	}
	if entries := carListFrom(t, env); len(entries) != 0 {
		t.Fatalf("entries = %+v, want empty", entries)
	}
	select {
	case env := <-controller.Send:
		t.Fatalf("extra message %+v", env)
	default:
	}

	// The orphaned viewer still holds its group membership.
	if _, ok := h.groups["4821"][controller]; !ok {
		t.Fatalf("viewer evicted from broadcast group")
	}
}

func TestViewerDisconnectKeepsRoom(t *testing.T) {
	h := NewHub()
	car := newTestClient(h, "car-1")
	controller := newTestClient(h, "ctrl-1")

	inbound(t, h, car, protocol.EventRegisterCar, "4821")
	inbound(t, h, controller, protocol.EventJoinRoom, "4821")
	drainSend(car)

	h.handleUnregister(controller)

	room, ok := h.rooms["4821"]
	if !ok || room.Publisher != car {
		t.Fatalf("room lost on viewer disconnect")
	}
	if _, ok := room.Viewers[controller]; ok {
		t.Fatalf("viewer still tracked after disconnect")
	}
	select {
	case env := <-car.Send:
		t.Fatalf("publisher notified of viewer leave: %+v", env)
	default:
	}
}

func TestMalformedEnvelopeDropped(t *testing.T) {
	h := NewHub()
	car := newTestClient(h, "car-1")

	for _, env := range []*protocol.Envelope{
		{Event: protocol.EventRegisterCar, Data: json.RawMessage(`""`)},
		{Event: protocol.EventRegisterCar, Data: json.RawMessage(`{"bad":1}`)},
		{Event: protocol.EventOffer, Data: json.RawMessage(`{"roomCode":"4821"}`)},
		{Event: protocol.EventOffer, Data: json.RawMessage(`{"offer":"x"}`)},
		{Event: "unknown-event", Data: json.RawMessage(`{}`)},
	} {
		h.handleInbound(&Inbound{Client: car, Envelope: env})
	}

	if len(h.rooms) != 0 || len(h.groups) != 0 {
		t.Fatalf("state mutated by malformed input: rooms=%d groups=%d", len(h.rooms), len(h.groups))
	}
	select {
	case env := <-car.Send:
		t.Fatalf("unexpected reply %+v", env)
	default:
	}
}
