package signaling

import (
	"log"

	"github.com/MichalTraczyk/rc-car/internal/protocol"
)

// Inbound pairs a decoded-later envelope with the client that sent it.
type Inbound struct {
	Client   *Client
	Envelope *protocol.Envelope
}

// Hub is the central brain of the signaling server. It owns the room registry
// and the broadcast groups; all mutations happen on the single goroutine
// running Run, so no locking is needed anywhere in this package.
type Hub struct {
	// rooms maps room codes to registry rooms (rooms with a live publisher).
	rooms map[string]*Room

	// groups maps room codes to the connections that receive relayed signals
	// for that code. Joining a group is independent of the registry: a
	// controller may sit in a group whose room does not exist yet, it simply
	// receives nothing.
	groups map[string]map[*Client]struct{}

	// clients is every connected party, registry or not. car-list-updated
	// broadcasts go to all of them.
	clients map[*Client]struct{}

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for unregistering clients.
	Unregister chan *Client

	// Inbound is the channel clients push received envelopes to.
	Inbound chan *Inbound
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		groups:     make(map[string]map[*Client]struct{}),
		clients:    make(map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Inbound),
	}
}

// Run starts the hub's main processing loop. This is the single goroutine
// that safely manages all state (rooms, groups, clients).
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.handleRegister(client)

		case client := <-h.Unregister:
			h.handleUnregister(client)

		case in := <-h.Inbound:
			h.handleInbound(in)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.clients[client] = struct{}{}
	log.Printf("Client connected: %s", client.ID)
}

// handleUnregister applies the role-dependent disconnect rules: a publisher
// takes its whole room down (viewers are left orphaned, they are not
// notified), a viewer is only removed from viewer sets.
func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	log.Printf("Client disconnected: %s", client.ID)

	published := false
	for code, room := range h.rooms {
		if room.Publisher == client {
			delete(h.rooms, code)
			published = true
			log.Printf("Room deleted: %s", code)
			continue
		}
		delete(room.Viewers, client)
	}

	for code, group := range h.groups {
		delete(group, client)
		if len(group) == 0 {
			delete(h.groups, code)
		}
	}

	delete(h.clients, client)
	close(client.Send)

	if published {
		h.broadcastCarList()
	}
}

func (h *Hub) handleInbound(in *Inbound) {
	ev, err := protocol.DecodeClientEvent(in.Envelope)
	if err != nil {
		log.Printf("dropping message from %s: %v", in.Client.ID, err)
		return
	}

	switch ev.Event {
	case protocol.EventRegisterCar:
		h.registerPublisher(ev.RoomCode, in.Client)

	case protocol.EventGetCarList:
		h.sendCarList(in.Client, ev.Ack)

	case protocol.EventJoinRoom:
		h.joinRoom(ev.RoomCode, in.Client)

	case protocol.EventOffer, protocol.EventAnswer, protocol.EventICECandidate:
		h.forward(ev.Event, ev.Signal, in.Client)
	}
}

// registerPublisher creates the room if absent and sets its publisher. Last
// registration for a code wins; the previous publisher slot is overwritten,
// not merged. Every connected party gets the updated registry snapshot.
func (h *Hub) registerPublisher(code string, client *Client) {
	room, ok := h.rooms[code]
	if !ok {
		room = &Room{Code: code, Viewers: make(map[*Client]struct{})}
		h.rooms[code] = room
	}
	room.Publisher = client
	h.joinGroup(code, client)

	log.Printf("Car registered: room=%s client=%s", code, client.ID)
	h.broadcastCarList()
}

// joinRoom adds the client to the room's broadcast group unconditionally.
// Registry membership is tracked only if the room exists; joining a
// nonexistent room never errors, the socket just never receives anything.
func (h *Hub) joinRoom(code string, client *Client) {
	h.joinGroup(code, client)

	room, ok := h.rooms[code]
	if !ok {
		log.Printf("Controller %s joined empty room %s", client.ID, code)
		return
	}
	room.Viewers[client] = struct{}{}

	log.Printf("Controller %s joined room %s", client.ID, code)

	// Only the publisher learns about the new controller.
	env, err := protocol.NewEnvelope(protocol.EventControllerJoined, protocol.ControllerJoined{
		ControllerID: client.ID,
	})
	if err != nil {
		log.Printf("encode controller-joined: %v", err)
		return
	}
	room.Publisher.send(env)
}

// forward relays an opaque signal payload to every connection in the room's
// broadcast group except the sender. The relay never inspects the payload.
func (h *Hub) forward(event string, sig protocol.RoomSignal, sender *Client) {
	group, ok := h.groups[sig.RoomCode]
	if !ok {
		return
	}

	env, err := protocol.NewEnvelope(event, protocol.Relayed(event, sender.ID, sig.Payload()))
	if err != nil {
		log.Printf("encode %s: %v", event, err)
		return
	}

	for member := range group {
		if member == sender {
			continue
		}
		member.send(env)
	}
}

func (h *Hub) joinGroup(code string, client *Client) {
	group, ok := h.groups[code]
	if !ok {
		group = make(map[*Client]struct{})
		h.groups[code] = group
	}
	group[client] = struct{}{}
}

// carList takes a point-in-time snapshot of rooms with a live publisher.
func (h *Hub) carList() []protocol.RegistryEntry {
	entries := make([]protocol.RegistryEntry, 0, len(h.rooms))
	for code, room := range h.rooms {
		if room.Publisher == nil {
			continue
		}
		entries = append(entries, protocol.RegistryEntry{
			RoomCode: code,
			SocketID: room.Publisher.ID,
		})
	}
	return entries
}

func (h *Hub) sendCarList(client *Client, ack uint64) {
	env, err := protocol.NewEnvelope("", h.carList())
	if err != nil {
		log.Printf("encode car list: %v", err)
		return
	}
	env.Ack = ack
	client.send(env)
}

func (h *Hub) broadcastCarList() {
	env, err := protocol.NewEnvelope(protocol.EventCarListUpdated, h.carList())
	if err != nil {
		log.Printf("encode car list: %v", err)
		return
	}
	for client := range h.clients {
		client.send(env)
	}
}
