package sigclient

import (
	"encoding/json"
	"log/slog"

	"github.com/MichalTraczyk/rc-car/internal/protocol"
)

// Handler routes incoming signaling messages to appropriate channels.
type Handler struct {
	client *Client

	// CarList delivers replies to get-car-list requests. Latest reply wins.
	CarList chan []protocol.RegistryEntry

	// CarListUpdated delivers the registry snapshots the relay broadcasts to
	// every connection. The relay sends these on its own schedule, so routing
	// never blocks on them: a lagging consumer sees only the newest snapshot.
	CarListUpdated chan []protocol.RegistryEntry

	// ControllerJoined delivers the controller id (publisher side only).
	// Latest join wins.
	ControllerJoined chan string

	// Offer and Answer deliver relayed descriptions. Latest wins: a newer
	// description supersedes an unread one, and group cross-talk can never
	// stall the routing loop.
	Offer  chan protocol.RelayedSignal
	Answer chan protocol.RelayedSignal

	// Candidate delivers every relayed ICE candidate, lossless and in order.
	Candidate chan protocol.RelayedSignal

	closed bool
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:           client,
		CarList:          make(chan []protocol.RegistryEntry, 1),
		CarListUpdated:   make(chan []protocol.RegistryEntry, 4),
		ControllerJoined: make(chan string, 1),
		Offer:            make(chan protocol.RelayedSignal, 4),
		Answer:           make(chan protocol.RelayedSignal, 4),
		Candidate:        make(chan protocol.RelayedSignal, 32),
	}
}

// Start begins listening to incoming messages and routing them.
func (h *Handler) Start() {
	for env := range h.client.Incoming() {

		// Ack replies carry no event name; get-car-list is the only request
		// that uses them.
		if env.Ack != 0 && env.Event == "" {
			h.handleCarList(env, h.CarList)
			continue
		}

		switch env.Event {

		case protocol.EventCarListUpdated:
			h.handleCarList(env, h.CarListUpdated)

		case protocol.EventControllerJoined:
			h.handleControllerJoined(env)

		case protocol.EventOffer:
			h.handleSignal(env, h.Offer, true)

		case protocol.EventAnswer:
			h.handleSignal(env, h.Answer, true)

		case protocol.EventICECandidate:
			h.handleSignal(env, h.Candidate, false)

		default:
			slog.Debug("ignoring unknown event", "event", env.Event)
		}
	}
}

func (h *Handler) handleCarList(env *protocol.Envelope, out chan []protocol.RegistryEntry) {
	var entries []protocol.RegistryEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		slog.Error("failed to parse car list", "err", err)
		return
	}
	sendLatest(out, entries)
}

func (h *Handler) handleControllerJoined(env *protocol.Envelope) {
	var joined protocol.ControllerJoined
	if err := json.Unmarshal(env.Data, &joined); err != nil {
		slog.Error("failed to parse controller-joined", "err", err)
		return
	}
	sendLatest(h.ControllerJoined, joined.ControllerID)
}

func (h *Handler) handleSignal(env *protocol.Envelope, out chan protocol.RelayedSignal, latest bool) {
	var sig protocol.RelayedSignal
	if err := json.Unmarshal(env.Data, &sig); err != nil {
		slog.Error("failed to parse relayed signal", "event", env.Event, "err", err)
		return
	}
	if latest {
		sendLatest(out, sig)
		return
	}
	out <- sig
}

// sendLatest queues v without blocking the routing loop: when the consumer
// lags, the oldest queued value is dropped to make room. Only used for
// payloads where the newest value supersedes everything before it.
func sendLatest[T any](out chan T, v T) {
	for {
		select {
		case out <- v:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

// Close closes all handler channels.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true

	close(h.CarList)
	close(h.CarListUpdated)
	close(h.ControllerJoined)
	close(h.Offer)
	close(h.Answer)
	close(h.Candidate)
}
