package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire format for every message exchanged with the signaling
// server. Data carries an event-specific payload; Ack correlates a request
// with its callback-style reply (only get-car-list uses it).
type Envelope struct {
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   uint64          `json:"ack,omitempty"`
}

// Event name constants.
const (
	EventRegisterCar  = "register-car"
	EventGetCarList   = "get-car-list"
	EventJoinRoom     = "join-room"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"

	EventControllerJoined = "controller-joined"
	EventCarListUpdated   = "car-list-updated"
)

// RegistryEntry is the published view of a room with a live publisher.
type RegistryEntry struct {
	RoomCode string `json:"roomCode"`
	SocketID string `json:"socketId"`
}

// ControllerJoined notifies a publisher that a controller entered its room.
type ControllerJoined struct {
	ControllerID string `json:"controllerId"`
}

// RoomSignal is the outer envelope for offer/answer/ice-candidate events sent
// to the server. Exactly one of Offer, Answer and Candidate is set, matching
// the event name. The set field is itself a JSON-encoded string (the inner
// object is serialized before being placed here); the relay never inspects it.
type RoomSignal struct {
	RoomCode  string `json:"roomCode"`
	Offer     string `json:"offer,omitempty"`
	Answer    string `json:"answer,omitempty"`
	Candidate string `json:"candidate,omitempty"`
}

// Payload returns whichever signal string is set.
func (s RoomSignal) Payload() string {
	switch {
	case s.Offer != "":
		return s.Offer
	case s.Answer != "":
		return s.Answer
	default:
		return s.Candidate
	}
}

// RelayedSignal is the form a RoomSignal takes when forwarded to the other
// members of a room, tagged with the sender's connection id.
type RelayedSignal struct {
	SenderID  string `json:"senderId"`
	Offer     string `json:"offer,omitempty"`
	Answer    string `json:"answer,omitempty"`
	Candidate string `json:"candidate,omitempty"`
}

// Payload returns whichever signal string is set.
func (s RelayedSignal) Payload() string {
	switch {
	case s.Offer != "":
		return s.Offer
	case s.Answer != "":
		return s.Answer
	default:
		return s.Candidate
	}
}

// ClientEvent is the decoded form of a client-to-server envelope: a sum of the
// event kinds the relay accepts.
type ClientEvent struct {
	Event string

	// RoomCode is set for register-car and join-room.
	RoomCode string

	// Signal is set for offer, answer and ice-candidate.
	Signal RoomSignal

	// Ack is set for get-car-list.
	Ack uint64
}

// DecodeClientEvent validates an inbound envelope and produces the
// corresponding ClientEvent. Malformed payloads produce an error; the caller
// logs and drops the message.
func DecodeClientEvent(env *Envelope) (ClientEvent, error) {
	switch env.Event {
	case EventRegisterCar, EventJoinRoom:
		var code string
		if err := json.Unmarshal(env.Data, &code); err != nil {
			return ClientEvent{}, fmt.Errorf("%s: room code: %w", env.Event, err)
		}
		if code == "" {
			return ClientEvent{}, fmt.Errorf("%s: empty room code", env.Event)
		}
		return ClientEvent{Event: env.Event, RoomCode: code}, nil

	case EventGetCarList:
		if env.Ack == 0 {
			return ClientEvent{}, fmt.Errorf("%s: missing ack id", env.Event)
		}
		return ClientEvent{Event: env.Event, Ack: env.Ack}, nil

	case EventOffer, EventAnswer, EventICECandidate:
		var sig RoomSignal
		if err := json.Unmarshal(env.Data, &sig); err != nil {
			return ClientEvent{}, fmt.Errorf("%s: %w", env.Event, err)
		}
		if sig.RoomCode == "" {
			return ClientEvent{}, fmt.Errorf("%s: missing room code", env.Event)
		}
		if sig.Payload() == "" {
			return ClientEvent{}, fmt.Errorf("%s: missing payload", env.Event)
		}
		return ClientEvent{Event: env.Event, Signal: sig}, nil

	default:
		return ClientEvent{}, fmt.Errorf("unsupported event %q", env.Event)
	}
}

// NewEnvelope marshals data into an envelope for the given event.
func NewEnvelope(event string, data any) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return &Envelope{Event: event, Data: raw}, nil
}

// Relayed builds the forwarded form of a room signal for the given event,
// tagged with the sender's connection id.
func Relayed(event, senderID, payload string) RelayedSignal {
	out := RelayedSignal{SenderID: senderID}
	switch event {
	case EventOffer:
		out.Offer = payload
	case EventAnswer:
		out.Answer = payload
	case EventICECandidate:
		out.Candidate = payload
	}
	return out
}
