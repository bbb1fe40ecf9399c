// Package negotiate drives a WebRTC connection attempt from room discovery
// through offer/answer/ICE exchange to an established transport.
//
// The negotiator is single-threaded by construction: every method must be
// called on the controlling context, and every asynchronous completion
// (SDP operations, transport events) is marshaled back onto it through the
// injected dispatch queue before touching session state.
package negotiate

import (
	"github.com/MichalTraczyk/rc-car/internal/protocol"
)

// State is the negotiation state machine position.
type State int

const (
	StateIdle State = iota
	StateDiscovering
	StateJoining
	StateAwaitingOffer
	StateAwaitingAnswer
	StateApplyingRemote
	StateCreatingLocal
	StateConnecting
	StateConnected
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateJoining:
		return "joining"
	case StateAwaitingOffer:
		return "awaiting-offer"
	case StateAwaitingAnswer:
		return "awaiting-answer"
	case StateApplyingRemote:
		return "applying-remote"
	case StateCreatingLocal:
		return "creating-local"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the state machine can leave this state without a
// fresh session.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFailed
}

// Role distinguishes the car (offers) from the controller (answers).
type Role int

const (
	RoleViewer Role = iota
	RolePublisher
)

// Connectivity is the transport's own connection signal, delivered
// asynchronously by the underlying peer connection.
type Connectivity int

const (
	ConnectivityConnected Connectivity = iota
	ConnectivityDisconnected
	ConnectivityFailed
)

func (c Connectivity) String() string {
	switch c {
	case ConnectivityConnected:
		return "connected"
	case ConnectivityDisconnected:
		return "disconnected"
	case ConnectivityFailed:
		return "failed"
	}
	return "unknown"
}

// TransportEvents are the callbacks a transport invokes from its own
// goroutines. The negotiator wraps them so they land on the controlling
// context tagged with the session they belong to.
type TransportEvents struct {
	OnLocalCandidate func(protocol.ICECandidate)
	OnConnectivity   func(Connectivity)
}

// Transport is the peer connection surface the negotiator drives. The three
// SDP operations may block; the negotiator always runs them off the
// controlling context and observes their completion through the dispatcher.
type Transport interface {
	SetRemoteDescription(protocol.SessionDescription) error

	// CreateOffer produces a local offer and applies it as the local
	// description before returning it.
	CreateOffer() (protocol.SessionDescription, error)

	// CreateAnswer produces a local answer and applies it as the local
	// description before returning it. Requires a remote description.
	CreateAnswer() (protocol.SessionDescription, error)

	AddRemoteCandidate(protocol.ICECandidate) error

	Close() error
}

// TransportFactory builds a fresh transport for one connection attempt.
type TransportFactory func(events TransportEvents) (Transport, error)

// Signaler is the relay-facing surface: fire-and-forget sends through the
// signaling connection.
type Signaler interface {
	RequestCarList()
	RegisterCar(code string) error
	JoinRoom(code string) error
	SendOffer(code, payload string) error
	SendAnswer(code, payload string) error
	SendCandidate(code, payload string) error
}
