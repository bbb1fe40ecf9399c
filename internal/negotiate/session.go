package negotiate

import (
	"fmt"
	"log/slog"

	"github.com/MichalTraczyk/rc-car/internal/dispatch"
	"github.com/MichalTraczyk/rc-car/internal/protocol"
)

// session holds the state of exactly one connection attempt. Starting a new
// attempt discards the previous session and its transport; completions still
// in flight for the old session carry its generation and are dropped.
type session struct {
	gen           uint64
	roomCode      string
	transport     Transport
	pending       []protocol.ICECandidate
	remoteApplied bool
}

// Negotiator is the connection-negotiation state machine. All methods must be
// called on the controlling context (the goroutine that drains the dispatch
// queue); the only synchronization the negotiator relies on is that queue.
type Negotiator struct {
	role     Role
	signaler Signaler
	factory  TransportFactory
	disp     dispatch.Poster
	log      *slog.Logger

	// onChange, if set, observes every state transition with a short status
	// note for the user.
	onChange func(State, string)

	gen   uint64
	state State
	sess  *session
}

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithStateFunc installs a state-transition observer.
func WithStateFunc(fn func(State, string)) Option {
	return func(n *Negotiator) { n.onChange = fn }
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(n *Negotiator) { n.log = log }
}

// New creates a negotiator in StateIdle.
func New(role Role, signaler Signaler, factory TransportFactory, disp dispatch.Poster, opts ...Option) *Negotiator {
	n := &Negotiator{
		role:     role,
		signaler: signaler,
		factory:  factory,
		disp:     disp,
		log:      slog.Default(),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// State returns the current state.
func (n *Negotiator) State() State { return n.state }

// RoomCode returns the room of the live session, if any.
func (n *Negotiator) RoomCode() string {
	if n.sess == nil {
		return ""
	}
	return n.sess.roomCode
}

// Discover requests a registry snapshot and enters StateDiscovering.
func (n *Negotiator) Discover() {
	n.disposeSession()
	n.setState(StateDiscovering, "querying car registry")
	n.signaler.RequestCarList()
}

// StartSession begins a viewer connection attempt for the given room: any
// prior session and transport are discarded, a fresh transport is constructed
// synchronously, and the join is sent. There is exactly one live session at a
// time; this is also the only cancellation mechanism.
func (n *Negotiator) StartSession(roomCode string) error {
	n.disposeSession()
	n.gen++

	sess := &session{gen: n.gen, roomCode: roomCode}
	transport, err := n.factory(n.wrapEvents(sess.gen))
	if err != nil {
		n.fail("create transport", err)
		return newError("create transport", err)
	}
	sess.transport = transport
	n.sess = sess

	n.setState(StateJoining, "joining room "+roomCode)
	if err := n.signaler.JoinRoom(roomCode); err != nil {
		n.fail("join room", err)
		return newError("join room", err)
	}

	n.setState(StateAwaitingOffer, "waiting for car offer")
	return nil
}

// StartPublishing begins the publisher side: register the room code and wait
// for a controller. The transport is constructed lazily when a controller
// joins, matching the car's offer-on-demand behavior.
func (n *Negotiator) StartPublishing(roomCode string) error {
	n.disposeSession()
	n.gen++
	n.sess = &session{gen: n.gen, roomCode: roomCode}

	n.setState(StateJoining, "registering room "+roomCode)
	if err := n.signaler.RegisterCar(roomCode); err != nil {
		n.fail("register car", err)
		return newError("register car", err)
	}
	return nil
}

// HandleControllerJoined reacts to a controller entering our room (publisher
// role): construct the transport and produce an offer. A second controller
// joining mid-negotiation is ignored; the first session stays live.
func (n *Negotiator) HandleControllerJoined(controllerID string) {
	if n.role != RolePublisher || n.sess == nil {
		return
	}
	if n.sess.transport != nil {
		n.log.Warn("ignoring controller while negotiating", "controller", controllerID)
		return
	}

	transport, err := n.factory(n.wrapEvents(n.sess.gen))
	if err != nil {
		n.fail("create transport", err)
		return
	}
	n.sess.transport = transport

	n.setState(StateCreatingLocal, "controller joined, creating offer")
	n.asyncDescription(transport.CreateOffer, n.offerCreated)
}

// HandleOffer reacts to a relayed offer (viewer role). The payload is the
// inner JSON string; a parse failure is terminal for the session, there is no
// retry.
func (n *Negotiator) HandleOffer(payload string) {
	if n.role != RoleViewer || n.sess == nil {
		return
	}
	if n.state != StateJoining && n.state != StateAwaitingOffer {
		n.log.Warn("ignoring offer", "state", n.state)
		return
	}

	desc, err := protocol.DecodeDescription(payload)
	if err != nil {
		n.fail("parse offer", fmt.Errorf("%w: %v", ErrBadSignal, err))
		return
	}

	n.setState(StateApplyingRemote, "applying car offer")
	n.applyRemote(desc)
}

// HandleAnswer reacts to a relayed answer (publisher role).
func (n *Negotiator) HandleAnswer(payload string) {
	if n.role != RolePublisher || n.sess == nil {
		return
	}
	if n.state != StateAwaitingAnswer {
		n.log.Warn("ignoring answer", "state", n.state)
		return
	}

	desc, err := protocol.DecodeDescription(payload)
	if err != nil {
		n.fail("parse answer", fmt.Errorf("%w: %v", ErrBadSignal, err))
		return
	}

	n.setState(StateApplyingRemote, "applying controller answer")
	n.applyRemote(desc)
}

// HandleRemoteCandidate reacts to a relayed ICE candidate. Candidates that
// arrive before the remote description is applied are buffered in arrival
// order; a malformed candidate is logged and dropped without touching the
// session.
func (n *Negotiator) HandleRemoteCandidate(payload string) {
	if n.sess == nil {
		return
	}

	cand, err := protocol.DecodeCandidate(payload)
	if err != nil {
		n.log.Error("dropping candidate", "err", err)
		return
	}

	if !n.sess.remoteApplied {
		n.sess.pending = append(n.sess.pending, cand)
		return
	}
	if err := n.sess.transport.AddRemoteCandidate(cand); err != nil {
		n.log.Error("add candidate", "err", err)
	}
}

// Close releases the transport and clears the session on explicit user
// disconnect. The caller re-enters discovery with Discover.
func (n *Negotiator) Close() {
	n.disposeSession()
	n.setState(StateClosed, "disconnected")
}

// applyRemote runs SetRemoteDescription off the controlling context; its
// completion drains the candidate buffer and moves the machine forward.
func (n *Negotiator) applyRemote(desc protocol.SessionDescription) {
	sess := n.sess
	n.async(func() error { return sess.transport.SetRemoteDescription(desc) }, func(err error) {
		if err != nil {
			n.fail("apply remote description", err)
			return
		}
		n.sess.remoteApplied = true
		n.drainPending()

		switch n.role {
		case RoleViewer:
			n.setState(StateCreatingLocal, "creating answer")
			n.asyncDescription(n.sess.transport.CreateAnswer, n.answerCreated)
		case RolePublisher:
			n.setState(StateConnecting, "answer applied, connecting")
		}
	})
}

func (n *Negotiator) drainPending() {
	for _, cand := range n.sess.pending {
		if err := n.sess.transport.AddRemoteCandidate(cand); err != nil {
			n.log.Error("add buffered candidate", "err", err)
		}
	}
	n.sess.pending = nil
}

func (n *Negotiator) offerCreated(desc protocol.SessionDescription) {
	payload, err := desc.Encode()
	if err != nil {
		n.fail("encode offer", err)
		return
	}
	if err := n.signaler.SendOffer(n.sess.roomCode, payload); err != nil {
		n.fail("send offer", err)
		return
	}
	n.setState(StateAwaitingAnswer, "offer sent, waiting for answer")
}

func (n *Negotiator) answerCreated(desc protocol.SessionDescription) {
	payload, err := desc.Encode()
	if err != nil {
		n.fail("encode answer", err)
		return
	}
	if err := n.signaler.SendAnswer(n.sess.roomCode, payload); err != nil {
		n.fail("send answer", err)
		return
	}
	n.setState(StateConnecting, "answer sent, connecting")
}

// wrapEvents builds transport callbacks that hop onto the controlling context
// and carry the generation of the session they were created for, so events
// from a superseded transport are discarded safely.
func (n *Negotiator) wrapEvents(gen uint64) TransportEvents {
	return TransportEvents{
		OnLocalCandidate: func(cand protocol.ICECandidate) {
			n.disp.Post(func() {
				if n.sess == nil || n.sess.gen != gen {
					return
				}
				n.relayLocalCandidate(cand)
			})
		},
		OnConnectivity: func(conn Connectivity) {
			n.disp.Post(func() {
				if n.sess == nil || n.sess.gen != gen {
					return
				}
				n.handleConnectivity(conn)
			})
		},
	}
}

// relayLocalCandidate sends a locally gathered candidate out immediately,
// in any state from Joining onward. The far side buffers candidates that
// outrun its remote description.
func (n *Negotiator) relayLocalCandidate(cand protocol.ICECandidate) {
	payload, err := cand.Encode()
	if err != nil {
		n.log.Error("encode candidate", "err", err)
		return
	}
	if err := n.signaler.SendCandidate(n.sess.roomCode, payload); err != nil {
		n.log.Error("send candidate", "err", err)
	}
}

func (n *Negotiator) handleConnectivity(conn Connectivity) {
	switch conn {
	case ConnectivityConnected:
		if n.state == StateConnecting || n.state == StateConnected {
			n.setState(StateConnected, "peer connected")
		}
	case ConnectivityFailed:
		n.fail("transport", ErrTransportFailed)
	case ConnectivityDisconnected:
		n.fail("transport", ErrPeerDisconnected)
	}
}

// async runs fn off the controlling context and posts its completion back,
// dropping the result if the session it belongs to has been superseded.
func (n *Negotiator) async(fn func() error, done func(error)) {
	gen := n.sess.gen
	go func() {
		err := fn()
		n.disp.Post(func() {
			if n.sess == nil || n.sess.gen != gen {
				return
			}
			done(err)
		})
	}()
}

func (n *Negotiator) asyncDescription(fn func() (protocol.SessionDescription, error), done func(protocol.SessionDescription)) {
	gen := n.sess.gen
	go func() {
		desc, err := fn()
		n.disp.Post(func() {
			if n.sess == nil || n.sess.gen != gen {
				return
			}
			if err != nil {
				n.fail("create local description", err)
				return
			}
			done(desc)
		})
	}()
}

// fail aborts the current session: the transport is disposed and the machine
// lands in StateFailed. Recovery is a fresh StartSession.
func (n *Negotiator) fail(op string, err error) {
	n.log.Error("negotiation failed", "op", op, "err", err)
	n.disposeSession()
	n.setState(StateFailed, op+": "+err.Error())
}

func (n *Negotiator) disposeSession() {
	if n.sess == nil {
		return
	}
	if n.sess.transport != nil {
		if err := n.sess.transport.Close(); err != nil {
			n.log.Error("close transport", "err", err)
		}
	}
	n.sess = nil
}

func (n *Negotiator) setState(s State, note string) {
	n.state = s
	n.log.Debug("state", "state", s, "note", note)
	if n.onChange != nil {
		n.onChange(s, note)
	}
}
