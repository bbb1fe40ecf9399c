// Package rtc adapts pion's PeerConnection to the negotiator's transport
// interface and carries the control data channel and media tracks.
package rtc

import (
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/MichalTraczyk/rc-car/internal/negotiate"
	"github.com/MichalTraczyk/rc-car/internal/protocol"
)

// ControlChannelLabel is the data channel the car opens for driving commands.
const ControlChannelLabel = "control"

// Config wires a peer connection's collaborators.
type Config struct {
	// STUNServers are the ICE server URLs.
	STUNServers []string

	// Events receive candidate and connectivity callbacks; they are invoked
	// from pion's goroutines.
	Events negotiate.TransportEvents

	// OnControlMessage receives inbound control channel messages (car side).
	// Invoked from pion's goroutines.
	OnControlMessage func([]byte)

	// Sink receives inbound media tracks (controller side).
	Sink TrackSink
}

// Peer wraps a pion PeerConnection as a negotiate.Transport and exposes the
// control channel.
type Peer struct {
	pc *webrtc.PeerConnection

	mu      sync.Mutex
	control *webrtc.DataChannel
	open    bool
}

func newPeerConnection(stun []string) (*webrtc.PeerConnection, error) {
	return webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: stun}},
	})
}

// NewViewerPeer builds the controller-side transport: it accepts the car's
// control channel and hands inbound media tracks to the sink.
func NewViewerPeer(cfg Config) (*Peer, error) {
	pc, err := newPeerConnection(cfg.STUNServers)
	if err != nil {
		return nil, err
	}
	p := &Peer{pc: pc}
	p.setupHandlers(cfg)

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != ControlChannelLabel {
			return
		}
		p.adoptControl(dc, cfg.OnControlMessage)
	})

	sink := cfg.Sink
	if sink == nil {
		sink = NewDiscardSink(slog.Default())
	}
	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		sink.HandleTrack(track, receiver)
	})

	return p, nil
}

// NewPublisherPeer builds the car-side transport: it opens the control
// channel so driving commands can flow as soon as the connection is up.
func NewPublisherPeer(cfg Config) (*Peer, error) {
	pc, err := newPeerConnection(cfg.STUNServers)
	if err != nil {
		return nil, err
	}
	p := &Peer{pc: pc}
	p.setupHandlers(cfg)

	dc, err := pc.CreateDataChannel(ControlChannelLabel, nil)
	if err != nil {
		pc.Close()
		return nil, err
	}
	p.adoptControl(dc, cfg.OnControlMessage)

	return p, nil
}

func (p *Peer) setupHandlers(cfg Config) {
	p.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil || cfg.Events.OnLocalCandidate == nil {
			return
		}
		cfg.Events.OnLocalCandidate(protocol.CandidateFromPion(c.ToJSON()))
	})

	p.pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if cfg.Events.OnConnectivity == nil {
			return
		}
		switch state {
		case webrtc.PeerConnectionStateConnected:
			cfg.Events.OnConnectivity(negotiate.ConnectivityConnected)
		case webrtc.PeerConnectionStateDisconnected:
			cfg.Events.OnConnectivity(negotiate.ConnectivityDisconnected)
		case webrtc.PeerConnectionStateFailed:
			cfg.Events.OnConnectivity(negotiate.ConnectivityFailed)
		}
	})
}

func (p *Peer) adoptControl(dc *webrtc.DataChannel, onMessage func([]byte)) {
	p.mu.Lock()
	p.control = dc
	p.mu.Unlock()

	dc.OnOpen(func() {
		p.mu.Lock()
		p.open = true
		p.mu.Unlock()
	})
	dc.OnClose(func() {
		p.mu.Lock()
		p.open = false
		p.mu.Unlock()
	})
	if onMessage != nil {
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			onMessage(msg.Data)
		})
	}
}

// SetRemoteDescription implements negotiate.Transport.
func (p *Peer) SetRemoteDescription(desc protocol.SessionDescription) error {
	pionDesc, err := desc.ToPion()
	if err != nil {
		return err
	}
	return p.pc.SetRemoteDescription(pionDesc)
}

// CreateOffer implements negotiate.Transport. The offer is applied as the
// local description before returning; candidates trickle afterwards.
func (p *Peer) CreateOffer() (protocol.SessionDescription, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return protocol.SessionDescription{}, err
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return protocol.SessionDescription{}, err
	}
	return protocol.DescriptionFromPion(*p.pc.LocalDescription()), nil
}

// CreateAnswer implements negotiate.Transport.
func (p *Peer) CreateAnswer() (protocol.SessionDescription, error) {
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return protocol.SessionDescription{}, err
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return protocol.SessionDescription{}, err
	}
	return protocol.DescriptionFromPion(*p.pc.LocalDescription()), nil
}

// AddRemoteCandidate implements negotiate.Transport.
func (p *Peer) AddRemoteCandidate(cand protocol.ICECandidate) error {
	return p.pc.AddICECandidate(cand.ToPion())
}

// Close implements negotiate.Transport.
func (p *Peer) Close() error {
	return p.pc.Close()
}

// Open implements control.Channel.
func (p *Peer) Open() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open && p.control != nil
}

// Send implements control.Channel.
func (p *Peer) Send(data []byte) error {
	p.mu.Lock()
	dc := p.control
	p.mu.Unlock()
	return dc.Send(data)
}

// AddTrack attaches a local media track (car side).
func (p *Peer) AddTrack(track webrtc.TrackLocal) error {
	_, err := p.pc.AddTrack(track)
	return err
}
