package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// SessionDescription is the inner SDP object carried inside an offer or
// answer signal. It is always serialized to a string before entering the
// outer RoomSignal; both nestings must be preserved for interoperability with
// the browser and car clients.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// FromPion converts a pion session description.
func DescriptionFromPion(desc webrtc.SessionDescription) SessionDescription {
	return SessionDescription{Type: desc.Type.String(), SDP: desc.SDP}
}

// ToPion converts to a pion session description.
func (d SessionDescription) ToPion() (webrtc.SessionDescription, error) {
	var t webrtc.SDPType
	switch d.Type {
	case "offer":
		t = webrtc.SDPTypeOffer
	case "answer":
		t = webrtc.SDPTypeAnswer
	default:
		return webrtc.SessionDescription{}, fmt.Errorf("unsupported sdp type %q", d.Type)
	}
	return webrtc.SessionDescription{Type: t, SDP: d.SDP}, nil
}

// Encode serializes the description to the inner-payload string form.
func (d SessionDescription) Encode() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode description: %w", err)
	}
	return string(b), nil
}

// DecodeDescription parses an inner-payload string into a description. A
// missing or empty sdp field is a parse failure, not a valid description.
func DecodeDescription(payload string) (SessionDescription, error) {
	var d SessionDescription
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return SessionDescription{}, fmt.Errorf("decode description: %w", err)
	}
	if d.SDP == "" {
		return SessionDescription{}, fmt.Errorf("decode description: empty sdp")
	}
	return d, nil
}

// ICECandidate is the inner candidate object carried inside an ice-candidate
// signal, double-encoded like the session descriptions.
type ICECandidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
}

// CandidateFromPion converts a pion candidate init.
func CandidateFromPion(init webrtc.ICECandidateInit) ICECandidate {
	return ICECandidate{
		Candidate:     init.Candidate,
		SDPMid:        init.SDPMid,
		SDPMLineIndex: init.SDPMLineIndex,
	}
}

// ToPion converts to a pion candidate init.
func (c ICECandidate) ToPion() webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:     c.Candidate,
		SDPMid:        c.SDPMid,
		SDPMLineIndex: c.SDPMLineIndex,
	}
}

// Encode serializes the candidate to the inner-payload string form.
func (c ICECandidate) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode candidate: %w", err)
	}
	return string(b), nil
}

// DecodeCandidate parses an inner-payload string into a candidate.
func DecodeCandidate(payload string) (ICECandidate, error) {
	var c ICECandidate
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return ICECandidate{}, fmt.Errorf("decode candidate: %w", err)
	}
	if c.Candidate == "" {
		return ICECandidate{}, fmt.Errorf("decode candidate: empty candidate")
	}
	return c, nil
}
