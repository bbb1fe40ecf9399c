package sigclient

import "github.com/MichalTraczyk/rc-car/internal/protocol"

// The client doubles as the negotiator's Signaler.

// RegisterCar announces this connection as the publisher of a room code.
func (c *Client) RegisterCar(code string) error {
	return c.SendEvent(protocol.EventRegisterCar, code)
}

// JoinRoom enters a room's broadcast group as a controller.
func (c *Client) JoinRoom(code string) error {
	return c.SendEvent(protocol.EventJoinRoom, code)
}

// SendOffer relays an encoded offer payload to the room.
func (c *Client) SendOffer(code, payload string) error {
	return c.SendEvent(protocol.EventOffer, protocol.RoomSignal{RoomCode: code, Offer: payload})
}

// SendAnswer relays an encoded answer payload to the room.
func (c *Client) SendAnswer(code, payload string) error {
	return c.SendEvent(protocol.EventAnswer, protocol.RoomSignal{RoomCode: code, Answer: payload})
}

// SendCandidate relays an encoded ICE candidate payload to the room.
func (c *Client) SendCandidate(code, payload string) error {
	return c.SendEvent(protocol.EventICECandidate, protocol.RoomSignal{RoomCode: code, Candidate: payload})
}
