package signaling

// Room tracks which publisher occupies a room code and which viewers have
// joined it. Exactly zero or one publisher per code; the room exists only
// while its publisher is connected.
type Room struct {
	// Code is the human-entered room code the car registered.
	Code string

	// Publisher is the car occupying the room. Last registration wins.
	Publisher *Client

	// Viewers are the controllers that joined while the room existed.
	Viewers map[*Client]struct{}
}
