// Package roomcode generates the short codes cars announce themselves under.
package roomcode

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
)

// Generate returns a random four-digit room code like "4821". Codes are
// bearer tokens; collisions are resolved by last-registration-wins at the
// relay, so uniqueness is best-effort by construction.
func Generate() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		log.Panic("Failed to generate room code:", err)
	}
	return fmt.Sprintf("%04d", n.Int64())
}
