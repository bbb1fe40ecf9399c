package config

import (
	"os"
	"strings"
)

// Default configuration values (production)
const (
	DefaultServerURL = "wss://rc-signaling-serv-816336414350.europe-west1.run.app/ws"
	DefaultSTUN      = "stun:stun.l.google.com:19302,stun:stun1.l.google.com:19302"
	DefaultPort      = "8080"
)

// Config holds client-side application configuration.
type Config struct {
	// ServerURL is the signaling server websocket endpoint.
	ServerURL string

	// STUNServers are the ICE servers used for NAT traversal.
	STUNServers []string
}

// Options for loading config with CLI flag overrides
type Options struct {
	ServerURL string
	STUN      string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) *Config {
	serverURL := opts.ServerURL
	if serverURL == "" {
		serverURL = os.Getenv("SIGNALING_URL")
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	stun := opts.STUN
	if stun == "" {
		stun = os.Getenv("STUN_SERVERS")
	}
	if stun == "" {
		stun = DefaultSTUN
	}

	return &Config{
		ServerURL:   serverURL,
		STUNServers: splitList(stun),
	}
}

// ServerPort returns the relay listen port from the environment, falling back
// to the default.
func ServerPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return DefaultPort
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
