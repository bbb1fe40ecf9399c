package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SIGNALING_URL", "")
	t.Setenv("STUN_SERVERS", "")

	cfg := Load(Options{})
	if cfg.ServerURL != DefaultServerURL {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
	if len(cfg.STUNServers) != 2 {
		t.Fatalf("STUNServers = %v", cfg.STUNServers)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("SIGNALING_URL", "ws://localhost:8080/ws")
	t.Setenv("STUN_SERVERS", "stun:stun.example.com:3478")

	cfg := Load(Options{})
	if cfg.ServerURL != "ws://localhost:8080/ws" {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
	if len(cfg.STUNServers) != 1 || cfg.STUNServers[0] != "stun:stun.example.com:3478" {
		t.Fatalf("STUNServers = %v", cfg.STUNServers)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SIGNALING_URL", "ws://env:8080/ws")
	t.Setenv("STUN_SERVERS", "stun:env.example.com:3478")

	cfg := Load(Options{
		ServerURL: "ws://flag:9090/ws",
		STUN:      "stun:flag.example.com:3478",
	})
	if cfg.ServerURL != "ws://flag:9090/ws" {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
	if len(cfg.STUNServers) != 1 || cfg.STUNServers[0] != "stun:flag.example.com:3478" {
		t.Fatalf("STUNServers = %v", cfg.STUNServers)
	}
}

func TestSTUNListSplitting(t *testing.T) {
	cfg := Load(Options{STUN: " stun:a:3478 , ,stun:b:3478,"})
	if len(cfg.STUNServers) != 2 || cfg.STUNServers[0] != "stun:a:3478" || cfg.STUNServers[1] != "stun:b:3478" {
		t.Fatalf("STUNServers = %v", cfg.STUNServers)
	}
}

func TestServerPort(t *testing.T) {
	t.Setenv("PORT", "")
	if got := ServerPort(); got != DefaultPort {
		t.Fatalf("ServerPort() = %q, want %q", got, DefaultPort)
	}

	t.Setenv("PORT", "9000")
	if got := ServerPort(); got != "9000" {
		t.Fatalf("ServerPort() = %q, want 9000", got)
	}
}
