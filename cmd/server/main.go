package main

import (
	"log"
	"net/http"

	"github.com/MichalTraczyk/rc-car/internal/config"
	"github.com/MichalTraczyk/rc-car/internal/server"
	"github.com/MichalTraczyk/rc-car/internal/signaling"
)

func main() {
	// 1. Create the Hub
	hub := signaling.NewHub()

	// 2. Run the Hub in a separate goroutine
	// This starts the hub's main event loop (the 'select' statement)
	go hub.Run()

	// 3. Register our handlers
	http.HandleFunc("/health", server.HealthCheck)
	http.HandleFunc("/ws", server.ServeWs(hub))

	// 4. Start the server
	addr := ":" + config.ServerPort()
	log.Printf("Starting signaling server on http://localhost%s", addr)

	log.Fatal(http.ListenAndServe(addr, nil))
}
