package main

import (
	"github.com/MichalTraczyk/rc-car/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	Execute()
}
