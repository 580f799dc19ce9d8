// Command chatger-tui is the terminal client for the chatger chat service.
package main

import (
	"context"
	"log"
	"os"

	"github.com/blockdoth/chatger-tui/internal/config"
	"github.com/blockdoth/chatger-tui/internal/runtime"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("[config] %v", err)
	}

	if err := runtime.Run(context.Background(), cfg); err != nil {
		log.Printf("[app] %v", err)
		os.Exit(1)
	}
}
