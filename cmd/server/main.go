// Package main implements the entry point for the AstroPet API server,
// which synchronizes study progress between local cache and the remote
// profile store, derives progression, and keeps the daily journal.
package main

import (
	"context"
	"log"
)

func main() {
	app, err := initializeApp(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.startHTTPServer(context.Background(), app.setupRouter()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
