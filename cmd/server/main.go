// Command server runs the Cloud Tasks execution endpoint: it registers the
// process's task functions, then serves the handler path that Cloud Tasks
// delivers task payloads to.
package main

import (
	"context"
	"log"
)

func main() {
	ctx := context.Background()

	app, err := initializeApp(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
