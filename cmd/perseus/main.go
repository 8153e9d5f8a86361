package main

import (
	"log"

	"github.com/perseusdefend/perseus/internal/app"

	_ "github.com/perseusdefend/perseus/api" // swagger spec registration
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
