package main

import (
	"log"

	"ai-market-coach/app"
	"ai-market-coach/config"
)

func main() {
	// Load config from .env, optional YAML file and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Create and start app
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal(err)
	}
}
