// @title Beseda
// @version 0.1
// @description Realtime messenger backend: presence, rooms, direct and group chats.

// @host localhost:8080
// @BasePath /
// @query.collection.format multi
// @schemes http

package main

import (
	"log"

	_ "tush00nka/beseda/docs"
	"tush00nka/beseda/internal/app"
	"tush00nka/beseda/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	app.Run(cfg)
}
