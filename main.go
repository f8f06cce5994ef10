package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sprinklex-server/confs"
	"sprinklex-server/db"
	"sprinklex-server/repositories"
	"sprinklex-server/server"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	closeLog := confs.SetupLogging(cfg)
	defer closeLog()

	var stores *repositories.Stores
	if cfg.DSN != "" {
		database, err := db.Connect(cfg.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer database.Close()
		stores = repositories.NewPgStores(database)
	} else {
		log.Println("No database configured, using in-memory storage")
		stores = repositories.NewMemoryStores()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.NewServer(cfg, stores).Start(ctx); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
