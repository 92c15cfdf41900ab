package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"cardtable/internal/config"
	"cardtable/internal/wsserver"
)

const idleSweepInterval = 60 * time.Second

func main() {
	cfg := config.Load()
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	server := wsserver.NewServer(cfg)
	server.Routes(router)

	sweepStop := make(chan struct{})
	server.Registry().StartSweeper(idleSweepInterval, sweepStop)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		close(sweepStop)
		log.Println("tableserver: shutting down")
		os.Exit(0)
	}()

	log.Printf("tableserver starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("tableserver: failed to start: %v", err)
	}
}
