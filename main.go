package main

import (
	"log"
	"net/http"

	"bingo-tracker/internal/api"
	"bingo-tracker/internal/config"
	"bingo-tracker/internal/database"
	"bingo-tracker/internal/fetch"
	"bingo-tracker/internal/logger"
	"bingo-tracker/internal/scheduler"
	"bingo-tracker/internal/services/bingo"
	"bingo-tracker/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		zlog.Fatalf("Failed to open database: %v", err)
	}

	st := store.New(db, cfg.ExportLogPath, zlog)
	fetcher := fetch.New(cfg.FetchTimeout, cfg.FetchMaxAttempts, cfg.InsecureHosts, zlog)
	svc := bingo.NewService(cfg, st, fetcher, zlog)

	hub := api.NewHub(zlog)
	svc.SetLatestListener(hub.BroadcastRecord)

	sched, err := scheduler.New(svc, cfg, zlog)
	if err != nil {
		zlog.Fatalf("Failed to start schedulers: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	api.SetupRoutes(r, svc, hub, zlog)

	zlog.Infof("Server starting on port %s (poll every %dm, backfill every %dm)",
		cfg.Port, cfg.PollEveryMinutes, cfg.BackfillEveryMinutes)
	zlog.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
