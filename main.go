package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"streamscout/api"
	"streamscout/config"
	"streamscout/handlers"
	"streamscout/services/fetch"
	"streamscout/services/scrape"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"
)

const version = "1.0.0"

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	// Determine config path (env or default)
	configPath := os.Getenv("STREAMSCOUT_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSizeMB,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAgeDays,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	fetcher := fetch.NewClient(settings.Fetch, nil)
	fetcher.SetSolver(fetch.NewChallengeSolver(settings.Fetch.ChallengeSlots))

	scrapeService := scrape.NewService(settings, fetcher)
	log.Printf("[main] registered %d scrape source(s)", len(scrapeService.Adapters()))

	requestTimeout := time.Duration(settings.Fetch.RequestTimeoutSeconds) * time.Second

	r := mux.NewRouter()
	api.Register(
		r,
		handlers.NewSearchHandler(scrapeService, requestTimeout),
		handlers.NewContentHandler(scrapeService, requestTimeout),
		handlers.NewRegistryHandler(scrapeService, version),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}
