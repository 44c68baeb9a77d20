package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/clinometric/handrom/internal/app"
	"github.com/clinometric/handrom/internal/config"
	"github.com/clinometric/handrom/internal/server"
	"github.com/clinometric/handrom/internal/store"
)

func main() {
	fmt.Println("Handrom - Hand and Wrist Range-of-Motion Assessment")

	cfg := config.Load()

	dataDir := cfg.DataDir
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dataDir = filepath.Join(homeDir, ".handrom")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "handrom.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	a := app.New(app.Config{
		Store:        st,
		CameraID:     cfg.CameraID,
		SteadyThresh: cfg.SteadyThresh,
		SettleFrames: cfg.SettleFrames,
	})
	defer a.Stop()

	srv := server.New(server.Config{
		StaticDir: cfg.StaticDir,
		Store:     st,
		Camera:    a.Camera(),
		Recorder:  a,
	})
	a.SetPublisher(srv.Live())

	fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
	if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
