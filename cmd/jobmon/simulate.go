package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexigraph/jobmon/internal/config"
	"github.com/lexigraph/jobmon/internal/simulator"
	"github.com/lexigraph/jobmon/internal/websocket"
)

var simulateDemo bool

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a local fake ingestion server",
	RunE: func(cmd *cobra.Command, args []string) error {
		hub := websocket.NewHub()
		go hub.Run()

		engine := simulator.NewEngine(hub, time.Duration(cfg.Simulator.ChunkDuration)*time.Millisecond)
		if simulateDemo {
			log.Printf("Seeded demo job %s (extraction)", engine.StartJob(simulator.KindExtraction, 6, -1))
			log.Printf("Seeded demo job %s (ontology, fails at chunk 2)", engine.StartJob(simulator.KindOntology, 4, 2))
		}

		// Pick up simulator config edits without a restart.
		config.Watch(func(fresh *config.Config) {
			engine.SetChunkDuration(time.Duration(fresh.Simulator.ChunkDuration) * time.Millisecond)
			log.Printf("Config reloaded; chunk_duration is now %dms", fresh.Simulator.ChunkDuration)
		})

		server := simulator.NewServer(engine, hub)
		httpServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Simulator.Port),
			Handler: server.Router(),
		}

		go func() {
			log.Printf("Starting simulated ingestion server on %s", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Could not start server: %v", err)
			}
		}()

		<-cmd.Context().Done()
		log.Println("Shutting down simulator...")

		// Allow existing connections to finish.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simulateDemo, "demo", false, "Seed a couple of demo jobs on startup")
}
