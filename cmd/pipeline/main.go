package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"go-jobmarket-pipeline/internal/config"
	"go-jobmarket-pipeline/internal/model"
	"go-jobmarket-pipeline/internal/pipeline"
	"go-jobmarket-pipeline/internal/store"
)

// Runs the pipeline once with the configured sources and prints the report.
// Exit codes: 0 success or empty, 1 fatal pipeline error, 2 setup failure.
func main() {
	env := config.LoadEnv()

	cfgPath, err := env.ResolveConfig()
	if err != nil {
		log.Printf("❌ config: %v", err)
		os.Exit(2)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("❌ config %s: %v", cfgPath, err)
		os.Exit(2)
	}

	var st pipeline.RunStore
	if cfg.Export.DB {
		s, err := store.Open(env.DBPath)
		if err != nil {
			log.Printf("❌ store: %v", err)
			os.Exit(2)
		}
		defer s.Close()
		st = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.New().String()
	if s, ok := st.(*store.Store); ok {
		if err := s.CreateRun(runID, cfg); err != nil {
			log.Printf("❌ store: %v", err)
			os.Exit(2)
		}
	}

	report, runErr := pipeline.Run(ctx, runID, cfg, st)

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))

	if runErr != nil {
		var srcErr *model.SourceReadError
		var cfgErr *model.ConfigurationError
		var insErr *model.InsufficientDataError
		switch {
		case errors.As(runErr, &srcErr):
			log.Printf("❌ Source could not be read: %v", runErr)
		case errors.As(runErr, &cfgErr):
			log.Printf("❌ %v", runErr)
		case errors.As(runErr, &insErr):
			log.Printf("❌ %v (set clustering.reduce_on_insufficient_data or lower clustering.clusters)", runErr)
		default:
			log.Printf("❌ Pipeline failed: %v", runErr)
		}
		// deferred closes do not run after os.Exit
		stop()
		if s, ok := st.(*store.Store); ok {
			s.Close()
		}
		os.Exit(1)
	}
}
