package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	_ "go-jobmarket-pipeline/docs"
	"go-jobmarket-pipeline/internal/api"
	"go-jobmarket-pipeline/internal/api/handler"
	"go-jobmarket-pipeline/internal/config"
	"go-jobmarket-pipeline/internal/store"
	"go-jobmarket-pipeline/pkg/router"
)

func main() {
	env := config.LoadEnv()

	cfgPath, err := env.ResolveConfig()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("❌ config %s: %v", cfgPath, err)
	}

	// Init DB
	st, err := store.Open(env.DBPath)
	if err != nil {
		log.Fatalf("❌ store: %v", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := handler.NewPipelineHandler(ctx, st, cfg, handler.Options{
		RunTimeout:  env.RunTimeout,
		SubmitRate:  float64(env.SubmitRate) / 60,
		SubmitBurst: env.SubmitBurst,
		DataDir:     env.DataDir,
	})

	// Create router
	r := router.New()

	// Register API routes
	api.RegisterRoutes(r, h)

	log.Printf("📄 Config: %s, database: %s", cfgPath, env.DBPath)
	if err := r.Start(ctx, env.Addr); err != nil {
		log.Printf("❌ server: %v", err)
	}

	// let running pipelines observe the cancellation and record their status
	h.Wait()
}
