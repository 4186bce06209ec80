package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tributes/internal/board"
	"tributes/internal/config"
	httpx "tributes/internal/http"
	"tributes/internal/identity"
	"tributes/internal/jobs"
	"tributes/internal/kv"
	"tributes/internal/metrics"
	"tributes/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()

	slots, err := kv.Open(cfg.DataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer slots.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	backend, err := repository.Open(cfg, slots, identity.Request{}, m)
	if err != nil {
		log.Fatal(err)
	}

	b := board.New(backend.Repo, cfg.TenureDays)
	if err := b.Load(context.Background()); err != nil {
		log.Printf("initial load failed: %v", err)
	}

	if cfg.DevSecret() {
		log.Printf("TRIBUTES_IDENTITY_SECRET not set; identity cookies use the development key and can be forged")
	}
	tokens := identity.NewTokens(cfg.IdentitySecret)
	r := httpx.NewRouter(cfg, backend.Repo, b, tokens, reg)

	ctx, cancel := context.WithCancel(context.Background())

	// purge worker only runs when there is a queue and a bucket to purge
	if backend.DB != nil && backend.Blobs != nil {
		worker := &jobs.Worker{ID: "worker-1", Queue: &jobs.Repo{DB: backend.DB}, Purger: backend.Blobs}
		go worker.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (%s mode)\n", cfg.HTTPAddr, backend.Repo.Mode())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
