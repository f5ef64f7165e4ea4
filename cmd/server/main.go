package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eoha39/clicker-webapp/internal/config"
	"github.com/Eoha39/clicker-webapp/internal/serverapp"
)

func main() {
	cfgPath := flag.String("config", "clicker_config.yml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config %s not found, using defaults", *cfgPath)
		cfg = config.Default()
	case err != nil:
		log.Fatalf("load config: %v", err)
	}
	config.ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := serverapp.New(serverapp.Options{
		Config:        cfg,
		UseDiskStatic: cfg.Server.DevStatic,
		Logger:        log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan error, 1)
	go func() { loopDone <- app.Run(ctx) }()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on http://localhost%s (store=%s data=%s)", cfg.Server.Addr, cfg.Storage.Backend, cfg.Storage.DataDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-loopDone
		log.Fatalf("listen: %v", err)
	}

	if err := <-loopDone; err != nil {
		log.Printf("final save: %v", err)
	}
	log.Printf("shut down")
}
