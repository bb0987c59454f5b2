// pdfsqueezed is the HTTP service entry point.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdfsqueeze/api"
	"pdfsqueeze/observability"
	"pdfsqueeze/ocr"
	"pdfsqueeze/ocr/tesseract"
)

func main() {
	cfg := api.ConfigFromEnv()

	var log observability.Logger
	if cfg.LogJSON {
		log = observability.NewJSONLogger(cfg.LogLevel)
	} else {
		log = observability.NewLogger(cfg.LogLevel)
	}

	history, err := api.OpenHistory(cfg.DBPath)
	if err != nil {
		log.Error("history store unavailable, continuing without it",
			observability.F("path", cfg.DBPath),
			observability.F("error", err.Error()))
		history = nil
	}

	var engine ocr.Engine = tesseract.New()
	server := api.NewServer(cfg, log, history, engine)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", observability.F("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", observability.F("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", observability.F("error", err.Error()))
		os.Exit(1)
	}
}
