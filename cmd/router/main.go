package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finbridge/tradedocs/internal/bootstrap"
	"github.com/finbridge/tradedocs/internal/config"
	"github.com/finbridge/tradedocs/internal/core/domain"
)

const serviceName = "file-router"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	log.Printf("router subscribed to %s", cfg.IncomingSubject)
	err = app.Queue.SubscribeFileEvents(ctx, cfg.IncomingSubject, func(handlerCtx context.Context, event domain.FileEvent) error {
		routeCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		route, err := app.RouteUC.Route(routeCtx, event)
		if err != nil {
			// Unroutable files are logged and dropped, not redelivered.
			app.Logger.Warn("file_not_routed", "bucket", event.Bucket, "key", event.Key, "error", err)
			return nil
		}
		app.Logger.Info("file_routed", "bucket", event.Bucket, "key", event.Key, "route", route)
		return nil
	})
	if err != nil {
		log.Fatalf("router subscribe error: %v", err)
	}
}
