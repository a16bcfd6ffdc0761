package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finbridge/tradedocs/internal/bootstrap"
	"github.com/finbridge/tradedocs/internal/config"
	"github.com/finbridge/tradedocs/internal/core/domain"
	"github.com/finbridge/tradedocs/internal/observability/metrics"
)

const serviceName = "vision-worker"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	log.Printf("worker subscribed to %s", cfg.VisionSubject)
	err = app.Queue.SubscribeFileEvents(ctx, cfg.VisionSubject, func(handlerCtx context.Context, event domain.FileEvent) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if !event.QueuedAt.IsZero() {
			workerMetrics.ObserveQueueLag(time.Since(event.QueuedAt))
		}

		workerMetrics.StartDocument()
		started := time.Now()
		rec, err := app.ProcessUC.Process(processCtx, event)
		workerMetrics.FinishDocument(serviceName, time.Since(started), rec, err)
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
