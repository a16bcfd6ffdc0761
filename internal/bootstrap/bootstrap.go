package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/finbridge/tradedocs/internal/config"
	"github.com/finbridge/tradedocs/internal/core/audit"
	"github.com/finbridge/tradedocs/internal/core/costing"
	"github.com/finbridge/tradedocs/internal/core/domain"
	"github.com/finbridge/tradedocs/internal/core/ports"
	"github.com/finbridge/tradedocs/internal/core/usecase"
	"github.com/finbridge/tradedocs/internal/infrastructure/cache/redis"
	"github.com/finbridge/tradedocs/internal/infrastructure/llm/bedrock"
	"github.com/finbridge/tradedocs/internal/infrastructure/queue/nats"
	"github.com/finbridge/tradedocs/internal/infrastructure/repository/postgres"
	"github.com/finbridge/tradedocs/internal/infrastructure/resilience"
	s3storage "github.com/finbridge/tradedocs/internal/infrastructure/storage/s3"
	"github.com/finbridge/tradedocs/internal/observability/logging"
	"github.com/finbridge/tradedocs/internal/prompts"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     *nats.Queue
	ProcessUC ports.DocumentProcessor
	RouteUC   ports.FileRouter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	results := postgres.NewResultRepository(db)
	auditSink := postgres.NewAuditRepository(db)
	emitter := audit.NewEmitter(auditSink, logger)

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, nats.Options{ResilienceExecutor: executor})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	storage := s3storage.New(awss3.NewFromConfig(awsCfg))
	invoker := bedrock.New(bedrockruntime.NewFromConfig(awsCfg), bedrock.Config{
		Models: map[domain.ModelTier]bedrock.ModelSettings{
			domain.TierCheap: {
				ModelID:     cfg.CheapModelID,
				MaxTokens:   int32(cfg.CheapMaxTokens),
				Temperature: float32(cfg.ModelTemperature),
			},
			domain.TierExpensive: {
				ModelID:     cfg.ExpensiveModelID,
				MaxTokens:   int32(cfg.ExpensiveMaxTokens),
				Temperature: float32(cfg.ModelTemperature),
			},
		},
		RequestsPerSecond: cfg.InferenceRPS,
	})

	var cache ports.DedupCache
	var dedup *redis.Cache
	if cfg.DedupEnabled {
		dedup = redis.New(redis.Options{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.DedupTTL,
		})
		cache = dedup
	}

	classifier := usecase.NewClassifyDocumentUseCase(invoker, usecase.ClassificationConfig{
		Threshold: cfg.ClassificationThreshold,
		Prompt:    prompts.Classifier,
	}, emitter, logger)

	extractor := usecase.NewExtractFieldsUseCase(invoker, usecase.ExtractionConfig{
		Prompts:        prompts.ExtractionCatalog(),
		FallbackPrompt: prompts.Generic,
		AttemptPause:   cfg.ExtractionPause,
	}, emitter, logger)

	estimator := costing.NewEstimator(costing.DefaultPrices(), costing.DefaultAssumptions())

	processUC := usecase.NewProcessDocumentUseCase(
		storage, classifier, extractor, estimator, results, cache, emitter, logger,
	)
	routeUC := usecase.NewRouteFileUseCase(queue, usecase.RoutingConfig{
		VisionSubject:       cfg.VisionSubject,
		DocReaderSubject:    cfg.DocReaderSubject,
		PDFConverterSubject: cfg.PDFConverterSubject,
	}, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Queue:     queue,
		ProcessUC: processUC,
		RouteUC:   routeUC,

		closeFn: func() {
			queue.Close()
			if dedup != nil {
				_ = dedup.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
