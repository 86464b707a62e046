package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsbrief/api"
	"newsbrief/common"
	"newsbrief/config"
	"newsbrief/generator"
	"newsbrief/jobs"
	"newsbrief/orchestrator"
	"newsbrief/rssfeeds"
	"newsbrief/scheduler"
	"newsbrief/shared/kafka"
	"newsbrief/shared/logger"
	"newsbrief/shared/metrics"
	"newsbrief/shared/rss"
	"newsbrief/storage"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server exited with error", logger.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	registry := loadRegistry(cfg, log)

	// Feeds
	var enricher rssfeeds.SnippetEnricher
	if cfg.ExtractSnippets {
		enricher = rssfeeds.NewReadabilityEnricher(log)
	}
	assembler := rssfeeds.NewAssembler(rssfeeds.NewFetcher(registry, cfg.FetchTimeout, log), enricher, log)

	// Model
	client, err := generator.NewClient(generator.ClientConfig{
		Provider:        cfg.ModelProvider,
		Model:           cfg.ModelName,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		CohereAPIKey:    cfg.CohereAPIKey,
	})
	if err != nil {
		log.Warn("Model client unavailable, jobs will fail at generation", logger.Err(err))
	} else if client == nil {
		log.Warn("No model credential configured, jobs will fail at generation",
			logger.String("provider", cfg.ModelProvider))
	}

	gen := generator.New(client, log)
	presence := cfg.Presence()
	presence.ModelReady = gen.Configured()

	// Storage tiers
	store, db, closers := buildStore(ctx, cfg, log, m)
	defer func() {
		for _, c := range closers {
			_ = c()
		}
		if db != nil {
			_ = db.Close()
		}
	}()

	pipeline := orchestrator.NewPipeline(
		orchestrator.Config{Secret: cfg.CronSecret, Location: cfg.Location},
		orchestrator.Deps{
			Sources:   registry,
			Assembler: assembler,
			Generator: gen,
			Store:     store,
			Tracker:   jobs.NewTracker(),
			Logger:    log,
			Metrics:   m,
		},
	).WithBaseContext(ctx)
	if cfg.CronSecret == "" {
		log.Warn("CRON_SECRET not set, on-demand triggers are disabled")
	}

	sched, err := scheduler.New(scheduler.Config{
		Morning:  cfg.MorningCron,
		Evening:  cfg.EveningCron,
		Location: cfg.Location,
	}, pipeline, log)
	if err != nil {
		return err
	}
	sched.Start(ctx)

	var consumer *kafka.Consumer
	if len(cfg.KafkaBrokers) > 0 {
		consumer, err = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTriggerTopic,
			GroupID: cfg.KafkaGroupID,
			Handler: kafka.NewTriggerHandler(pipeline, log),
			Logger:  log,
		})
		if err != nil {
			log.Warn("Kafka trigger consumer disabled", logger.Err(err))
		} else {
			go func() {
				if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn("Kafka consumer failed to start", logger.Err(err))
				}
			}()
		}
	}

	router := api.NewRouter(api.Deps{
		Briefings: store,
		Jobs:      pipeline,
		Presence:  presence,
		Sources:   registry.Names(),
		Started:   time.Now(),
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    log,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting API server",
			logger.String("addr", srv.Addr),
			logger.Strings("sources", registry.Names()),
			logger.Bool("durable", store.HasDurable()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown error", logger.Err(err))
	}
	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Warn("Kafka consumer close error", logger.Err(err))
		}
	}

	waited := make(chan struct{})
	go func() { pipeline.Wait(); close(waited) }()
	select {
	case <-waited:
	case <-shutdownCtx.Done():
		log.Warn("Background job still running at shutdown")
	}
	log.Info("Server stopped")
	return nil
}

func loadRegistry(cfg *config.Config, log logger.Logger) *rss.Registry {
	if cfg.SourcesFile == "" {
		return rss.DefaultRegistry()
	}
	reg, err := rss.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		log.Error("Invalid sources file, using built-in sources",
			logger.String("path", cfg.SourcesFile), logger.Err(err))
		return rss.DefaultRegistry()
	}
	return reg
}

// buildStore connects whichever tiers are configured. Every failure here
// degrades to a smaller store rather than stopping the process.
func buildStore(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Metrics) (*storage.Store, *sqlx.DB, []func() error) {
	opts := []storage.Option{storage.WithMetrics(m)}
	var (
		db       *sqlx.DB
		closers  []func() error
		warmFrom []storage.SnapshotSource
	)

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, running memory-only")
	} else if conn, err := storage.Open(cfg.DatabaseURL); err != nil {
		log.Warn("Invalid DATABASE_URL, running memory-only", logger.Err(err))
	} else {
		if err := storage.Ping(ctx, conn); err != nil {
			log.Warn("Database unreachable at startup, reads fall back to cache until it returns", logger.Err(err))
		}
		db = conn
		opts = append(opts, storage.WithDurable(storage.NewRepository(db, log)))
	}

	if cfg.RedisAddr != "" {
		snap, err := storage.NewSnapshot(storage.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Key:      config.DefaultRedisKey,
		})
		if err != nil {
			log.Warn("Redis snapshot disabled", logger.Err(err))
		} else {
			opts = append(opts, storage.WithReplica(snap))
			warmFrom = append(warmFrom, snap)
			closers = append(closers, snap.Close)
		}
	}

	if cfg.S3Bucket != "" {
		s3c, err := common.NewS3(ctx, common.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			log.Warn("S3 export disabled", logger.Err(err))
		} else {
			log.Info("S3 export enabled", logger.String("bucket", s3c.Bucket()), logger.String("prefix", cfg.S3Prefix))
			export := storage.NewExport(s3c, cfg.S3Prefix)
			opts = append(opts, storage.WithReplica(export))
			warmFrom = append(warmFrom, export)
		}
	}

	store := storage.NewStore(storage.NewCache(), log, opts...)
	if len(warmFrom) > 0 {
		warmCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		store.Warm(warmCtx, warmFrom...)
		cancel()
	}
	return store, db, closers
}
