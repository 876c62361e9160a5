package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zombar/slopscore/internal/analyzer"
	"github.com/zombar/slopscore/internal/api"
	"github.com/zombar/slopscore/internal/config"
	"github.com/zombar/slopscore/internal/database"
	"github.com/zombar/slopscore/internal/metrics"
	"github.com/zombar/slopscore/internal/ollama"
	"github.com/zombar/slopscore/internal/postag"
	"github.com/zombar/slopscore/internal/queue"
	"github.com/zombar/slopscore/pkg/logging"
	"github.com/zombar/slopscore/pkg/tracing"
)

const serviceName = "slopscore"

// serverMetrics groups the collectors the server registers
type serverMetrics struct {
	business *metrics.BusinessMetrics
	http     *metrics.HTTPMetrics
	db       *metrics.DatabaseMetrics
}

func newServerMetrics(reg prometheus.Registerer) serverMetrics {
	return serverMetrics{
		business: metrics.NewBusinessMetrics(reg),
		http:     metrics.NewHTTPMetrics(reg),
		db:       metrics.NewDatabaseMetrics(reg),
	}
}

func main() {
	var (
		configPath  = flag.String("config", os.Getenv("SLOPSCORE_CONFIG"), "YAML config file (env: SLOPSCORE_CONFIG)")
		port        = flag.String("port", "", "Server port (env: PORT)")
		dbPath      = flag.String("db", "", "Database file path (env: DB_PATH)")
		dataDir     = flag.String("data-dir", "", "Directory holding the frequency pack, baseline and lexicon files (env: DATA_DIR)")
		redisAddr   = flag.String("redis-addr", "", "Redis address for queued analysis; empty disables the queue (env: REDIS_ADDR)")
		ollamaURL   = flag.String("ollama-url", "", "Ollama API URL (env: OLLAMA_URL)")
		ollamaModel = flag.String("ollama-model", "", "Ollama model used for part-of-speech tagging (env: OLLAMA_MODEL)")
		useOllama   = flag.Bool("use-ollama", false, "Enable the Ollama part-of-speech tagger (env: USE_OLLAMA)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags given explicitly win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "db":
			cfg.Database.Path = *dbPath
		case "data-dir":
			cfg.Data.Dir = *dataDir
		case "redis-addr":
			cfg.Redis.Addr = *redisAddr
		case "ollama-url":
			cfg.Ollama.URL = *ollamaURL
		case "ollama-model":
			cfg.Ollama.Model = *ollamaModel
		case "use-ollama":
			cfg.Ollama.Enabled = *useOllama
		}
	})

	logger, err := logging.New(os.Stdout, cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	logger.Info("slopscore service initializing", "version", "1.0.0")

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize tracing
	tp, err := tracing.InitTracer(ctx, serviceName)
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	opts, err := cfg.AnalyzerOptions()
	if err != nil {
		logger.Error("invalid analysis options", "error", err)
		os.Exit(1)
	}

	// The tagger only enables the second contrast stage; analysis runs without it
	var tagger postag.Tagger
	if cfg.Ollama.Enabled {
		client, err := ollama.New(cfg.Ollama.URL, cfg.Ollama.Model,
			ollama.WithTimeout(cfg.GetOllamaTimeout()),
			ollama.WithChunkSize(cfg.Ollama.ChunkSize),
			ollama.WithLogger(logger),
		)
		if err != nil {
			logger.Warn("failed to initialize Ollama client, continuing without part-of-speech tagging",
				"error", err,
				"ollama_url", cfg.Ollama.URL,
				"ollama_model", cfg.Ollama.Model,
			)
		} else {
			logger.Info("Ollama tagger initialized", "model", cfg.Ollama.Model, "url", cfg.Ollama.URL)
			tagger = client
		}
	} else {
		logger.Info("Ollama disabled, contrast detection uses surface patterns only")
	}

	// Data files are required; a broken pack stops startup
	paths := cfg.ResolvedPaths()
	resources, err := analyzer.LoadResources(ctx, analyzer.Config{
		Paths:   paths,
		Options: opts,
		Tagger:  tagger,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to load analysis resources", "error", err,
			"word_freq", paths.WordFreq,
			"baseline", paths.Baseline,
			"slop_words", paths.SlopWords,
			"slop_trigrams", paths.SlopTrigrams,
		)
		os.Exit(1)
	}
	engine := analyzer.New(resources, analyzer.WithLogger(logger))
	logger.Info("analysis resources loaded",
		"frequency_words", resources.WordFreq.Len(),
		"lexicon_words", resources.Lexicon.WordCount(),
		"lexicon_trigrams", resources.Lexicon.TrigramCount(),
	)

	// Initialize database
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to initialize database", "error", err, "database_path", cfg.Database.Path)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	m := newServerMetrics(prometheus.DefaultRegisterer)
	go m.db.Run(ctx, db.Conn(), 15*time.Second)
	logger.Info("database metrics initialized")

	handlerCfg := api.Config{
		DB:             db,
		Engine:         engine,
		Paths:          paths,
		Metrics:        m.business,
		MetricsHandler: promhttp.Handler(),
		Logger:         logger,
	}

	var worker *queue.Worker
	if cfg.QueueEnabled() {
		queueClient := queue.NewClient(queue.ClientConfig{RedisAddr: cfg.Redis.Addr})
		defer queueClient.Close()
		handlerCfg.Queue = queueClient

		worker = queue.NewWorker(queue.WorkerConfig{
			RedisAddr:   cfg.Redis.Addr,
			Concurrency: cfg.Redis.Concurrency,
			Logger:      logger,
			Metrics:     m.business,
		}, db, engine)

		go func() {
			if err := worker.Start(); err != nil {
				logger.Error("queue worker stopped", "error", err)
			}
		}()
	} else {
		logger.Info("no Redis address configured, queued analysis disabled")
	}

	// Middleware chain: tracing -> request logging -> metrics -> handlers
	handler := tracing.HTTPMiddleware(serviceName)(
		logging.HTTPLoggingMiddleware(logger)(
			m.http.Middleware(api.NewHandler(handlerCfg)),
		),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("slopscore service starting",
			"port", cfg.Server.Port,
			"database", cfg.Database.Path,
			"queue_enabled", cfg.QueueEnabled(),
			"ollama_enabled", tagger != nil,
			"pos_target", opts.POSTarget.String(),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// SIGHUP reloads the data files; SIGINT and SIGTERM shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range quit {
		if sig != syscall.SIGHUP {
			break
		}
		err := engine.Reload(ctx, paths)
		m.business.RecordReload(err)
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	stop()

	logger.Info("server stopped")
}
