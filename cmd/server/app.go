package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/astropet-api/internal/assistant"
	"github.com/phrazzld/astropet-api/internal/config"
	"github.com/phrazzld/astropet-api/internal/platform/gemini"
	"github.com/phrazzld/astropet-api/internal/platform/logger"
	"github.com/phrazzld/astropet-api/internal/platform/postgres"
	"github.com/phrazzld/astropet-api/internal/platform/sqlitecache"
	"github.com/phrazzld/astropet-api/internal/service/auth"
	"github.com/phrazzld/astropet-api/internal/session"
	"github.com/phrazzld/astropet-api/internal/task"
)

// taskQueueSize bounds the number of profile pushes waiting for a worker.
const taskQueueSize = 100

// application holds the long-lived dependencies of the server.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	db         *sql.DB
	cache      *sqlitecache.Cache
	sessions   *session.Manager
	jwtService auth.JWTService
	relay      assistant.Relay
	taskQueue  *task.TaskQueue
	workerPool *task.WorkerPool
}

// initializeApp loads configuration and assembles the application graph:
// logger, stores, migrations, session manager, auth, and the push workers.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgres.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cache, err := sqlitecache.Open(cfg.Cache.Path, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	profileStore := postgres.NewProfileStore(db, appLogger)

	taskQueue := task.NewTaskQueue(taskQueueSize, appLogger)
	workerPool := task.NewWorkerPool(taskQueue, task.DefaultWorkerPoolConfig(), appLogger)
	workerPool.Start()

	sessions, err := session.NewManager(cache, profileStore, taskQueue, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to build session manager: %w", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to build JWT service: %w", err)
	}

	// The assistant is optional; the endpoint reports unavailability when no
	// API key is configured.
	var relay assistant.Relay
	if cfg.LLM.GeminiAPIKey != "" {
		geminiRelay, err := gemini.NewRelay(ctx, appLogger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to build assistant relay: %w", err)
		}
		relay = geminiRelay
	} else {
		appLogger.Warn("no Gemini API key configured, assistant endpoint disabled")
	}

	return &application{
		config:     cfg,
		logger:     appLogger,
		db:         db,
		cache:      cache,
		sessions:   sessions,
		jwtService: jwtService,
		relay:      relay,
		taskQueue:  taskQueue,
		workerPool: workerPool,
	}, nil
}

// cleanup releases the application's resources in dependency order: sessions
// stop enqueueing, the queue drains into the pool, then storage closes.
func (app *application) cleanup() {
	app.sessions.Shutdown()
	app.taskQueue.Close()
	app.workerPool.Wait()

	if err := app.cache.Close(); err != nil {
		app.logger.Error("failed to close local cache", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
}
