package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"speedr-backend/internal/analyses"
	"speedr-backend/internal/artifacts"
	"speedr-backend/internal/queue"
	"speedr-backend/internal/shared/config"
	"speedr-backend/internal/shared/server"
	"speedr-backend/internal/shared/storage/db"
	"speedr-backend/internal/shared/storage/object"
	localstore "speedr-backend/internal/shared/storage/object/local"
	s3store "speedr-backend/internal/shared/storage/object/s3"
	"speedr-backend/internal/shared/workerpool"
	"speedr-backend/internal/speedworker"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Worker           *speedworker.Client
	Pool             *workerpool.Pool
	Queue            analyses.DispatchQueue
	ArtifactsService *artifacts.Service
	AnalysesService  *analyses.Service
	ArtifactsHandler *artifacts.Handler
	AnalysisHandler  *analyses.Handler
}

// Build wires repositories, storage, the worker client, the dispatch queue
// and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Queue consumers read requests from the shared database; process-local
	// memory repos would leave them unable to find anything to dispatch.
	if strings.TrimSpace(cfg.SQSQueueURL) != "" && sqlDB == nil {
		return nil, errors.New("SPEEDR_SQS_QUEUE_URL requires DATABASE_URL")
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Worker: speedworker.NewClient(cfg.WorkerBaseURL, cfg.WorkerTimeout),
		Pool:   workerpool.New(cfg.DispatchConcurrency, cfg.DispatchQueueSize),
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		ArtifactsHandler: app.ArtifactsHandler,
		AnalysisHandler:  app.AnalysisHandler,
		WorkerHealth:     app.Worker.Health,
	})

	return app, nil
}

// Close drains in-flight dispatch jobs and releases the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Pool != nil {
		if err := a.Pool.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain dispatch pool: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(ctx context.Context, app *App) error {
	var artifactRepo artifacts.ArtifactsRepo
	var analysisRepo analyses.Repo
	if app.DB != nil {
		artifactRepo = &artifacts.PGRepo{DB: app.DB}
		analysisRepo = &analyses.PGRepo{DB: app.DB}
	} else {
		artifactRepo = artifacts.NewMemoryRepo()
		analysisRepo = analyses.NewMemoryRepo()
	}

	artifactSvc := &artifacts.Service{
		Store: app.Store,
		Repo:  artifactRepo,
	}

	analysisSvc := &analyses.Service{
		Repo:          analysisRepo,
		Artifacts:     artifactResolver{svc: artifactSvc},
		Worker:        workerAdapter{client: app.Worker},
		PublicBaseURL: app.Config.PublicBaseURL,
		SupportsSport: speedworker.Supports,
		Now:           func() time.Time { return time.Now().UTC() },
	}

	dispatchQueue, err := buildQueue(ctx, app.Config, app.Pool, analysisSvc)
	if err != nil {
		return err
	}
	analysisSvc.Queue = dispatchQueue

	app.Queue = dispatchQueue
	app.ArtifactsService = artifactSvc
	app.AnalysesService = analysisSvc
	app.ArtifactsHandler = artifacts.NewHandler(artifactSvc, app.Config.MaxUploadBytes)
	app.AnalysisHandler = analyses.NewHandler(analysisSvc)
	if app.Config.PollMinInterval > 0 {
		app.AnalysisHandler.LimitPolling(app.Config.PollMinInterval, nil)
	}
	return nil
}

// buildQueue picks SQS when a queue URL is configured and the in-process
// pool otherwise.
func buildQueue(ctx context.Context, cfg config.Config, pool *workerpool.Pool, d analyses.Dispatcher) (analyses.DispatchQueue, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return &analyses.PoolQueue{Pool: pool, Dispatcher: d}, nil
	}
	client, err := queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	log.Printf("bootstrap: dispatching through sqs queue %s", cfg.SQSQueueURL)
	return &analyses.BrokerQueue{Publisher: &queue.Producer{Client: client}}, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
