package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appanalysis "github.com/inancsarica/boom-guru/internal/application/analysis"
	"github.com/inancsarica/boom-guru/internal/config"
	domain "github.com/inancsarica/boom-guru/internal/domain/analysis"
	aiopenai "github.com/inancsarica/boom-guru/internal/infra/ai/openai"
	"github.com/inancsarica/boom-guru/internal/infra/ai/prompt"
	"github.com/inancsarica/boom-guru/internal/infra/callback"
	mysqlp "github.com/inancsarica/boom-guru/internal/infra/db/mysql"
	postgresp "github.com/inancsarica/boom-guru/internal/infra/db/postgres"
	"github.com/inancsarica/boom-guru/internal/infra/httpserver"
	"github.com/inancsarica/boom-guru/internal/infra/imagefetch"
	"github.com/inancsarica/boom-guru/internal/infra/refdata"
	minioStore "github.com/inancsarica/boom-guru/internal/infra/storage"
	"github.com/inancsarica/boom-guru/internal/middleware"
	"github.com/inancsarica/boom-guru/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if err := config.InitLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer zap.L().Sync() //nolint:errcheck

	ctx := context.Background()

	// prompts and reference tables are loaded once and shared read-only
	prompts, err := prompt.Load(cfg.Pipeline.PromptsDir)
	if err != nil {
		zap.L().Fatal("prompt load error", zap.Error(err))
	}
	tables, err := refdata.LoadDir(cfg.Pipeline.FilesDir)
	if err != nil {
		zap.L().Fatal("reference data load error", zap.Error(err))
	}

	// persistence is best-effort and optional
	var repo domain.Repository
	var db *sql.DB
	checkers := map[string]middleware.HealthChecker{}
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			zap.L().Fatal("mysql connect error", zap.Error(err))
		}
		repo = mysqlp.NewAnalysisRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			zap.L().Fatal("postgres connect error", zap.Error(err))
		}
		repo = postgresp.NewAnalysisRepository(db)
	case "":
		zap.L().Warn("no database configured, analysis records will not be persisted")
	default:
		zap.L().Fatal("unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// image archive is optional
	var archive domain.ImageArchive
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			zap.L().Fatal("minio init error", zap.Error(err))
		}
		archive = store
	}

	svc := &appanalysis.Service{
		Chat: aiopenai.NewAzureClient(
			cfg.Azure.APIKey,
			cfg.Azure.Endpoint,
			cfg.Azure.Deployment,
			cfg.Azure.APIVersion,
			cfg.Azure.Model,
		),
		Prompts:  prompts,
		Codes:    tables,
		Repo:     repo,
		Notifier: callback.New(cfg.Callback.APIKey, time.Duration(cfg.Callback.TimeoutSecs)*time.Second, cfg.Callback.InsecureSkipVerify),
		Fetcher:  imagefetch.New(time.Duration(cfg.Pipeline.FetchTimeoutSecs) * time.Second),
		Archive:  archive,
		Attempts: cfg.Pipeline.Attempts,
	}

	pool := worker.NewPool(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpserver.NewRouter(svc, pool, repo, checkers),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zap.L().Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	zap.L().Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		zap.L().Error("shutdown error", zap.Error(err))
	}

	// in-flight sessions run to completion; they still owe their callbacks
	pool.Stop()
}
