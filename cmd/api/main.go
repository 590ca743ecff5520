package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/medreport-ai/internal/application"
	appocr "github.com/bryanwahyu/medreport-ai/internal/application/ocr"
	appreport "github.com/bryanwahyu/medreport-ai/internal/application/report"
	appsession "github.com/bryanwahyu/medreport-ai/internal/application/session"
	"github.com/bryanwahyu/medreport-ai/internal/config"
	domai "github.com/bryanwahyu/medreport-ai/internal/domain/ai"
	"github.com/bryanwahyu/medreport-ai/internal/domain/analysis"
	"github.com/bryanwahyu/medreport-ai/internal/domain/stageerrors"
	aiopenai "github.com/bryanwahyu/medreport-ai/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/medreport-ai/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/medreport-ai/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/medreport-ai/internal/infra/db/sqlite"
	"github.com/bryanwahyu/medreport-ai/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/medreport-ai/internal/infra/storage"
	"github.com/bryanwahyu/medreport-ai/internal/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Error("config load error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, repo, stageRepo, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("database connect error", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	checkers := map[string]middleware.HealthChecker{
		"database": middleware.PingChecker(db),
	}

	// minio is optional; without it images are analysed but not kept
	var images analysis.ImageStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Error("minio init error", "error", err)
			os.Exit(1)
		}
		images = store
		checkers["storage"] = store
	}

	// without an API key every remote stage falls back locally
	var completer domai.Completer
	var vision domai.Transcriber
	if cfg.AI.APIKey != "" {
		client := aiopenai.NewClient(aiopenai.Config{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.Model,
			VisionModel: cfg.AI.VisionModel,
			Temperature: cfg.AI.Temperature,
			TopP:        cfg.AI.TopP,
			Timeout:     cfg.AI.Timeout,
		})
		completer, vision = client, client
	} else {
		logger.Warn("no AI API key configured, running on local heuristics only")
	}

	analyzer := appreport.NewAnalyzer(completer,
		appreport.WithLogger(logger),
		appreport.WithMaxChars(cfg.Limits.MaxReportChars),
	)
	sessions := appsession.NewStore(
		appsession.WithTTL(cfg.Limits.SessionTTL),
		appsession.WithCapacity(cfg.Limits.MaxSessions),
	)
	svc := &appsession.Service{
		Pipeline: analyzer,
		OCR:      appocr.NewService(vision, completer, logger),
		Repo:     repo,
		Errors:   stageRepo,
		Images:   images,
		Store:    sessions,
		Clock:    application.SystemClock{},
		Logger:   logger,
		MaxChars: cfg.Limits.MaxReportChars,
	}

	probes := middleware.NewProbes(checkers)
	limiter := middleware.NewLimiter(cfg.Limits.RateCapacity, cfg.Limits.RateRefill)
	defer limiter.Close()

	handler := httpserver.NewRouter(svc, httpserver.Options{
		Logger:         logger,
		Probes:         probes,
		Limiter:        limiter,
		APIKeys:        cfg.Auth.APIKeys,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxReportChars: cfg.Limits.MaxReportChars,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "database", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")
	probes.Drain()

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// openStore connects the configured history database.
func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, analysis.Repository, stageerrors.Repository, error) {
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Database.Migrate {
			if err := mysqlp.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, nil, err
			}
		}
		return db, mysqlp.NewAnalysisRepository(db), mysqlp.NewStageErrorRepository(db), nil
	case config.DriverPostgres:
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Database.Migrate {
			if err := postgresp.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, nil, err
			}
		}
		return db, postgresp.NewAnalysisRepository(db), postgresp.NewStageErrorRepository(db), nil
	default:
		db, err := sqlitep.Connect(ctx, cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, sqlitep.NewAnalysisRepository(db), sqlitep.NewStageErrorRepository(db), nil
	}
}
