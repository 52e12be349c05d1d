package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"staffeval/internal/domain/actionplan"
	"staffeval/internal/domain/audit"
	"staffeval/internal/domain/backup"
	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/records"
	"staffeval/internal/domain/reports"
	"staffeval/internal/domain/session"
	"staffeval/internal/domain/unlock"
	"staffeval/internal/platform/config"
	"staffeval/internal/platform/crypto"
	"staffeval/internal/platform/db"
	"staffeval/internal/platform/db/migrations"
	"staffeval/internal/platform/jobs"
	"staffeval/internal/platform/kv"
	"staffeval/internal/platform/metrics"
	actionplanhandler "staffeval/internal/transport/http/handlers/actionplan"
	audithandler "staffeval/internal/transport/http/handlers/audit"
	backuphandler "staffeval/internal/transport/http/handlers/backup"
	jobshandler "staffeval/internal/transport/http/handlers/jobs"
	sessionhandler "staffeval/internal/transport/http/handlers/session"
	staffhandler "staffeval/internal/transport/http/handlers/staff"
	"staffeval/internal/transport/http/middleware"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config  config.Config
	Router  http.Handler
	Session *session.Session
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	store kv.Store
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tmpl, err := loadTemplate(cfg.TemplatePath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	gate, err := unlock.NewGate(cfg.UnlockCode, cfg.UnlockCodeHash)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("unlock gate: %w", err)
	}
	sealer, err := crypto.New(cfg.BackupEncryptionKey)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}
	jobsSvc := jobs.New()
	recordsSvc := records.NewService(store, tmpl)
	printer := &jobPrinter{
		jobs:    jobsSvc,
		reports: reports.NewService(cfg.PrintOutputDir, reports.NewRenderer(cfg.PrintFontPath)),
	}
	sess := session.New(recordsSvc, session.Options{
		AutosaveDelay: cfg.AutosaveDelay,
		PrintDelay:    cfg.PrintDelay,
		Printer:       printer,
		Gate:          gate,
		Metrics:       collector,
	})
	backupSvc := backup.NewService(recordsSvc, sealer, cfg.BackupDir)
	if cfg.BackupSchedule != "" {
		err := jobsSvc.Schedule(cfg.BackupSchedule, jobs.JobBackup, func(ctx context.Context) (any, error) {
			path, err := backupSvc.WriteFile(ctx)
			if err != nil {
				return nil, err
			}
			slog.Info("backup written", "path", path)
			return map[string]string{"path": path}, nil
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, _, err := store.Get(ctx, records.IndexKey); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if collector != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			writeMetrics(w, r, collector)
		})
	}

	auditSvc := audit.New(store)
	router.Route("/api/v1", func(r chi.Router) {
		staffhandler.NewHandler(recordsSvc, sess, auditSvc).RegisterRoutes(r)
		sessionhandler.NewHandler(sess, recordsSvc, auditSvc, cfg.UnlockAttempts).RegisterRoutes(r)
		backuphandler.NewHandler(backupSvc, recordsSvc, sess, jobsSvc, auditSvc).RegisterRoutes(r)
		actionplanhandler.NewHandler(actionplan.NewService(store), auditSvc).RegisterRoutes(r)
		jobshandler.NewHandler(jobsSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{
		Config:  cfg,
		Router:  router,
		Session: sess,
		Jobs:    jobsSvc,
		Metrics: collector,
		store:   store,
	}, nil
}

// Close saves pending edits and releases the store.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	flushErr := a.Session.Close(ctx)
	if flushErr != nil {
		slog.Warn("final save failed", "err", flushErr)
	}
	return errors.Join(flushErr, a.store.Close())
}

// Run serves until ctx is canceled, then drains requests and closes the app.
func Run(ctx context.Context, cfg config.Config) error {
	setupLogging(cfg.Environment)

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("app close failed", "err", err)
		}
	}()
	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("staff evaluation server listening", "addr", cfg.Addr, "storage", cfg.StorageDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func setupLogging(environment string) {
	var handler slog.Handler
	if environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}

func openStore(ctx context.Context, cfg config.Config) (kv.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, migrations.Postgres, "postgres"); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return kv.NewPostgres(pool), nil
	default:
		store, err := kv.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, nil
	}
}

func loadTemplate(path string) (*evaluation.Template, error) {
	if path == "" {
		return evaluation.DefaultTemplate()
	}
	tmpl, err := evaluation.LoadTemplate(path)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", path, err)
	}
	return tmpl, nil
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
