package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"backoffice-platform/internal/audit"
	"backoffice-platform/internal/auth"
	"backoffice-platform/internal/authz"
	"backoffice-platform/internal/catalog"
	"backoffice-platform/internal/config"
	"backoffice-platform/internal/httpapi"
	"backoffice-platform/internal/invalidation"
	"backoffice-platform/internal/orders"
	"backoffice-platform/internal/sequence"
	"backoffice-platform/internal/users"
	"backoffice-platform/pkg/logger"
	"backoffice-platform/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Audit recorder drains before the process exits so committed mutations
	// do not lose their provenance on shutdown.
	auditRepo := audit.NewPostgresRepo(db)
	recorder := audit.NewRecorder(auditRepo, log, cfg.Audit.QueueSize)
	defer recorder.Close()

	perms := authz.NewService(authz.NewPostgresStore(db), cfg.Authz.CacheTTL)
	inval := invalidation.NewRedisInvalidator(rdb, log)
	allocator := sequence.NewAllocator(
		sequence.NewPostgresCounterStore(db),
		sequence.NewPostgresPatternStore(db),
	)

	newID := func() string { return uuid.NewString() }
	userStore := users.NewPostgresStore(db)

	h := httpapi.Handlers{
		Auth:      authManager,
		Catalog:   catalog.NewService(catalog.NewPostgresStore(db), recorder, inval, newID),
		Orders:    orders.NewService(orders.NewPostgresStore(db), allocator, recorder, inval, newID),
		Users:     users.NewService(userStore, perms, recorder, inval, newID),
		AuditRepo: auditRepo,
		Janitor:   audit.NewJanitor(auditRepo, log),
		Sequences: allocator,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, db, authManager, perms)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
