package fees

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"QuickBill305/api/middlewares"
	"QuickBill305/internal/config"
	"QuickBill305/internal/feeimport"
	"QuickBill305/internal/feestore"
	"QuickBill305/internal/logger"
	"QuickBill305/internal/notification"
	"QuickBill305/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type FeesService struct {
	config map[string]interface{}
	pool   *pgxpool.Pool
	notes  *notification.NotificationService
	server *http.Server
}

func NewFeesService(cfg map[string]interface{}, pool *pgxpool.Pool, notes *notification.NotificationService) serviceiface.Service {
	if notes == nil {
		notes = notification.NewNotificationService(0)
	}
	return &FeesService{config: cfg, pool: pool, notes: notes}
}

func (s *FeesService) Name() string {
	return "fees"
}

func (s *FeesService) Start() error {
	if s.pool == nil {
		return errors.New("fees: database pool is not configured")
	}
	store := feestore.New(s.pool)
	if config.Bool(s.config, "auto_migrate", false) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("fees: apply schema: %w", err)
		}
	}

	cfg := feeimport.ConfigFromMap(s.config)
	log := logger.L().Named("fees")
	committer := feeimport.NewCommitter(store, feeimport.NewAuditLogger(store, log), s.notes, log)
	h := NewHandler(feeimport.NewPipeline(cfg, log), committer, s.notes, cfg.MaxUploadBytes)
	router := h.Router(middlewares.PreValidationMiddleware(middlewares.PoolUserLoader(s.pool), formMemory))

	port := config.Int(s.config, "port", config.DefaultFeesPort)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       config.Duration(s.config, "read_timeout", time.Second, 2*time.Minute),
		WriteTimeout:      config.Duration(s.config, "write_timeout", time.Second, 2*time.Minute),
		IdleTimeout:       2 * time.Minute,
	}
	go func() {
		log.Info("fees service started", zap.Int("port", port), zap.String("staging_dir", cfg.StagingDir),
			zap.Int("max_rows", cfg.MaxRows), zap.Bool("accept_valid_rows", cfg.AcceptValidRows))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("fees server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *FeesService) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
