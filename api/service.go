package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"QuickBill305/internal/config"
	"QuickBill305/internal/logger"
	"QuickBill305/internal/serviceiface"

	"go.uber.org/zap"
)

type GatewayService struct {
	config map[string]interface{}
	auth   Authenticator
	server *http.Server
}

func NewGatewayService(cfg map[string]interface{}, auth Authenticator) serviceiface.Service {
	return &GatewayService{config: cfg, auth: auth}
}

func (s *GatewayService) Name() string {
	return "gateway"
}

func (s *GatewayService) Start() error {
	feesURL := config.String(s.config, "fees_url", fmt.Sprintf("http://localhost:%d", config.DefaultFeesPort))
	router, err := NewRouter(s.auth, feesURL)
	if err != nil {
		return err
	}
	port := config.Int(s.config, "port", config.DefaultGatewayPort)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	go func() {
		logger.L().Info("API gateway started", zap.Int("port", port), zap.String("fees_url", feesURL))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Error("gateway server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *GatewayService) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
