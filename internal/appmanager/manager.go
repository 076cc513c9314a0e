package appmanager

import (
	"database/sql"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"QuickBill305/api"
	"QuickBill305/api/auth"
	"QuickBill305/api/fees"
	"QuickBill305/internal/config"
	"QuickBill305/internal/jobs"
	"QuickBill305/internal/logger"
	"QuickBill305/internal/notification"
	"QuickBill305/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	authDB  *sql.DB
	pgxPool *pgxpool.Pool
	notes   = notification.NewNotificationService(0)
	authSvc *auth.AuthService
)

func SetDB(database *sql.DB) {
	authDB = database
}

func SetPgxPool(pool *pgxpool.Pool) {
	pgxPool = pool
}

var serviceConstructors = map[string]func(map[string]interface{}) serviceiface.Service{
	"logger": func(cfg map[string]interface{}) serviceiface.Service {
		return logger.NewLoggerService(cfg)
	},
	"auth": func(cfg map[string]interface{}) serviceiface.Service {
		authSvc = auth.NewAuthService(authDB,
			config.Int(cfg, "max_users", 0),
			config.Duration(cfg, "session_timeout", time.Minute, config.DefaultSessionTimeout),
			config.Duration(cfg, "session_cleaner_period", time.Minute, config.SessionCleanerPeriod),
		)
		return authSvc
	},
	"fees": func(cfg map[string]interface{}) serviceiface.Service {
		return fees.NewFeesService(cfg, pgxPool, notes)
	},
	"sweeper": func(cfg map[string]interface{}) serviceiface.Service {
		return jobs.NewSweeperService(cfg)
	},
	"gateway": func(cfg map[string]interface{}) serviceiface.Service {
		if authSvc == nil {
			return api.NewGatewayService(cfg, nil)
		}
		return api.NewGatewayService(cfg, authSvc)
	},
}

// ------------------- MANAGER -------------------

type AppManager struct {
	services []serviceiface.Service
	mu       sync.Mutex
}

func NewAppManager() *AppManager {
	return &AppManager{
		services: make([]serviceiface.Service, 0),
	}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, service := range am.services {
		logger.L().Info("starting service", zap.String("service", service.Name()))
		if err := service.Start(); err != nil {
			return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
		}
	}
	return nil
}

// StopAll stops services in reverse start order. Every service gets its
// Stop call; the first failure is returned.
func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	var first error
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if err := svc.Stop(); err != nil && first == nil {
			first = fmt.Errorf("failed to stop service %s: %w", svc.Name(), err)
		}
	}
	return first
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}

	// sort by start_order
	sort.SliceStable(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})

	return seq.Services, nil
}

// AutoRegisterServices builds every known service in start order. Unknown
// names are skipped with a warning.
func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) {
	for _, svc := range configs {
		constructor, ok := serviceConstructors[svc.Name]
		if !ok {
			logger.L().Warn("unknown service in services.yaml", zap.String("service", svc.Name))
			continue
		}
		service := constructor(svc.Config)
		am.RegisterService(service)
		switch s := service.(type) {
		case *auth.AuthService:
			auth.SetGlobalAuthService(s)
		case *logger.LoggerService:
			logger.SetGlobalLogger(s)
		}
	}
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}
