package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"QuickBill305/internal/logger"
	"QuickBill305/internal/session"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials or user not found")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrTooManyUsers       = errors.New("maximum concurrent users reached")
	ErrSessionNotFound    = errors.New("session not found")
)

type UserSession struct {
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	LastLoginTime string `json:"last_login_time"`
	ClientIP      string `json:"-"`
	ExpiresAt     string `json:"expires_at"`
}

type userRecord struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
}

type AuthService struct {
	db          *sql.DB
	maxUsers    int
	sessions    *session.Manager
	cleanEvery  time.Duration
	stopCh      chan struct{}
	lookupUser  func(ctx context.Context, email string) (userRecord, error)
	compareHash func(hash, password []byte) error
}

func NewAuthService(db *sql.DB, maxUsers int, sessionTimeout, cleanEvery time.Duration) *AuthService {
	a := &AuthService{
		db:          db,
		maxUsers:    maxUsers,
		sessions:    session.NewManager(sessionTimeout),
		cleanEvery:  cleanEvery,
		stopCh:      make(chan struct{}),
		compareHash: bcrypt.CompareHashAndPassword,
	}
	a.lookupUser = a.queryUser
	return a
}

func (a *AuthService) Name() string { return "auth" }

func (a *AuthService) Start() error {
	go a.sessionCleaner()
	return nil
}

func (a *AuthService) Stop() error {
	close(a.stopCh)
	return nil
}

func (a *AuthService) Login(ctx context.Context, email, password, clientIP string) (*UserSession, error) {
	u, err := a.lookupUser(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.L().Error("user lookup failed", zap.String("email", email), zap.Error(err))
		}
		logger.GlobalLogger.LogAudit("login failed", zap.String("email", email), zap.String("client_ip", clientIP))
		return nil, ErrInvalidCredentials
	}
	if err := a.compareHash([]byte(u.PasswordHash), []byte(password)); err != nil {
		logger.GlobalLogger.LogAudit("login failed", zap.String("email", email), zap.String("client_ip", clientIP))
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrUserDisabled
	}

	if s, ok := a.sessions.FindByUser(u.ID); ok {
		logger.GlobalLogger.LogAudit("user re-logged in, returning existing session", zap.String("user_id", u.ID))
		return toUserSession(s, u.Name), nil
	}
	if a.maxUsers > 0 && a.sessions.Count() >= a.maxUsers {
		return nil, ErrTooManyUsers
	}

	s := a.sessions.CreateSession(u.ID, u.Email, u.Role, clientIP)
	logger.GlobalLogger.LogAudit("user logged in", zap.String("user_id", u.ID), zap.String("client_ip", clientIP))
	return toUserSession(s, u.Name), nil
}

func (a *AuthService) Logout(sessionID string) error {
	s, ok := a.sessions.DeleteSession(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	logger.GlobalLogger.LogAudit("user logged out", zap.String("user_id", s.UserID))
	return nil
}

// Session resolves a live session id.
func (a *AuthService) Session(sessionID string) (session.Session, bool) {
	if sessionID == "" {
		return session.Session{}, false
	}
	return a.sessions.GetSession(sessionID)
}

func (a *AuthService) queryUser(ctx context.Context, email string) (userRecord, error) {
	var u userRecord
	err := a.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, is_active FROM users WHERE lower(email) = lower($1)`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Active)
	return u, err
}

func (a *AuthService) sessionCleaner() {
	if a.cleanEvery <= 0 {
		return
	}
	ticker := time.NewTicker(a.cleanEvery)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			if n := a.sessions.CleanupExpiredSessions(); n > 0 {
				logger.L().Info("expired sessions removed", zap.Int("count", n))
			}
		}
	}
}

func toUserSession(s session.Session, name string) *UserSession {
	return &UserSession{
		SessionID:     s.ID,
		UserID:        s.UserID,
		Name:          name,
		Email:         s.Email,
		Role:          s.Role,
		LastLoginTime: time.Now().Format(time.RFC3339),
		ClientIP:      s.ClientIP,
		ExpiresAt:     s.ExpiresAt.Format(time.RFC3339),
	}
}

var globalAuthService *AuthService

// SetGlobalAuthService sets the global AuthService instance
func SetGlobalAuthService(svc *AuthService) {
	globalAuthService = svc
}

// GetSession resolves a session id through the global AuthService.
func GetSession(sessionID string) (session.Session, bool) {
	if globalAuthService == nil {
		return session.Session{}, false
	}
	return globalAuthService.Session(sessionID)
}

// InitDB opens the auth database from the DB_* environment values.
func InitDB() (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		envOr("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_NAME", "quickbill"),
		envOr("DB_SSLMODE", "disable"),
	)
	return sql.Open("postgres", connStr)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// PostgresURL builds the pgx connection URL from the same DB_* values.
func PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(envOr("DB_USER", "postgres"), os.Getenv("DB_PASSWORD")),
		Host:     envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432"),
		Path:     "/" + envOr("DB_NAME", "quickbill"),
		RawQuery: "sslmode=" + url.QueryEscape(envOr("DB_SSLMODE", "disable")),
	}
	return u.String()
}
