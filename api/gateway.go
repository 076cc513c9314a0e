package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"QuickBill305/api/auth"
	"QuickBill305/api/constants"
	"QuickBill305/internal/logger"
	"QuickBill305/internal/validation"

	"go.uber.org/zap"
)

// Authenticator is the part of auth.AuthService the gateway needs.
type Authenticator interface {
	Login(ctx context.Context, email, password, clientIP string) (*auth.UserSession, error)
	Logout(sessionID string) error
}

type loginResponse struct {
	Success bool `json:"success"`
	*auth.UserSession
}

// LoginHandler handles POST /auth/login
func LoginHandler(svc Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSONShort)
			return
		}
		if svc == nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrAuthUnavailable)
			return
		}
		email := strings.TrimSpace(req.Email)
		if email == "" {
			email = strings.TrimSpace(req.Username)
		}

		s, err := svc.Login(r.Context(), email, req.Password, ClientIP(r))
		switch {
		case err == nil:
			RespondWithJSON(w, http.StatusOK, loginResponse{Success: true, UserSession: s})
		case errors.Is(err, auth.ErrInvalidCredentials):
			RespondWithError(w, http.StatusUnauthorized, constants.ErrLoginFailed)
		case errors.Is(err, auth.ErrUserDisabled):
			RespondWithError(w, http.StatusForbidden, constants.ErrUserDisabled)
		case errors.Is(err, auth.ErrTooManyUsers):
			RespondWithError(w, http.StatusServiceUnavailable, err.Error())
		default:
			logger.L().Error("login failed", zap.String("email", email), zap.Error(err))
			RespondWithError(w, http.StatusInternalServerError, constants.ErrAuthUnavailable)
		}
	}
}

// LogoutHandler handles POST /auth/logout. The session id comes from the
// X-Session-ID header or a JSON body.
func LogoutHandler(svc Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get(validation.SessionHeader))
		if sessionID == "" {
			var req struct {
				SessionID string `json:"session_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSONShort)
				return
			}
			sessionID = strings.TrimSpace(req.SessionID)
		}
		if svc == nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrAuthUnavailable)
			return
		}
		if err := svc.Logout(sessionID); err != nil {
			RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": constants.MsgLogoutSuccessful,
		})
	}
}

// createReverseProxy forwards to target and audits every proxied call.
func createReverseProxy(target *url.URL) http.HandlerFunc {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.L().Error("proxy error", zap.String("target", target.String()), zap.String("path", r.URL.Path), zap.Error(err))
		RespondWithError(w, http.StatusBadGateway, "Service unavailable")
	}

	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIP(r)
		logger.GlobalLogger.LogAudit("gateway request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("client_ip", clientIP),
			zap.Bool("has_session", r.Header.Get(validation.SessionHeader) != ""),
		)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		proxy.ServeHTTP(rw, r)

		fields := []zap.Field{
			zap.String("target", target.String()),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.statusCode),
		}
		if rw.statusCode >= 400 {
			fields = append(fields, zap.String("error", rw.body.String()))
		}
		logger.GlobalLogger.LogAudit("gateway proxied", fields...)
	}
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("API Gateway is healthy"))
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	logger.GlobalLogger.LogAudit("gateway route not found",
		zap.String("path", r.URL.Path), zap.String("client_ip", ClientIP(r)))
	RespondWithError(w, http.StatusNotFound, constants.ErrRouteNotFound)
}
