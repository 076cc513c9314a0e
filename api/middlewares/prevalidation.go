package middlewares

import (
	"context"
	"errors"
	"net/http"

	"QuickBill305/api"
	"QuickBill305/api/constants"
	"QuickBill305/internal/logger"
	"QuickBill305/internal/validation"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// UserLoader fetches the user's role and permissions for a request.
type UserLoader func(ctx context.Context, userID string) (*validation.ValidationResult, error)

func PoolUserLoader(pool *pgxpool.Pool) UserLoader {
	return func(ctx context.Context, userID string) (*validation.ValidationResult, error) {
		return validation.PreValidateRequest(ctx, pool, userID)
	}
}

var lookupSession = validation.ValidateSession

// PreValidationMiddleware resolves the caller's session into an
// ActorContext on the request context. Missing or expired sessions get 401.
func PreValidationMiddleware(load UserLoader, maxMemory int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionID, err := validation.ExtractSessionID(r, maxMemory)
			if err != nil {
				var tooBig *http.MaxBytesError
				switch {
				case errors.Is(err, validation.ErrNoSessionID):
					api.RespondWithError(w, http.StatusUnauthorized, constants.ErrPleaseLogin)
				case errors.As(err, &tooBig):
					api.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request is larger than the upload limit")
				default:
					api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
				}
				return
			}

			sess, ok := lookupSession(sessionID)
			if !ok {
				api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
				return
			}

			res, err := load(ctx, sess.UserID)
			if err != nil {
				if errors.Is(err, validation.ErrUserNotFound) {
					api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
					return
				}
				logger.L().Error("prevalidation failed", zap.String("user_id", sess.UserID), zap.Error(err))
				api.RespondWithError(w, http.StatusInternalServerError, "Validation failed")
				return
			}

			if applyAdminOverride(res) {
				logger.GlobalLogger.LogAudit("admin override applied",
					zap.String("user_id", res.UserID), zap.String("role", res.Role))
			}

			actor, err := validation.ActorFromResult(res)
			if err != nil {
				api.RespondWithError(w, http.StatusForbidden, constants.ErrUserDisabled)
				return
			}

			ctx = api.WithSession(ctx, sess)
			ctx = api.WithActor(ctx, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
