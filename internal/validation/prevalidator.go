package validation

import (
	"context"
	"errors"
	"fmt"

	"QuickBill305/internal/feeimport"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user account is disabled")
)

// ValidationResult contains all pre-validated data for a request
type ValidationResult struct {
	UserID      string
	Role        string
	Active      bool
	Permissions []string
}

// PreValidateRequest loads the user and the permissions of their role in one
// query. It runs on every request; permissions are not cached in the session.
func PreValidateRequest(ctx context.Context, db *pgxpool.Pool, userID string) (*ValidationResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		SELECT
			u.id,
			u.role,
			u.is_active,
			COALESCE(array_agg(rp.permission ORDER BY rp.permission) FILTER (WHERE rp.permission IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN role_permissions rp ON rp.role = u.role
		WHERE u.id = $1
		GROUP BY u.id, u.role, u.is_active
	`

	var result ValidationResult
	err := db.QueryRow(ctx, query, userID).Scan(&result.UserID, &result.Role, &result.Active, &result.Permissions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate user: %w", err)
	}
	return &result, nil
}

// ActorFromResult turns a validated user into the ActorContext the import
// stages take.
func ActorFromResult(res *ValidationResult) (feeimport.ActorContext, error) {
	if res == nil {
		return feeimport.ActorContext{}, ErrUserNotFound
	}
	if !res.Active {
		return feeimport.ActorContext{}, ErrUserInactive
	}
	return feeimport.NewActorContext(res.UserID, res.Permissions), nil
}
