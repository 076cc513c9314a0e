// Package feestore persists imported fee structures and the import audit trail
// in PostgreSQL.
package feestore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"QuickBill305/internal/feeimport"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

var (
	_ feeimport.FeeStore   = (*Store)(nil)
	_ feeimport.AuditStore = (*Store)(nil)
)

// Store implements feeimport.FeeStore and feeimport.AuditStore.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates missing tables. It is safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, rec feeimport.Record) (bool, error) {
	q, err := existsQuery(rec.ImportType())
	if err != nil {
		return false, err
	}
	a, b := rec.NaturalKey()
	var found bool
	if err := s.pool.QueryRow(ctx, q, a, b).Scan(&found); err != nil {
		return false, friendlyError(err)
	}
	return found, nil
}

// Insert writes one record in its own transaction.
func (s *Store) Insert(ctx context.Context, rec feeimport.Record, userID string, at time.Time) error {
	q, args, err := insertStatement(rec, userID, at)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err := tx.Exec(ctx, q, args...); err != nil {
		return friendlyError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return friendlyError(err)
	}
	committed = true
	return nil
}

func (s *Store) InsertAudit(ctx context.Context, e feeimport.AuditLogEntry) error {
	details, err := json.Marshal(e.Summary)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_logs (user_id, action, table_name, details, created_at) VALUES ($1, $2, $3, $4::jsonb, $5)`,
		e.UserID, e.Action, e.TableName, string(details), e.CreatedAt,
	)
	if err != nil {
		return friendlyError(err)
	}
	return nil
}

func existsQuery(t feeimport.ImportType) (string, error) {
	switch t {
	case feeimport.ImportBusiness:
		return `SELECT EXISTS (SELECT 1 FROM business_fee_structures WHERE business_type = $1 AND category = $2)`, nil
	case feeimport.ImportProperty:
		return `SELECT EXISTS (SELECT 1 FROM property_fee_structures WHERE structure = $1 AND property_use = $2)`, nil
	}
	return "", fmt.Errorf("unsupported import type %q", t)
}

func insertStatement(rec feeimport.Record, userID string, at time.Time) (string, []interface{}, error) {
	switch r := rec.(type) {
	case feeimport.BusinessFeeRecord:
		return `INSERT INTO business_fee_structures (business_type, category, fee_amount, is_active, created_by, created_at, updated_at)
			VALUES ($1, $2, $3::numeric, $4, $5, $6, $6)`,
			[]interface{}{r.BusinessType, r.Category, r.FeeAmount.StringFixed(2), r.IsActive, userID, at}, nil
	case feeimport.PropertyFeeRecord:
		return `INSERT INTO property_fee_structures (structure, property_use, fee_per_room, is_active, created_by, created_at, updated_at)
			VALUES ($1, $2, $3::numeric, $4, $5, $6, $6)`,
			[]interface{}{r.Structure, r.PropertyUse, r.FeePerRoom.StringFixed(2), r.IsActive, userID, at}, nil
	}
	return "", nil, fmt.Errorf("unsupported record type %T", rec)
}

// friendlyError maps PostgreSQL error codes to messages fit for the import
// report. Unique violations wrap feeimport.ErrKeyConflict.
func friendlyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%w (%s)", feeimport.ErrKeyConflict, pgErr.ConstraintName)
	case "23514":
		return fmt.Errorf("a value breaks the %s rule", pgErr.ConstraintName)
	case "23502":
		return fmt.Errorf("column %s must not be empty", pgErr.ColumnName)
	case "22003":
		return errors.New("amount is too large")
	default:
		return fmt.Errorf("database error %s: %s", pgErr.Code, pgErr.Message)
	}
}
