package feestore

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"QuickBill305/internal/feeimport"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func TestFriendlyError(t *testing.T) {
	unique := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "business_fee_structures_natural_key"})
	if err := friendlyError(unique); !errors.Is(err, feeimport.ErrKeyConflict) {
		t.Fatalf("unique violation = %v, want ErrKeyConflict", err)
	}

	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "23514", ConstraintName: "property_fee_structures_property_use_check"}, "property_use_check"},
		{&pgconn.PgError{Code: "23502", ColumnName: "created_by"}, "created_by"},
		{&pgconn.PgError{Code: "22003"}, "too large"},
		{&pgconn.PgError{Code: "57014", Message: "canceling statement"}, "57014"},
		{errors.New("conn closed"), "conn closed"},
	}
	for _, tt := range tests {
		got := friendlyError(tt.err)
		if !strings.Contains(got.Error(), tt.want) {
			t.Errorf("friendlyError(%v) = %q, want it to mention %q", tt.err, got, tt.want)
		}
		if errors.Is(got, feeimport.ErrKeyConflict) {
			t.Errorf("friendlyError(%v) should not be a key conflict", tt.err)
		}
	}
}

func TestInsertStatement(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	q, args, err := insertStatement(feeimport.PropertyFeeRecord{
		Structure: "House", PropertyUse: feeimport.PropertyUseResidential, FeePerRoom: decimal.RequireFromString("25.5"), IsActive: true,
	}, "user-1", at)
	if err != nil {
		t.Fatalf("insertStatement: %v", err)
	}
	if !strings.Contains(q, "property_fee_structures") {
		t.Fatalf("query = %s", q)
	}
	if len(args) != 6 || args[2] != "25.50" || args[4] != "user-1" || args[5] != at {
		t.Fatalf("args = %#v", args)
	}

	if _, err := existsQuery(feeimport.ImportType("vehicle")); err == nil {
		t.Fatal("existsQuery accepted an unknown type")
	}
}

func TestSchemaDeclaresNaturalKeys(t *testing.T) {
	for _, want := range []string{
		"UNIQUE (business_type, category)",
		"UNIQUE (structure, property_use)",
		"details    JSONB",
	} {
		if !strings.Contains(schemaSQL, want) {
			t.Errorf("schema is missing %q", want)
		}
	}
}
