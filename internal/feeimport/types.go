package feeimport

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ImportType selects which fee table a bulk import targets.
type ImportType string

const (
	ImportBusiness ImportType = "business"
	ImportProperty ImportType = "property"
)

// ParseImportType accepts the form value submitted by the import wizard.
func ParseImportType(s string) (ImportType, error) {
	switch t := ImportType(strings.ToLower(strings.TrimSpace(s))); t {
	case ImportBusiness, ImportProperty:
		return t, nil
	default:
		return "", newError(KindUpload, fmt.Sprintf("unsupported import type %q (expected business or property)", s), nil)
	}
}

// Table is the persisted table holding this import type's fee structures.
func (t ImportType) Table() string {
	if t == ImportProperty {
		return "property_fee_structures"
	}
	return "business_fee_structures"
}

// Columns lists the template headers in order. The first columns are required.
func (t ImportType) Columns() []string {
	if t == ImportProperty {
		return []string{ColStructure, ColPropertyUse, ColFeePerRoom, ColIsActive}
	}
	return []string{ColBusinessType, ColCategory, ColFeeAmount, ColIsActive}
}

const (
	ColBusinessType = "business_type"
	ColCategory     = "category"
	ColFeeAmount    = "fee_amount"
	ColStructure    = "structure"
	ColPropertyUse  = "property_use"
	ColFeePerRoom   = "fee_per_room"
	ColIsActive     = "is_active"
)

const (
	PropertyUseResidential = "Residential"
	PropertyUseCommercial  = "Commercial"
)

// PermissionImport is required on the ActorContext to commit an import.
const PermissionImport = "fees.import"

// ImportRow is one parsed data row keyed by header name. Header order is kept
// so diagnostics can list the columns the file actually had.
type ImportRow struct {
	Line    int
	headers []string
	values  map[string]string
}

func NewImportRow(line int, headers, cells []string) ImportRow {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(cells) {
			values[h] = cells[i]
		} else {
			values[h] = ""
		}
	}
	return ImportRow{Line: line, headers: headers, values: values}
}

// Get returns the raw cell for a column and whether the column exists.
func (r ImportRow) Get(col string) (string, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Columns returns the header names in file order.
func (r ImportRow) Columns() []string {
	out := make([]string, len(r.headers))
	copy(out, r.headers)
	return out
}

// Record is a validated fee structure: either a BusinessFeeRecord or a
// PropertyFeeRecord.
type Record interface {
	ImportType() ImportType
	// NaturalKey returns the uniqueness key used for duplicate detection.
	NaturalKey() (string, string)
	// Label renders the natural key for messages.
	Label() string
	SourceLine() int
	check() error
}

type BusinessFeeRecord struct {
	Line         int             `json:"line"`
	BusinessType string          `json:"business_type"`
	Category     string          `json:"category"`
	FeeAmount    decimal.Decimal `json:"fee_amount"`
	IsActive     bool            `json:"is_active"`
}

func (r BusinessFeeRecord) ImportType() ImportType       { return ImportBusiness }
func (r BusinessFeeRecord) NaturalKey() (string, string) { return r.BusinessType, r.Category }
func (r BusinessFeeRecord) SourceLine() int              { return r.Line }

func (r BusinessFeeRecord) Label() string {
	return fmt.Sprintf("%s / %s", r.BusinessType, r.Category)
}

func (r BusinessFeeRecord) check() error {
	switch {
	case strings.TrimSpace(r.BusinessType) == "":
		return fmt.Errorf("%s is empty", ColBusinessType)
	case strings.TrimSpace(r.Category) == "":
		return fmt.Errorf("%s is empty", ColCategory)
	case r.FeeAmount.IsNegative():
		return fmt.Errorf("%s is negative", ColFeeAmount)
	}
	return nil
}

type PropertyFeeRecord struct {
	Line        int             `json:"line"`
	Structure   string          `json:"structure"`
	PropertyUse string          `json:"property_use"`
	FeePerRoom  decimal.Decimal `json:"fee_per_room"`
	IsActive    bool            `json:"is_active"`
}

func (r PropertyFeeRecord) ImportType() ImportType       { return ImportProperty }
func (r PropertyFeeRecord) NaturalKey() (string, string) { return r.Structure, r.PropertyUse }
func (r PropertyFeeRecord) SourceLine() int              { return r.Line }

func (r PropertyFeeRecord) Label() string {
	return fmt.Sprintf("%s (%s)", r.Structure, r.PropertyUse)
}

func (r PropertyFeeRecord) check() error {
	switch {
	case strings.TrimSpace(r.Structure) == "":
		return fmt.Errorf("%s is empty", ColStructure)
	case r.PropertyUse != PropertyUseCommercial && r.PropertyUse != PropertyUseResidential:
		return fmt.Errorf("%s %q is not allowed", ColPropertyUse, r.PropertyUse)
	case r.FeePerRoom.IsNegative():
		return fmt.Errorf("%s is negative", ColFeePerRoom)
	}
	return nil
}

// ImportOutcome summarises one commit.
type ImportOutcome struct {
	Inserted  int      `json:"inserted"`
	Duplicate int      `json:"duplicate"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

func (o ImportOutcome) Total() int { return o.Inserted + o.Duplicate + o.Failed }

// ActorContext identifies who is driving a stage. It is passed explicitly
// instead of being looked up from request globals.
type ActorContext struct {
	UserID      string
	Permissions []string
}

func NewActorContext(userID string, perms []string) ActorContext {
	cp := make([]string, len(perms))
	copy(cp, perms)
	return ActorContext{UserID: userID, Permissions: cp}
}

func (a ActorContext) Can(perm string) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// AuditLogEntry is written once per completed commit.
type AuditLogEntry struct {
	UserID    string
	Action    string
	TableName string
	Summary   AuditSummary
	CreatedAt time.Time
}

type AuditSummary struct {
	BatchID    string     `json:"batch_id"`
	ImportType ImportType `json:"import_type"`
	Records    int        `json:"records"`
	Inserted   int        `json:"inserted"`
	Duplicate  int        `json:"duplicate"`
	Failed     int        `json:"failed"`
}
