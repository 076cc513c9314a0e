package feeimport

import (
	"encoding/base64"
	"testing"

	"github.com/shopspring/decimal"
)

func sampleBusinessRecords() []Record {
	return []Record{
		BusinessFeeRecord{Line: 2, BusinessType: "Retail Shop", Category: "Small", FeeAmount: decimal.RequireFromString("1200.50"), IsActive: true},
		BusinessFeeRecord{Line: 3, BusinessType: "Restaurant", Category: "Large", FeeAmount: decimal.RequireFromString("0"), IsActive: false},
	}
}

func sameRecord(a, b Record) bool {
	switch x := a.(type) {
	case BusinessFeeRecord:
		y, ok := b.(BusinessFeeRecord)
		return ok && x.Line == y.Line && x.BusinessType == y.BusinessType && x.Category == y.Category &&
			x.IsActive == y.IsActive && x.FeeAmount.Equal(y.FeeAmount)
	case PropertyFeeRecord:
		y, ok := b.(PropertyFeeRecord)
		return ok && x.Line == y.Line && x.Structure == y.Structure && x.PropertyUse == y.PropertyUse &&
			x.IsActive == y.IsActive && x.FeePerRoom.Equal(y.FeePerRoom)
	}
	return false
}

func TestPreviewRoundTrip(t *testing.T) {
	tests := []struct {
		typ     ImportType
		records []Record
	}{
		{ImportBusiness, sampleBusinessRecords()},
		{ImportProperty, []Record{
			PropertyFeeRecord{Line: 2, Structure: "Compound House", PropertyUse: PropertyUseResidential, FeePerRoom: decimal.RequireFromString("25"), IsActive: true},
			PropertyFeeRecord{Line: 5, Structure: "Tower", PropertyUse: PropertyUseCommercial, FeePerRoom: decimal.RequireFromString("60.75")},
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			data, err := EncodePreview(tt.typ, tt.records)
			if err != nil {
				t.Fatalf("EncodePreview: %v", err)
			}
			got, err := DecodePreview(data, tt.typ)
			if err != nil {
				t.Fatalf("DecodePreview: %v", err)
			}
			if len(got) != len(tt.records) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.records))
			}
			for i := range got {
				if !sameRecord(got[i], tt.records[i]) {
					t.Fatalf("record %d = %+v, want %+v", i, got[i], tt.records[i])
				}
			}
		})
	}
}

func TestEncodePreviewRejectsMixedTypes(t *testing.T) {
	recs := append(sampleBusinessRecords(), PropertyFeeRecord{Structure: "House", PropertyUse: PropertyUseResidential})
	if _, err := EncodePreview(ImportBusiness, recs); err == nil {
		t.Fatal("expected an error for a property record in a business preview")
	}
}

func TestDecodePreviewMalformed(t *testing.T) {
	valid, err := EncodePreview(ImportBusiness, sampleBusinessRecords())
	if err != nil {
		t.Fatalf("EncodePreview: %v", err)
	}
	empty, err := EncodePreview(ImportBusiness, nil)
	if err != nil {
		t.Fatalf("EncodePreview(nil): %v", err)
	}
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := map[string]struct {
		data string
		typ  ImportType
	}{
		"not base64":    {"%%%", ImportBusiness},
		"not json":      {enc("{oops"), ImportBusiness},
		"type mismatch": {valid, ImportProperty},
		"empty set":     {empty, ImportBusiness},
		"old version":   {enc(`{"v":0,"import_type":"business","records":[{"business_type":"a","category":"b","fee_amount":"1"}]}`), ImportBusiness},
		"bad use":       {enc(`{"v":1,"import_type":"property","records":[{"structure":"a","property_use":"Other","fee_per_room":"1"}]}`), ImportProperty},
		"negative":      {enc(`{"v":1,"import_type":"business","records":[{"business_type":"a","category":"b","fee_amount":"-1"}]}`), ImportBusiness},
		"blank key":     {enc(`{"v":1,"import_type":"business","records":[{"business_type":" ","category":"b","fee_amount":"1"}]}`), ImportBusiness},
		"unknown field": {enc(`{"v":1,"import_type":"business","records":[{"business_type":"a","category":"b","fee_amount":"1","id":9}]}`), ImportBusiness},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePreview(tt.data, tt.typ)
			if KindOf(err) != KindMalformedPayload {
				t.Fatalf("err = %v, want MalformedPayload", err)
			}
		})
	}
}
