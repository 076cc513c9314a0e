package feeimport

import (
	"bytes"
	"reflect"
	"testing"
)

func TestTemplatesMatchValidator(t *testing.T) {
	for _, typ := range []ImportType{ImportBusiness, ImportProperty} {
		for _, format := range []string{"csv", "xlsx"} {
			t.Run(string(typ)+"/"+format, func(t *testing.T) {
				var buf bytes.Buffer
				var err error
				if format == "csv" {
					err = WriteTemplateCSV(&buf, typ)
				} else {
					err = WriteTemplateXLSX(&buf, typ)
				}
				if err != nil {
					t.Fatalf("write template: %v", err)
				}

				path := writeTemp(t, TemplateFileName(typ, format), buf.String())
				res, err := NewParser(500, nil).Parse(path, format)
				if err != nil {
					t.Fatalf("Parse: %v", err)
				}
				if !reflect.DeepEqual(res.Headers, typ.Columns()) {
					t.Fatalf("headers = %q, want %q", res.Headers, typ.Columns())
				}
				v := ValidateRows(typ, res.Rows, false)
				if len(v.Errors) != 0 || len(v.Records) != 2 {
					t.Fatalf("template rows do not validate: %+v", v)
				}
			})
		}
	}
}
