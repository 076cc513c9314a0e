package feeimport

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// templateRows are the example rows shipped in each download. They must pass
// ValidateRow.
var templateRows = map[ImportType][][]string{
	ImportBusiness: {
		{"Retail Shop", "Small Scale", "150.00", "yes"},
		{"Restaurant", "Large Scale", "1,200.50", "yes"},
	},
	ImportProperty: {
		{"Compound House", PropertyUseResidential, "25.00", "yes"},
		{"Storey Building", PropertyUseCommercial, "60.00", "no"},
	},
}

// TemplateFileName is the suggested attachment name for a template download.
func TemplateFileName(t ImportType, format string) string {
	return fmt.Sprintf("%s_fee_import_template.%s", t, format)
}

// WriteTemplateCSV writes the header row and example rows for t.
func WriteTemplateCSV(w io.Writer, t ImportType) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	if err := cw.WriteAll(templateRows[t]); err != nil {
		return err
	}
	return cw.Error()
}

// WriteTemplateXLSX writes the same content as WriteTemplateCSV as a workbook
// with a single sheet.
func WriteTemplateXLSX(w io.Writer, t ImportType) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%s fees", t)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := make([]interface{}, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range templateRows[t] {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}
