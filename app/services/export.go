package services

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/internal/address"
	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Addresses"

// WriteNDJSON writes one JSON object per line.
func WriteNDJSON(w io.Writer, results []*models.AddressResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode ndjson: %w", err)
		}
	}
	return nil
}

// ResultHeaders are the XLSX columns: fixed fields, then one name column
// per level.
func ResultHeaders() []string {
	headers := []string{"Raw", "Formatted", "Status", "Severity", "Postal code"}
	for _, l := range address.AllLevels() {
		headers = append(headers, l.String())
	}
	return append(headers, "GUID", "OKATO", "OKTMO", "Tail", "Messages")
}

// ResultRow flattens a result in ResultHeaders order.
func ResultRow(r *models.AddressResult) []interface{} {
	row := []interface{}{r.Raw, r.Formatted, r.Status, r.Severity, r.PostalCode}
	guid := ""
	for _, l := range address.AllLevels() {
		c, ok := r.Component(l.String())
		if !ok {
			row = append(row, "")
			continue
		}
		row = append(row, strings.TrimSpace(c.Type+" "+c.Name))
		if c.GUID != "" {
			guid = c.GUID
		}
	}
	msgs := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, m.Severity+": "+m.Text)
	}
	return append(row, guid, r.Codes.OKATO, r.Codes.OKTMO, r.Tail, strings.Join(msgs, "; "))
}

// WriteXLSX writes the results as a single-sheet workbook.
func WriteXLSX(w io.Writer, results []*models.AddressResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	headers := ResultHeaders()
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(resultsSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	for i, r := range results {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := ResultRow(r)
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(resultsSheet, "A", last, 20); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
