// Package export serializes audit-log records for download.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/presenca/attendance-notify/internal/model"
)

// Filename embeds the class and date in the download name.
func Filename(class, date string) string {
	return fmt.Sprintf("logs_%s_%s.xlsx", class, date)
}

// Logs serializes dispatch records to a spreadsheet, preserving input
// order. Pure: the audit log itself is untouched.
func Logs(records []model.DispatchRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []any{"id", "student", "class", "date", "guardian", "phone", "status", "response"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		response := ""
		if rec.Response != nil {
			response = *rec.Response
		}
		row := []any{rec.ID, rec.Student, rec.Class, rec.Date, rec.Guardian, rec.Phone, string(rec.Status), response}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
