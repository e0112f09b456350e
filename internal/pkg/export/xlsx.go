package export

import (
	"fmt"
	"io"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Attendance"

// XLSX renders events as a single-sheet workbook with the same columns as CSV.
func XLSX(events []attendance.ClockEvent, locate LocationFunc) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}

	for i, row := range Project(events, locate) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		rec := row.record()
		values := make([]interface{}, len(rec))
		for j, v := range rec {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseXLSX reads a workbook produced by XLSX back into clock events.
func ParseXLSX(r io.Reader) ([]attendance.ClockEvent, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	events := make([]attendance.ClockEvent, 0, len(rows)-1)
	for i, rec := range rows[1:] {
		// GetRows drops trailing empty cells.
		for len(rec) < len(Header) {
			rec = append(rec, "")
		}
		row, err := rowFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		ev, err := row.event()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
