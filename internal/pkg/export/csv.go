package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
)

// WriteCSV writes the header and one record per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV renders events as a CSV document.
func CSV(events []attendance.ClockEvent, locate LocationFunc) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Project(events, locate)); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseCSV reads a document produced by CSV back into clock events.
func ParseCSV(r io.Reader) ([]attendance.ClockEvent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var events []attendance.ClockEvent
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := rowFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ev, err := row.event()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
