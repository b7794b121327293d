package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/bkastelic/fieldstock/internal/model"
)

// Header is the column set every upload must carry, matching the template
// handed out to admins. Order is free; matching is by header name,
// case-insensitively.
var Header = []string{"cs", "serial", "phone", "type", "status", "location", "po"}

func indexHeader(record []string) (map[string]int, error) {
	index := make(map[string]int, len(record))
	for i, name := range record {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, want := range Header {
		if _, ok := index[want]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", model.ErrValidation, want)
		}
	}
	return index, nil
}

func cell(record []string, index map[string]int, name string) string {
	i := index[name]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func rowFromRecord(record []string, index map[string]int, line int) Row {
	return Row{
		Code:          cell(record, index, "cs"),
		Serial:        cell(record, index, "serial"),
		Phone:         cell(record, index, "phone"),
		Type:          cell(record, index, "type"),
		Status:        cell(record, index, "status"),
		Location:      cell(record, index, "location"),
		PurchaseOrder: cell(record, index, "po"),
		Line:          line,
	}
}

// ParseCSV reads an uploaded CSV inventory sheet. The first record must be
// the header row.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", model.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", model.ErrValidation, err)
	}
	index, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", model.ErrValidation, line+1, err)
		}
		line++
		rows = append(rows, rowFromRecord(record, index, line))
	}
	return rows, nil
}
