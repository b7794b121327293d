package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/bkastelic/fieldstock/internal/model"
)

const sheetName = "Inventory"

// ParseWorkbook reads an uploaded XLSX inventory sheet. Only the first
// sheet is read; its first row must be the header.
func ParseWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook: %v", model.ErrValidation, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", model.ErrValidation)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading workbook rows: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", model.ErrValidation)
	}

	index, err := indexHeader(records[0])
	if err != nil {
		return nil, err
	}

	var rows []Row
	for i, record := range records[1:] {
		rows = append(rows, rowFromRecord(record, index, i+2))
	}
	return rows, nil
}

// Template generates the XLSX upload template: one styled header row in the
// column order admins are used to from the CSV era.
func Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("creating template sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for i, name := range Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("naming header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return nil, fmt.Errorf("writing header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return nil, fmt.Errorf("styling header cell %s: %w", cell, err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "G", 16); err != nil {
		return nil, fmt.Errorf("setting column widths: %w", err)
	}

	out, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing template: %w", err)
	}
	return out.Bytes(), nil
}
