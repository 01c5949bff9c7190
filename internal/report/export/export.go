// Package export renders report datasets as CSV, XLSX, or JSON. The adapters
// carry no business logic: the same dataset always yields the same bytes.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vital-portal/vital/internal/report"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// MetadataSheet is the name of the workbook's metadata sheet.
const MetadataSheet = "Metadata"

// ParseFormat validates an export format, defaulting to JSON when empty.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatJSON, nil
	case FormatCSV, FormatXLSX, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// FileName builds a download name such as "summary-2025-03-01.csv".
func FileName(kind report.Kind, f Format, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", kind, at.Format("2006-01-02"), f)
}

// Write renders ds in format f.
func Write(w io.Writer, f Format, ds report.Dataset) error {
	switch f {
	case FormatCSV:
		return ToCSV(w, ds)
	case FormatXLSX:
		data, err := ToXLSX(ds)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		return ToJSON(w, ds.Data)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// ToCSV writes a header row followed by one row per record.
func ToCSV(w io.Writer, ds report.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(ds.Rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ToJSON writes v pretty-printed with two-space indentation.
func ToJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ToXLSX builds a workbook with a data sheet named after the dataset and a
// Metadata sheet describing it.
func ToXLSX(ds report.Dataset) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	dataSheet := sheetName(ds)
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, fmt.Errorf("rename data sheet: %w", err)
	}
	if err := writeRow(f, dataSheet, 1, ds.Headers); err != nil {
		return nil, err
	}
	for i, row := range ds.Rows {
		if err := writeRow(f, dataSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	if len(ds.Headers) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, fmt.Errorf("header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(ds.Headers), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(dataSheet, "A1", last, bold); err != nil {
			return nil, fmt.Errorf("apply header style: %w", err)
		}
	}

	if _, err := f.NewSheet(MetadataSheet); err != nil {
		return nil, fmt.Errorf("create metadata sheet: %w", err)
	}
	meta := []report.MetaField{
		{Key: "Report", Value: ds.Title},
		{Key: "Kind", Value: string(ds.Kind)},
		{Key: "Generated At", Value: ds.GeneratedAt.UTC().Format(time.RFC3339)},
		{Key: "Records", Value: strconv.Itoa(len(ds.Rows))},
	}
	meta = append(meta, ds.Meta...)
	for i, m := range meta {
		if err := writeRow(f, MetadataSheet, i+1, []string{m.Key, m.Value}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func sheetName(ds report.Dataset) string {
	name := ds.Title
	if name == "" {
		name = string(ds.Kind)
	}
	if name == "" || name == MetadataSheet {
		name = "Data"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
