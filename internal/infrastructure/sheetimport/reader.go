// Package sheetimport reads bulk uploads from CSV or Excel files, validates
// their rows and writes Excel templates and exports.
package sheetimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Row is one data row keyed by normalized header
type Row struct {
	// LineNumber counts the header as line 1
	LineNumber int
	Data       map[string]string
}

// Get returns the value of a column
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// NormalizeHeader lower-cases a header, drops the required marker and turns
// spaces into underscores, so "Base Price *" becomes "base_price"
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(h), "*"))
	return strings.ReplaceAll(strings.ToLower(strings.Join(strings.Fields(h), " ")), " ", "_")
}

// ReadRows reads a .csv or .xlsx upload. Blank rows are skipped. maxRows <= 0
// disables the limit.
func ReadRows(r io.Reader, filename string, maxRows int) ([]*Row, error) {
	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return toRows(records, maxRows)
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Products") {
			sheet = name
			break
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func toRows(records [][]string, maxRows int) ([]*Row, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	headers := make([]string, len(records[0]))
	named := 0
	for i, h := range records[0] {
		headers[i] = NormalizeHeader(h)
		if headers[i] != "" {
			named++
		}
	}
	if named == 0 {
		return nil, ErrMissingHeader
	}

	rows := make([]*Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		row := &Row{LineNumber: i + 2, Data: make(map[string]string, len(headers))}
		for j, h := range headers {
			if h == "" {
				continue
			}
			if j < len(rec) {
				row.Data[h] = strings.TrimSpace(rec[j])
			} else {
				row.Data[h] = ""
			}
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
		if maxRows > 0 && len(rows) > maxRows {
			return nil, ErrTooManyRows
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}
