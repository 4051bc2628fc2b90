// Package importer turns uploaded spreadsheets into Items.
package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported file format, upload a .xls or .xlsx file")

// Row is one data line of the sheet keyed by normalized column name.
type Row struct {
	// Line is the 1-based line number in the sheet, the header being line 1.
	Line   int
	Values map[string]string
}

func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// SupportedExtension reports whether filename names a spreadsheet we can read.
func SupportedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return true
	default:
		return false
	}
}

// ReadRows reads the first sheet. The first line holds the column names; empty lines
// are skipped.
func ReadRows(filename string, r io.Reader) ([]Row, error) {
	if !SupportedExtension(filename) {
		return nil, ErrUnsupportedFormat
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var cells [][]string
	if strings.EqualFold(filepath.Ext(filename), ".xls") {
		cells, err = readXLS(data)
	} else {
		cells, err = readXLSX(data)
	}
	if err != nil {
		return nil, err
	}
	return toRows(cells)
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot parse excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheet")
	}
	// raw values keep date cells as serial numbers instead of locale formatted text
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("cannot read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("cannot parse excel file: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("excel file has no sheet")
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// NormalizeColumn maps a header cell such as "Requested Date" to requested_date.
func NormalizeColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	return h
}

func toRows(cells [][]string) ([]Row, error) {
	if len(cells) == 0 {
		return nil, errors.New("excel file is empty")
	}
	header := make([]string, len(cells[0]))
	for i, h := range cells[0] {
		header[i] = NormalizeColumn(h)
	}

	rows := make([]Row, 0, len(cells)-1)
	for i, line := range cells[1:] {
		values := make(map[string]string, len(header))
		empty := true
		for j, v := range line {
			if j >= len(header) || header[j] == "" {
				continue
			}
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			values[header[j]] = v
		}
		if empty {
			continue
		}
		rows = append(rows, Row{Line: i + 2, Values: values})
	}
	return rows, nil
}
