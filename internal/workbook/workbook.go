// Package workbook reads login attempt rows from an .xlsx workbook and writes
// them back with a status column.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoInputFile is returned when no input workbook could be found.
	ErrNoInputFile = errors.New("no input workbook found")
	// ErrMissingColumns is returned when the sheet layout cannot be resolved.
	ErrMissingColumns = errors.New("required columns not found")
)

// Row is one login attempt read from the sheet.
type Row struct {
	// Index is the 1-based spreadsheet row number, for error reporting.
	Index    int
	Username string
	Password string
	// TargetURL is the raw service cell; normalization happens at attempt time.
	TargetURL string

	EmailLocator    string
	PasswordLocator string
	LoginLocator    string

	// Status holds the outcome. It starts with the pre-existing status cell, if any.
	Status string

	record int
}

// Sheet is a loaded worksheet. Records keeps every data row as read so the
// original columns can be written back unchanged.
type Sheet struct {
	Name    string
	Header  []string
	Records [][]string
	Columns Columns
	// Rows lists the non-blank records in sheet order.
	Rows []*Row

	// typed holds the cells that were not plain text so Save can write them
	// back with their original type and style.
	typed map[cellPos]typedCell
}

// cellPos addresses a cell by 1-based sheet row and 0-based column.
type cellPos struct{ row, col int }

type typedCell struct {
	value   interface{}
	formula string
	styleID int
	style   *excelize.Style
}

// Load opens the workbook at path. An empty sheet name selects the first sheet.
func Load(path, sheet string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return read(f, sheet)
}

// Read parses a workbook from r. An empty sheet name selects the first sheet.
func Read(r io.Reader, sheet string) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer f.Close()
	return read(f, sheet)
}

func read(f *excelize.File, sheet string) (*Sheet, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrMissingColumns, sheet)
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	cols, err := DetectColumns(rows[0], width)
	if err != nil {
		return nil, err
	}

	typed, err := readTypedCells(f, sheet, rows)
	if err != nil {
		return nil, err
	}

	s := &Sheet{
		Name:    sheet,
		Header:  rows[0],
		Records: rows[1:],
		Columns: cols,
		typed:   typed,
	}
	for i, record := range s.Records {
		if blank(record) {
			continue
		}
		s.Rows = append(s.Rows, &Row{
			Index:           i + 2,
			Username:        cell(record, cols.Username),
			Password:        cell(record, cols.Password),
			TargetURL:       cell(record, cols.Service),
			EmailLocator:    cell(record, cols.EmailLocator),
			PasswordLocator: cell(record, cols.PasswordLocator),
			LoginLocator:    cell(record, cols.LoginLocator),
			Status:          cell(record, cols.Status),
			record:          i,
		})
	}
	return s, nil
}

// readTypedCells collects numeric, boolean and formula cells. Text cells are
// fully described by the formatted values GetRows returns.
func readTypedCells(f *excelize.File, sheet string, rows [][]string) (map[cellPos]typedCell, error) {
	typed := make(map[cellPos]typedCell)
	for r, record := range rows {
		for c, v := range record {
			if v == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			tc, ok, err := readTypedCell(f, sheet, name)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s: %w", name, err)
			}
			if ok {
				typed[cellPos{row: r + 1, col: c}] = tc
			}
		}
	}
	return typed, nil
}

func readTypedCell(f *excelize.File, sheet, name string) (typedCell, bool, error) {
	var tc typedCell
	formula, err := f.GetCellFormula(sheet, name)
	if err != nil {
		return tc, false, err
	}
	tc.formula = formula

	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return tc, false, err
	}
	raw, err := f.GetCellValue(sheet, name, excelize.Options{RawCellValue: true})
	if err != nil {
		return tc, false, err
	}
	switch typ {
	case excelize.CellTypeBool:
		tc.value = raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if formula == "" {
				return tc, false, nil
			}
		} else {
			tc.value = n
		}
	default:
		if formula == "" {
			return tc, false, nil
		}
	}

	if tc.styleID, err = f.GetCellStyle(sheet, name); err != nil {
		return tc, false, err
	}
	if tc.styleID != 0 {
		if tc.style, err = f.GetStyle(tc.styleID); err != nil {
			return tc, false, err
		}
	}
	return tc, true, nil
}

func cell(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// statusColumn returns the column that receives statuses, appending one after
// the widest record when the sheet has no status header.
func (s *Sheet) statusColumn() int {
	if s.Columns.Status >= 0 {
		return s.Columns.Status
	}
	width := len(s.Header)
	for _, r := range s.Records {
		if len(r) > width {
			width = len(r)
		}
	}
	return width
}

// Save writes every original column plus the status column to path.
func (s *Sheet) Save(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	name := s.Name
	if name == "" {
		name = "Sheet1"
	}
	if name != "Sheet1" {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	w := &rowWriter{f: f, sheet: name, typed: s.typed, styles: make(map[int]int)}

	statusCol := s.statusColumn()
	header := widen(s.Header, statusCol+1)
	header[statusCol] = statusHeader
	if err := w.write(1, header, statusCol); err != nil {
		return err
	}

	statuses := make(map[int]string, len(s.Rows))
	for _, r := range s.Rows {
		statuses[r.record] = r.Status
	}
	for i, record := range s.Records {
		out := widen(record, statusCol+1)
		if status, ok := statuses[i]; ok {
			out[statusCol] = status
		}
		if err := w.write(i+2, out, statusCol); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// widen returns a copy of record with at least n columns.
func widen(record []string, n int) []string {
	out := make([]string, max(len(record), n))
	copy(out, record)
	return out
}

// rowWriter writes records back, restoring typed cells and their styles.
type rowWriter struct {
	f     *excelize.File
	sheet string
	typed map[cellPos]typedCell
	// styles maps source style IDs to IDs registered in f.
	styles map[int]int
}

func (w *rowWriter) write(row int, values []string, statusCol int) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
		if tc, ok := w.typed[cellPos{row: row, col: i}]; ok && i != statusCol && tc.value != nil {
			cells[i] = tc.value
		}
	}
	if err := writeRow(w.f, w.sheet, row, cells); err != nil {
		return err
	}

	for i := range values {
		tc, ok := w.typed[cellPos{row: row, col: i}]
		if !ok || i == statusCol {
			continue
		}
		name, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if tc.formula != "" {
			if err := w.f.SetCellFormula(w.sheet, name, tc.formula); err != nil {
				return fmt.Errorf("failed to restore formula in %s: %w", name, err)
			}
		}
		if tc.style == nil {
			continue
		}
		id, ok := w.styles[tc.styleID]
		if !ok {
			if id, err = w.f.NewStyle(tc.style); err != nil {
				return fmt.Errorf("failed to copy style of %s: %w", name, err)
			}
			w.styles[tc.styleID] = id
		}
		if err := w.f.SetCellStyle(w.sheet, name, name, id); err != nil {
			return fmt.Errorf("failed to restore style of %s: %w", name, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cellName, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cellName, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func textCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
