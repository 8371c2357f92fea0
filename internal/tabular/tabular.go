// Package tabular turns uploaded CSV and Excel files into a uniform table of
// named columns and scalar cells, ready for column mapping and row processing.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	enc "github.com/rivalth/kumbara/internal/encoding"
)

// ParseError is a structural parse failure: bad file, missing header,
// unsupported extension. It aborts the whole import with a single
// user-facing message and produces no partial data.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// CellKind discriminates the scalar kinds a cell can hold.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single parsed cell. The zero value is an empty cell.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Value returns the cell content as text. Numbers keep their shortest exact
// representation instead of any display formatting from the source file.
func (c Cell) Value() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellText:
		return c.Text
	}

	return ""
}

// Row maps a column header to the cell value for one source row.
// Absent keys mean the cell was empty or missing in the source.
type Row map[string]Cell

// Table is the uniform output of a successful parse.
type Table struct {
	Headers []string
	Rows    []Row
}

// Parse dispatches on the file extension of filename and parses content into
// a Table. Unsupported extensions fail before any read of the content.
func Parse(r io.Reader, filename string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r)
	case ".xlsx", ".xls":
		return parseExcel(r)
	default:
		return nil, &ParseError{Message: fmt.Sprintf("unsupported format: %s", filepath.Ext(filename))}
	}
}

// parseCSV reads a UTF-8 (or detected legacy charset) CSV with the first line
// as the header row. Malformed records are tolerated as long as at least one
// row is recoverable.
func parseCSV(r io.Reader) (*Table, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, &ParseError{Message: "unreadable file: " + err.Error()}
	}

	content, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, &ParseError{Message: "unreadable file: " + err.Error()}
	}

	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.Comma = sniffDelimiter(string(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, &ParseError{Message: "file has no header row"}
	}

	headers := make([]string, 0, len(header))
	headerByCol := make(map[int]string, len(header))

	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}

		headers = append(headers, h)
		headerByCol[i] = h
	}

	if len(headers) == 0 {
		return nil, &ParseError{Message: "file has no header row"}
	}

	var rows []Row

	recordErrors := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			recordErrors++
			continue
		}

		row := make(Row)

		for i, cell := range record {
			h, ok := headerByCol[i]
			if !ok {
				continue
			}

			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}

			row[h] = TextCell(cell)
		}

		if len(row) == 0 {
			continue
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 && recordErrors > 0 {
		return nil, &ParseError{Message: "no rows could be parsed from the file"}
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// sniffDelimiter guesses the field delimiter from the header line. Turkish
// bank exports use semicolons about as often as commas.
func sniffDelimiter(content string) rune {
	header, _, _ := strings.Cut(content, "\n")

	delimiter := ','
	best := strings.Count(header, ",")

	for _, candidate := range []rune{';', '\t'} {
		if n := strings.Count(header, string(candidate)); n > best {
			delimiter = candidate
			best = n
		}
	}

	return delimiter
}

// parseExcel reads the first sheet of a workbook. The first non-empty row is
// taken as the header row; numeric cells are preserved as numbers rather
// than their display strings.
func parseExcel(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Message: "unreadable workbook: " + err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Message: "workbook has no sheets"}
	}

	sheet := sheets[0]

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Message: "unreadable workbook: " + err.Error()}
	}

	headerIdx := -1

	for i, row := range raw {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				headerIdx = i
				break
			}
		}

		if headerIdx != -1 {
			break
		}
	}

	if headerIdx == -1 {
		return nil, &ParseError{Message: "sheet has no header row"}
	}

	headers := make([]string, 0, len(raw[headerIdx]))
	headerByCol := make(map[int]string, len(raw[headerIdx]))

	for i, h := range raw[headerIdx] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}

		headers = append(headers, h)
		headerByCol[i] = h
	}

	var rows []Row

	for rowIdx := headerIdx + 1; rowIdx < len(raw); rowIdx++ {
		row := make(Row)

		for colIdx, cell := range raw[rowIdx] {
			h, ok := headerByCol[colIdx]
			if !ok {
				continue
			}

			if strings.TrimSpace(cell) == "" {
				continue
			}

			row[h] = typedCell(f, sheet, colIdx, rowIdx, cell)
		}

		if len(row) == 0 {
			continue
		}

		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// typedCell decides whether a raw cell value is a number or text. String
// cells keep their text even when it looks numeric; everything else is
// parsed as a number when possible.
func typedCell(f *excelize.File, sheet string, colIdx, rowIdx int, raw string) Cell {
	name, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
	if err != nil {
		return TextCell(raw)
	}

	typ, err := f.GetCellType(sheet, name)
	if err == nil {
		switch typ {
		case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
			return TextCell(raw)
		}
	}

	if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return NumberCell(n)
	}

	return TextCell(strings.TrimSpace(raw))
}
