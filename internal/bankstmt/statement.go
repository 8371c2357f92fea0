package bankstmt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rivalth/kumbara/internal/money"
)

// layout describes where a bank's export keeps its data. The two built-in
// formats share the same parse shape and differ only in these constants.
type layout struct {
	// BankName appears in structural error messages.
	BankName string
	// Marker is the header cell that locates the transaction table. Matched
	// as a substring in MarkerCol, scanning rows top to bottom.
	Marker    string
	MarkerCol int
	// DataOffset is how many rows below the marker the first transaction is.
	DataOffset int
	// DateLayout is the bank's date format in Go reference-time form.
	DateLayout string
	// NoonDefault pins date-only formats to local noon, away from DST and
	// midnight rounding edges.
	NoonDefault bool

	DateCol    int
	DescCol    int
	AmountCol  int
	BalanceCol int
}

// statementParser runs the shared parse shape for one bank layout.
type statementParser struct {
	layout layout
	lookup DateRangeLookup
}

func (p *statementParser) Parse(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	rows, err := readFirstSheet(r)
	if err != nil {
		return nil, fmt.Errorf("%s statement: %w", p.layout.BankName, err)
	}

	markerRow := findMarker(rows, p.layout.Marker, p.layout.MarkerCol)
	if markerRow == -1 {
		return nil, fmt.Errorf("marker %q not found: file does not look like a %s statement export",
			p.layout.Marker, p.layout.BankName)
	}

	oldest, newest, err := p.lookup.StoredDateRange(ctx, opts.WalletID, opts.UserID)
	if err != nil {
		return nil, fmt.Errorf("looking up stored date range: %w", err)
	}

	result := &Result{}

	for i := markerRow + p.layout.DataOffset; i < len(rows); i++ {
		row := rows[i]

		// The first row with an empty date cell ends the transaction table.
		dateStr := cell(row, p.layout.DateCol)
		if dateStr == "" {
			break
		}

		rowNum := i + 1

		date, err := p.parseDate(dateStr)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: unparseable date %q", rowNum, dateStr))
			continue
		}

		amount, err := money.ParseAmount(cell(row, p.layout.AmountCol))
		if err != nil || amount == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid amount %q", rowNum, cell(row, p.layout.AmountCol)))
			continue
		}

		balance, err := money.ParseAmount(cell(row, p.layout.BalanceCol))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid balance %q", rowNum, cell(row, p.layout.BalanceCol)))
			continue
		}

		// Statements are imported in contiguous date-range batches: a row
		// inside the already-stored range was covered by a previous import
		// and is skipped silently. A legitimately re-dated transaction
		// falling inside that range is skipped too; known limitation.
		if oldest != nil && newest != nil && !date.Before(*oldest) && !date.After(*newest) {
			continue
		}

		order := 0
		if n := len(result.Transactions); n > 0 && result.Transactions[n-1].Date.Equal(date) {
			order = result.Transactions[n-1].Order + 1
		}

		if amount < 0 {
			amount = -amount
		}

		result.Transactions = append(result.Transactions, ParsedTransaction{
			Date:        date,
			Amount:      amount,
			Description: cell(row, p.layout.DescCol),
			Balance:     balance,
			Order:       order,
		})
	}

	return result, nil
}

// parseDate reads a bank-local timestamp and converts it to UTC using the
// fixed Turkey offset.
func (p *statementParser) parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(p.layout.DateLayout, s, turkeyZone)
	if err != nil {
		return time.Time{}, err
	}

	if p.layout.NoonDefault {
		t = time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, turkeyZone)
	}

	return t.UTC(), nil
}

// readFirstSheet loads a workbook and returns the rows of its first sheet.
func readFirstSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("unreadable workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	return rows, nil
}

// findMarker returns the index of the first row whose markerCol cell
// contains marker, or -1.
func findMarker(rows [][]string, marker string, markerCol int) int {
	for i, row := range rows {
		if strings.Contains(cell(row, markerCol), marker) {
			return i
		}
	}

	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
