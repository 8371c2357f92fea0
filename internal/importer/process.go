// Package importer builds candidate transactions from generically parsed
// tables. Rows with problems are kept, not dropped: each carries its own
// error list so the review UI can show and fix them inline.
package importer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rivalth/kumbara/internal/classify"
	"github.com/rivalth/kumbara/internal/money"
	"github.com/rivalth/kumbara/internal/tabular"
	"github.com/rivalth/kumbara/internal/transaction"
)

// ProcessedRow is a candidate transaction derived from one parsed row plus a
// column mapping. An empty Errors list means the row is importable.
type ProcessedRow struct {
	Date        time.Time
	Amount      int64
	Description string
	Type        transaction.Type
	Category    transaction.Category
	Errors      []string
}

// Importable reports whether the row passed all field checks.
func (r ProcessedRow) Importable() bool {
	return len(r.Errors) == 0
}

// ProcessRows materializes one candidate transaction per parsed row,
// pre-filling type and category from the description and amount sign.
func ProcessRows(rows []tabular.Row, mapping tabular.ColumnMapping) []ProcessedRow {
	processed := make([]ProcessedRow, len(rows))
	for i, row := range rows {
		processed[i] = processRow(row, mapping)
	}

	return processed
}

func processRow(row tabular.Row, mapping tabular.ColumnMapping) ProcessedRow {
	var out ProcessedRow

	// Signed amount drives type detection; the stored amount is the
	// magnitude only.
	var signedAmount int64

	if mapping.Date == "" {
		out.Errors = append(out.Errors, "no date column selected")
	} else if cell, ok := row[mapping.Date]; !ok {
		out.Errors = append(out.Errors, "date is missing")
	} else {
		date, err := ParseDate(cell.Value())
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("unrecognized date %q", cell.Value()))
		} else {
			out.Date = date
		}
	}

	if mapping.Amount == "" {
		out.Errors = append(out.Errors, "no amount column selected")
	} else if cell, ok := row[mapping.Amount]; !ok {
		out.Errors = append(out.Errors, "amount is missing")
	} else {
		amount, err := money.ParseAmount(cell.Value())
		if err != nil || amount == 0 {
			out.Errors = append(out.Errors, fmt.Sprintf("invalid amount %q", cell.Value()))
		} else {
			signedAmount = amount
			out.Amount = abs(amount)
		}
	}

	if mapping.Description != "" {
		if cell, ok := row[mapping.Description]; ok {
			out.Description = classify.EnhanceDescription(strings.TrimSpace(cell.Value()))
		}
	}

	out.Type = classify.DetectType(signedAmount, out.Description)

	if cat, ok := classify.DetectCategory(out.Description); ok {
		out.Category = cat
	} else {
		out.Category = classify.FallbackCategory(out.Type)
	}

	// Keyword category and sign-derived type can disagree; the fallback for
	// the detected type keeps the pair coherent for the preview.
	if (out.Type == transaction.TypeIncome) != transaction.IsIncomeCategory(out.Category) {
		out.Category = classify.FallbackCategory(out.Type)
	}

	return out
}

// Edit is a partial per-row correction from the review UI. Date and amount
// arrive as raw text and are re-parsed with the same rules as the original
// processing pass.
type Edit struct {
	Date        *string
	Amount      *string
	Description *string
	Type        *transaction.Type
	Category    *transaction.Category
}

// ApplyEdit merges an edit into a row and re-validates every field.
func ApplyEdit(row ProcessedRow, edit Edit) ProcessedRow {
	out := row
	out.Errors = nil

	if edit.Date != nil {
		date, err := ParseDate(*edit.Date)
		if err != nil {
			out.Date = time.Time{}
		} else {
			out.Date = date
		}
	}

	if out.Date.IsZero() {
		out.Errors = append(out.Errors, "unrecognized or missing date")
	}

	if edit.Amount != nil {
		amount, err := money.ParseAmount(*edit.Amount)
		if err != nil {
			out.Amount = 0
		} else {
			out.Amount = abs(amount)
		}
	}

	if out.Amount == 0 {
		out.Errors = append(out.Errors, "invalid or missing amount")
	}

	if edit.Description != nil {
		out.Description = strings.TrimSpace(*edit.Description)
	}

	if edit.Type != nil {
		out.Type = *edit.Type
	}

	if edit.Category != nil {
		out.Category = *edit.Category
	}

	if out.Type != transaction.TypeIncome && out.Type != transaction.TypeExpense {
		out.Errors = append(out.Errors, fmt.Sprintf("invalid type: %q", out.Type))
	} else if !transaction.ValidCategory(out.Category) {
		out.Errors = append(out.Errors, fmt.Sprintf("invalid category: %q", out.Category))
	} else if (out.Type == transaction.TypeIncome) != transaction.IsIncomeCategory(out.Category) {
		out.Errors = append(out.Errors, fmt.Sprintf("category %q does not match type %q", out.Category, out.Type))
	}

	return out
}

var (
	isoDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	dayFirstPattern = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{4})$`)
	fallbackLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006/01/02", "Jan 2, 2006", "2 January 2006"}
)

// ParseDate parses the date formats seen in generic uploads into a plain
// calendar day (midnight UTC, no time component):
//
//   - ISO prefix: "2024-03-15" or "2024-03-15T10:04:00Z"
//   - day-first with ".", "/" or "-": "15/03/2024", "15.03.2024", "15-03-2024"
//   - a small set of fallback layouts
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if isoDatePattern.MatchString(s) {
		if t, err := time.Parse(time.DateOnly, s[:10]); err == nil {
			return t, nil
		}
	}

	if m := dayFirstPattern.FindStringSubmatch(s); m != nil {
		t, err := time.Parse("2-1-2006", fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}

		return t, nil
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}

	return n
}
