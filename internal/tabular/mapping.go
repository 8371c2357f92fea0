package tabular

import (
	"regexp"
	"slices"
	"strings"
)

// ColumnMapping names which columns of a parsed table supply the date,
// amount, and description of a transaction. Empty strings mean the field is
// unassigned; the review UI then lets the user pick manually.
type ColumnMapping struct {
	Date        string
	Amount      string
	Description string
}

// Usable reports whether the mapping assigns enough columns for row
// processing. Description is optional.
func (m ColumnMapping) Usable() bool {
	return m.Date != "" && m.Amount != ""
}

// Header patterns per semantic field, in priority order. Turkish bank
// exports come first since those dominate uploads.
var (
	datePatterns = compilePatterns(
		"tarih",
		"date",
		"datetime",
		"işlem tarihi",
	)

	amountPatterns = compilePatterns(
		"tutar",
		"amount",
		"miktar",
		"fiyat",
		"price",
		"bakiye",
		"balance",
		"borç",
		"alacak",
		"debit",
		"credit",
	)

	descriptionPatterns = compilePatterns(
		"açıklama",
		"description",
		"detay",
		"işlem",
		"not",
		"memo",
	)
)

func compilePatterns(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile("(?i)" + p)
	}

	return compiled
}

// DetectColumnMapping guesses which headers carry the date, amount, and
// description fields. Fields resolve in that order by a left-to-right scan;
// the first header matching any of the field's patterns wins, and a header
// taken by an earlier field is not offered to later ones ("İşlem Tarihi"
// belongs to date, not description). This is a best-effort heuristic and the
// guess may be overridden by the user.
func DetectColumnMapping(headers []string) ColumnMapping {
	var m ColumnMapping

	m.Date = firstMatch(headers, datePatterns)
	m.Amount = firstMatch(headers, amountPatterns, m.Date)
	m.Description = firstMatch(headers, descriptionPatterns, m.Date, m.Amount)

	return m
}

func firstMatch(headers []string, patterns []*regexp.Regexp, taken ...string) string {
	for _, h := range headers {
		if slices.Contains(taken, h) {
			continue
		}

		// Regexp case folding does not map the Turkish dotted capital İ to
		// i, so all-caps headers like "TARİH" need an explicit lowering.
		lowered := strings.ToLower(h)

		for _, p := range patterns {
			if p.MatchString(lowered) {
				return h
			}
		}
	}

	return ""
}
