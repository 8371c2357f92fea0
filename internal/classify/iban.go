package classify

import (
	"regexp"
	"strings"
)

// Turkish IBAN: "TR", two check digits, then 22 more digits (26 characters
// total), with optional spaces between digit groups.
var ibanPattern = regexp.MustCompile(`(?i)\bTR(?:\s?\d){24}\b`)

// ExtractIBAN returns the first Turkish IBAN found in text, normalized to
// uppercase with spaces stripped. The empty string means no IBAN was found.
func ExtractIBAN(text string) string {
	match := ibanPattern.FindString(text)
	if match == "" {
		return ""
	}

	return strings.ToUpper(strings.ReplaceAll(match, " ", ""))
}

// FormatIBAN re-inserts a space every 4 characters of a normalized IBAN:
// "TR330006100519786457841326" -> "TR33 0006 1005 1978 6457 8413 26".
func FormatIBAN(iban string) string {
	var b strings.Builder

	for i, r := range iban {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}

		b.WriteRune(r)
	}

	return b.String()
}

// EnhanceDescription annotates a raw statement description that contains a
// bare IBAN with a formatted, human-readable form. Descriptions that already
// mention "IBAN" or already carry the formatted IBAN are left untouched.
func EnhanceDescription(description string) string {
	raw := ibanPattern.FindString(description)
	if raw == "" {
		return description
	}

	if strings.Contains(strings.ToUpper(description), "IBAN") {
		return description
	}

	formatted := FormatIBAN(ExtractIBAN(description))
	if strings.Contains(description, formatted) {
		return description
	}

	return strings.Replace(description, raw, formatted+" IBAN'ına gönderildi", 1)
}
