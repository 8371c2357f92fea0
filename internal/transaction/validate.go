package transaction

import (
	"fmt"

	"github.com/google/uuid"
)

// Validate checks params against the canonical transaction schema and returns
// human-readable problems. An empty slice means the params are insertable.
// Bulk import never trusts client-side validation, so this runs server-side
// on every submitted row.
func Validate(params CreateParams) []string {
	var problems []string

	if params.WalletID == uuid.Nil {
		problems = append(problems, "wallet is required")
	}

	if params.UserID == uuid.Nil {
		problems = append(problems, "user is required")
	}

	if params.Amount < 0 {
		problems = append(problems, "amount must not be negative")
	}

	if params.Amount == 0 {
		problems = append(problems, "amount is required")
	}

	switch params.Type {
	case TypeIncome, TypeExpense:
	default:
		problems = append(problems, fmt.Sprintf("invalid type: %q", params.Type))
	}

	if !ValidCategory(params.Category) {
		problems = append(problems, fmt.Sprintf("invalid category: %q", params.Category))
	} else if params.Type == TypeIncome && !IsIncomeCategory(params.Category) {
		problems = append(problems, fmt.Sprintf("category %q is not an income category", params.Category))
	} else if params.Type == TypeExpense && IsIncomeCategory(params.Category) {
		problems = append(problems, fmt.Sprintf("category %q is not an expense category", params.Category))
	}

	if params.Date.IsZero() {
		problems = append(problems, "date is required")
	}

	return problems
}
