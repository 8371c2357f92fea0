package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("transaction not found")

// Type represents the direction of a transaction. Amounts are always stored
// as non-negative magnitudes; direction is carried exclusively by the type.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Category is the closed set of budget categories a transaction can belong to.
type Category string

const (
	CategoryGroceries    Category = "market"
	CategoryDining       Category = "yemek"
	CategoryTransport    Category = "ulasim"
	CategoryUtilities    Category = "fatura"
	CategoryRent         Category = "kira"
	CategoryHealth       Category = "saglik"
	CategoryClothing     Category = "giyim"
	CategorySocial       Category = "sosyal"
	CategoryEducation    Category = "egitim"
	CategorySubscription Category = "abonelik"
	CategoryOtherExpense Category = "diger_gider"

	CategorySalary      Category = "maas"
	CategoryInvestment  Category = "yatirim"
	CategoryOtherIncome Category = "diger_gelir"
)

var incomeCategories = map[Category]bool{
	CategorySalary:      true,
	CategoryInvestment:  true,
	CategoryOtherIncome: true,
}

var expenseCategories = map[Category]bool{
	CategoryGroceries:    true,
	CategoryDining:       true,
	CategoryTransport:    true,
	CategoryUtilities:    true,
	CategoryRent:         true,
	CategoryHealth:       true,
	CategoryClothing:     true,
	CategorySocial:       true,
	CategoryEducation:    true,
	CategorySubscription: true,
	CategoryOtherExpense: true,
}

// IsIncomeCategory reports whether c belongs to the income category set.
func IsIncomeCategory(c Category) bool {
	return incomeCategories[c]
}

// ValidCategory reports whether c is a member of the closed category set.
func ValidCategory(c Category) bool {
	return incomeCategories[c] || expenseCategories[c]
}

// Transaction represents a financial transaction in a wallet.
type Transaction struct {
	ID          uuid.UUID
	WalletID    uuid.UUID
	UserID      uuid.UUID
	Amount      int64 // Amount in kuruş (cents), always >= 0
	Type        Type
	Category    Category
	Description string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
}
