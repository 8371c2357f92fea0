// Package classify derives a category and transaction type from free-text
// statement descriptions using static keyword tables, and normalizes Turkish
// IBANs embedded in descriptions. All functions are pure.
package classify

import (
	"strings"

	"github.com/rivalth/kumbara/internal/transaction"
)

// rule maps one category to the lowercase keyword substrings that imply it.
type rule struct {
	Category transaction.Category
	Keywords []string
}

// Expense rules are checked before income rules: bank statements skew
// expense-heavy, so expense matches are assumed more frequent. Order within
// the table matters; the first matching keyword wins.
var expenseRules = []rule{
	{transaction.CategoryGroceries, []string{"migros", "carrefour", "bim ", "a101", "şok market", "sok market", "market", "bakkal", "manav"}},
	{transaction.CategoryDining, []string{"restoran", "restaurant", "lokanta", "yemeksepeti", "getir", "trendyol yemek", "burger", "pizza", "döner", "doner", "kebap"}},
	{transaction.CategorySocial, []string{"starbucks", "kahve", "cafe", "kafe", "sinema", "cinemaximum", "tiyatro", "konser", "bar "}},
	{transaction.CategoryTransport, []string{"istanbulkart", "akbil", "metro", "otobüs", "otobus", "taksi", "taxi", "uber", "bitaksi", "benzin", "shell", "opet", "petrol ofisi", "otopark", "hgs", "ogs", "köprü", "kopru"}},
	{transaction.CategoryUtilities, []string{"elektrik", "doğalgaz", "dogalgaz", "igdaş", "igdas", "iski", "su fatura", "internet", "türk telekom", "turk telekom", "turkcell", "vodafone", "fatura"}},
	{transaction.CategoryRent, []string{"kira", "emlak", "aidat"}},
	{transaction.CategoryHealth, []string{"eczane", "hastane", "poliklinik", "dişçi", "disci", "doktor", "sağlık", "saglik", "optik"}},
	{transaction.CategoryClothing, []string{"lcw", "lc waikiki", "defacto", "koton", "mavi", "zara", "h&m", "giyim", "ayakkabı", "ayakkabi", "tekstil"}},
	{transaction.CategoryEducation, []string{"okul", "kurs", "üniversite", "universite", "kitap", "kırtasiye", "kirtasiye", "udemy", "eğitim", "egitim"}},
	{transaction.CategorySubscription, []string{"netflix", "spotify", "youtube premium", "amazon prime", "blutv", "exxen", "disney", "apple.com/bill", "icloud", "abonelik"}},
}

var incomeRules = []rule{
	{transaction.CategorySalary, []string{"maaş", "maas", "ücret ödemesi", "ucret odemesi", "bordro", "salary", "payroll"}},
	{transaction.CategoryInvestment, []string{"faiz", "temettü", "temettu", "kupon ödemesi", "kupon odemesi", "repo", "fon satış", "fon satis", "kâr payı", "kar payi"}},
	{transaction.CategoryOtherIncome, []string{"iade", "gelen transfer", "havale gelen", "eft gelen"}},
}

// DetectCategory scans the expense table first, then the income table, and
// returns the first category with a keyword substring match in description.
// The boolean is false when nothing matched.
func DetectCategory(description string) (transaction.Category, bool) {
	needle := strings.ToLower(strings.TrimSpace(description))
	if needle == "" {
		return "", false
	}

	for _, tables := range [][]rule{expenseRules, incomeRules} {
		for _, r := range tables {
			for _, kw := range r.Keywords {
				if strings.Contains(needle, kw) {
					return r.Category, true
				}
			}
		}
	}

	return "", false
}

// DetectType infers income or expense for a candidate row. A negative
// amount is always an expense. Otherwise the sign is ambiguous and the
// description decides: income only when a keyword places it in an income
// category, expense in every other case.
func DetectType(amountCents int64, description string) transaction.Type {
	if amountCents < 0 {
		return transaction.TypeExpense
	}

	if cat, ok := DetectCategory(description); ok && transaction.IsIncomeCategory(cat) {
		return transaction.TypeIncome
	}

	return transaction.TypeExpense
}

// FallbackCategory returns the catch-all category for a type, used when no
// keyword matched during pre-fill.
func FallbackCategory(t transaction.Type) transaction.Category {
	if t == transaction.TypeIncome {
		return transaction.CategoryOtherIncome
	}

	return transaction.CategoryOtherExpense
}
