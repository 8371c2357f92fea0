package importer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalth/kumbara/internal/importer"
	"github.com/rivalth/kumbara/internal/tabular"
	"github.com/rivalth/kumbara/internal/transaction"
)

var testMapping = tabular.ColumnMapping{
	Date:        "Tarih",
	Amount:      "Tutar",
	Description: "Açıklama",
}

func textRow(date, amount, description string) tabular.Row {
	return tabular.Row{
		"Tarih":    tabular.TextCell(date),
		"Tutar":    tabular.TextCell(amount),
		"Açıklama": tabular.TextCell(description),
	}
}

func TestParseDate(t *testing.T) {
	march15 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "ISO", input: "2024-03-15", want: march15},
		{name: "ISOWithTime", input: "2024-03-15T10:04:00Z", want: march15},
		{name: "DayFirstSlash", input: "15/03/2024", want: march15},
		{name: "DayFirstDot", input: "15.03.2024", want: march15},
		{name: "DayFirstDash", input: "15-03-2024", want: march15},
		{name: "SingleDigitDayMonth", input: "5/3/2024", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{name: "Padded", input: "  2024-03-15  ", want: march15},
		{name: "MonthName", input: "Mar 15, 2024", want: march15},
		{name: "InvalidDay", input: "32/01/2024", wantErr: true},
		{name: "NotADate", input: "not-a-date", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := importer.ParseDate(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestProcessRows(t *testing.T) {
	rows := []tabular.Row{
		textRow("2024-03-15", "-1.234,56", "MIGROS TICARET A.S."),
		textRow("16/03/2024", "45.000,00", "maaş ödemesi"),
	}

	processed := importer.ProcessRows(rows, testMapping)
	require.Len(t, processed, 2)

	first := processed[0]
	assert.True(t, first.Importable())
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, int64(123456), first.Amount)
	assert.Equal(t, transaction.TypeExpense, first.Type)
	assert.Equal(t, transaction.CategoryGroceries, first.Category)

	second := processed[1]
	assert.True(t, second.Importable())
	assert.Equal(t, int64(4500000), second.Amount)
	assert.Equal(t, transaction.TypeIncome, second.Type)
	assert.Equal(t, transaction.CategorySalary, second.Category)
}

func TestProcessRows_BadRowsKeptWithErrors(t *testing.T) {
	rows := []tabular.Row{
		textRow("not-a-date", "-10,00", "kahve"),
		textRow("2024-03-15", "sıfır", "kahve"),
		textRow("2024-03-15", "0", "kahve"),
	}

	processed := importer.ProcessRows(rows, testMapping)
	require.Len(t, processed, 3)

	assert.False(t, processed[0].Importable())
	assert.Contains(t, processed[0].Errors[0], "unrecognized date")

	assert.False(t, processed[1].Importable())
	assert.Contains(t, processed[1].Errors[0], "invalid amount")

	assert.False(t, processed[2].Importable())
	assert.Contains(t, processed[2].Errors[0], "invalid amount")
}

func TestProcessRows_FallbackCategory(t *testing.T) {
	processed := importer.ProcessRows([]tabular.Row{
		textRow("2024-03-15", "-10,00", "xyzzy"),
	}, testMapping)

	require.Len(t, processed, 1)
	assert.Equal(t, transaction.TypeExpense, processed[0].Type)
	assert.Equal(t, transaction.CategoryOtherExpense, processed[0].Category)
}

func TestProcessRows_NegativeAmountForcesExpense(t *testing.T) {
	// Keyword says income, sign says expense. Sign wins and the category
	// falls back so the pair stays coherent.
	processed := importer.ProcessRows([]tabular.Row{
		textRow("2024-03-15", "-10,00", "maaş kesintisi"),
	}, testMapping)

	require.Len(t, processed, 1)
	assert.Equal(t, transaction.TypeExpense, processed[0].Type)
	assert.Equal(t, transaction.CategoryOtherExpense, processed[0].Category)
}

func TestProcessRows_MissingMappingFields(t *testing.T) {
	rows := []tabular.Row{textRow("2024-03-15", "-10,00", "kahve")}

	processed := importer.ProcessRows(rows, tabular.ColumnMapping{Amount: "Tutar"})
	require.Len(t, processed, 1)
	assert.Contains(t, processed[0].Errors, "no date column selected")

	processed = importer.ProcessRows(rows, tabular.ColumnMapping{Date: "Tarih"})
	require.Len(t, processed, 1)
	assert.Contains(t, processed[0].Errors, "no amount column selected")
}

func TestProcessRows_AnnotatesIBAN(t *testing.T) {
	processed := importer.ProcessRows([]tabular.Row{
		textRow("2024-03-15", "-10,00", "FAST TR330006100519786457841326"),
	}, testMapping)

	require.Len(t, processed, 1)
	assert.Equal(t, "FAST TR33 0006 1005 1978 6457 8413 26 IBAN'ına gönderildi", processed[0].Description)
}

func strPtr(s string) *string { return &s }

func TestApplyEdit(t *testing.T) {
	row := importer.ProcessedRow{
		Date:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:   1000,
		Type:     transaction.TypeExpense,
		Category: transaction.CategoryGroceries,
	}

	t.Run("FixesDate", func(t *testing.T) {
		broken := importer.ProcessedRow{
			Amount:   1000,
			Type:     transaction.TypeExpense,
			Category: transaction.CategoryGroceries,
			Errors:   []string{"unrecognized date \"not-a-date\""},
		}

		fixed := importer.ApplyEdit(broken, importer.Edit{Date: strPtr("15.03.2024")})
		assert.True(t, fixed.Importable())
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), fixed.Date)
	})

	t.Run("BadAmountEditAddsError", func(t *testing.T) {
		edited := importer.ApplyEdit(row, importer.Edit{Amount: strPtr("abc")})
		assert.False(t, edited.Importable())
		assert.Contains(t, edited.Errors, "invalid or missing amount")
	})

	t.Run("CategoryTypeMismatch", func(t *testing.T) {
		salary := transaction.CategorySalary

		edited := importer.ApplyEdit(row, importer.Edit{Category: &salary})
		assert.False(t, edited.Importable())
		assert.Contains(t, edited.Errors[0], "does not match type")
	})

	t.Run("TypeAndCategoryTogether", func(t *testing.T) {
		income := transaction.TypeIncome
		salary := transaction.CategorySalary

		edited := importer.ApplyEdit(row, importer.Edit{Type: &income, Category: &salary})
		assert.True(t, edited.Importable())
		assert.Equal(t, transaction.TypeIncome, edited.Type)
		assert.Equal(t, transaction.CategorySalary, edited.Category)
	})

	t.Run("UntouchedFieldsSurvive", func(t *testing.T) {
		edited := importer.ApplyEdit(row, importer.Edit{Description: strPtr("  yeni açıklama  ")})
		assert.True(t, edited.Importable())
		assert.Equal(t, "yeni açıklama", edited.Description)
		assert.Equal(t, row.Date, edited.Date)
		assert.Equal(t, row.Amount, edited.Amount)
	})
}
