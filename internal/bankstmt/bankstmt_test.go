package bankstmt_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rivalth/kumbara/internal/bankstmt"
)

type fakeDateRange struct {
	oldest *time.Time
	newest *time.Time
	err    error
}

func (f fakeDateRange) StoredDateRange(_ context.Context, _, _ uuid.UUID) (*time.Time, *time.Time, error) {
	return f.oldest, f.newest, f.err
}

// buildStatement writes rows into the first sheet of a fresh workbook and
// returns it serialized, the way a bank export download arrives.
func buildStatement(t *testing.T, rows [][]string) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)

		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}

		require.NoError(t, f.SetSheetRow(sheet, cellName, &vals))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	return bytes.NewReader(buf.Bytes())
}

func timePtr(t time.Time) *time.Time { return &t }

func TestEnparaParser_Parse(t *testing.T) {
	r := buildStatement(t, [][]string{
		{"Hesap hareketleriniz"},
		{"Tarih/Saat", "Açıklama", "Tutar", "Bakiye"},
		{"15/03/2024-14:30:00", "MIGROS TICARET A.S.", "-1.234,56", "10.000,00"},
		{"16/03/2024-09:00:00", "Maaş ödemesi", "45.000,00", "55.000,00"},
		{"", "Toplam"},
	})

	p := bankstmt.NewEnparaParser(fakeDateRange{})

	result, err := p.Parse(context.Background(), r, bankstmt.Options{})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Transactions, 2)

	first := result.Transactions[0]
	assert.Equal(t, time.Date(2024, 3, 15, 11, 30, 0, 0, time.UTC), first.Date)
	assert.Equal(t, int64(123456), first.Amount)
	assert.Equal(t, "MIGROS TICARET A.S.", first.Description)
	assert.Equal(t, int64(1000000), first.Balance)
	assert.Equal(t, 0, first.Order)

	second := result.Transactions[1]
	assert.Equal(t, time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC), second.Date)
	assert.Equal(t, int64(4500000), second.Amount)
}

func TestEnparaParser_OrderDisambiguatesEqualInstants(t *testing.T) {
	r := buildStatement(t, [][]string{
		{"Tarih/Saat", "Açıklama", "Tutar", "Bakiye"},
		{"15/03/2024-14:30:00", "kahve", "-50,00", "100,00"},
		{"15/03/2024-14:30:00", "otopark", "-25,00", "75,00"},
		{"15/03/2024-14:30:00", "market", "-10,00", "65,00"},
		{"15/03/2024-18:00:00", "yemek", "-40,00", "25,00"},
	})

	p := bankstmt.NewEnparaParser(fakeDateRange{})

	result, err := p.Parse(context.Background(), r, bankstmt.Options{})
	require.NoError(t, err)
	require.Len(t, result.Transactions, 4)

	orders := make([]int, 0, 4)
	for _, tx := range result.Transactions {
		orders = append(orders, tx.Order)
	}

	assert.Equal(t, []int{0, 1, 2, 0}, orders)
}

func TestEnparaParser_SkipsStoredDateRange(t *testing.T) {
	lookup := fakeDateRange{
		oldest: timePtr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		newest: timePtr(time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)),
	}

	r := buildStatement(t, [][]string{
		{"Tarih/Saat", "Açıklama", "Tutar", "Bakiye"},
		{"14/03/2024-10:00:00", "önceki gün", "-10,00", "100,00"},
		{"15/03/2024-14:30:00", "kapsanan gün", "-20,00", "80,00"},
		{"16/03/2024-10:00:00", "sonraki gün", "-30,00", "50,00"},
	})

	p := bankstmt.NewEnparaParser(lookup)

	result, err := p.Parse(context.Background(), r, bankstmt.Options{})
	require.NoError(t, err)

	// The covered row is dropped silently, not reported as an error.
	assert.Empty(t, result.Errors)
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "önceki gün", result.Transactions[0].Description)
	assert.Equal(t, "sonraki gün", result.Transactions[1].Description)
}

func TestEnparaParser_CollectsRowErrors(t *testing.T) {
	r := buildStatement(t, [][]string{
		{"Tarih/Saat", "Açıklama", "Tutar", "Bakiye"},
		{"not-a-date", "bozuk tarih", "-10,00", "100,00"},
		{"15/03/2024-14:30:00", "sıfır tutar", "0,00", "100,00"},
		{"15/03/2024-15:00:00", "bozuk bakiye", "-10,00", "abc"},
		{"16/03/2024-10:00:00", "geçerli", "-10,00", "90,00"},
	})

	p := bankstmt.NewEnparaParser(fakeDateRange{})

	result, err := p.Parse(context.Background(), r, bankstmt.Options{})
	require.NoError(t, err)

	assert.Len(t, result.Errors, 3)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "geçerli", result.Transactions[0].Description)
}

func TestEnparaParser_MarkerMissing(t *testing.T) {
	r := buildStatement(t, [][]string{
		{"Tarih", "Açıklama", "Tutar"},
		{"15/03/2024", "satır", "-10,00"},
	})

	p := bankstmt.NewEnparaParser(fakeDateRange{})

	_, err := p.Parse(context.Background(), r, bankstmt.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Enpara")
}

func TestEnparaParser_LookupError(t *testing.T) {
	r := buildStatement(t, [][]string{
		{"Tarih/Saat", "Açıklama", "Tutar", "Bakiye"},
		{"15/03/2024-14:30:00", "satır", "-10,00", "100,00"},
	})

	p := bankstmt.NewEnparaParser(fakeDateRange{err: errors.New("db down")})

	_, err := p.Parse(context.Background(), r, bankstmt.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestEnparaParser_NotAWorkbook(t *testing.T) {
	p := bankstmt.NewEnparaParser(fakeDateRange{})

	_, err := p.Parse(context.Background(), bytes.NewReader([]byte("tarih;tutar\n")), bankstmt.Options{})
	require.Error(t, err)
}

func TestIsbankParser_Parse(t *testing.T) {
	r := buildStatement(t, [][]string{
		{"Hesap Hareketleri"},
		{"Tarih", "Kanal", "Açıklama", "Tutar", "Bakiye"},
		{"15.03.2024", "İnternet", "FAST TR330006100519786457841326", "-1.500,00", "8.500,00"},
		{"16.03.2024", "ATM", "Para yatırma", "2.000,00", "10.500,00"},
	})

	p := bankstmt.NewIsbankParser(fakeDateRange{})

	result, err := p.Parse(context.Background(), r, bankstmt.Options{})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Transactions, 2)

	// Date-only rows are pinned to local noon, which is 09:00 UTC.
	first := result.Transactions[0]
	assert.Equal(t, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, int64(150000), first.Amount)
	assert.Equal(t, "FAST TR330006100519786457841326", first.Description)
	assert.Equal(t, int64(850000), first.Balance)
}

func TestIsbankParser_SameDayRowsShareInstant(t *testing.T) {
	r := buildStatement(t, [][]string{
		{"Hesap Hareketleri"},
		{"Tarih", "Kanal", "Açıklama", "Tutar", "Bakiye"},
		{"15.03.2024", "POS", "market", "-100,00", "900,00"},
		{"15.03.2024", "POS", "kahve", "-50,00", "850,00"},
	})

	p := bankstmt.NewIsbankParser(fakeDateRange{})

	result, err := p.Parse(context.Background(), r, bankstmt.Options{})
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)

	assert.True(t, result.Transactions[0].Date.Equal(result.Transactions[1].Date))
	assert.Equal(t, 0, result.Transactions[0].Order)
	assert.Equal(t, 1, result.Transactions[1].Order)
}

func TestService_Parse(t *testing.T) {
	svc := bankstmt.NewService(fakeDateRange{})

	r := buildStatement(t, [][]string{
		{"Tarih/Saat", "Açıklama", "Tutar", "Bakiye"},
		{"15/03/2024-14:30:00", "satır", "-10,00", "100,00"},
	})

	result, err := svc.Parse(context.Background(), bankstmt.BankEnpara, r, bankstmt.Options{})
	require.NoError(t, err)
	assert.Len(t, result.Transactions, 1)

	_, err = svc.Parse(context.Background(), "akbank", r, bankstmt.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bank")
}
