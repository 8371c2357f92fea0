package bankstmt

// İşbank "Hesap Hareketleri" exports put a title row above the real column
// headers, so data starts two rows below the marker. Dates carry no time
// component; they are pinned to local noon to stay clear of midnight
// boundary and rounding edge cases.
var isbankLayout = layout{
	BankName:    "İşbank",
	Marker:      "Hesap Hareketleri",
	MarkerCol:   0,
	DataOffset:  2,
	DateLayout:  "02.01.2006",
	NoonDefault: true,
	DateCol:     0,
	DescCol:     2,
	AmountCol:   3,
	BalanceCol:  4,
}

// NewIsbankParser returns a parser for İşbank account-movement exports.
func NewIsbankParser(lookup DateRangeLookup) Parser {
	return &statementParser{layout: isbankLayout, lookup: lookup}
}
