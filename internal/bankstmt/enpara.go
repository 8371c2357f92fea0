package bankstmt

// Enpara account-movement exports carry a combined date-time column headed
// "Tarih/Saat"; data starts on the row right below it.
var enparaLayout = layout{
	BankName:   "Enpara",
	Marker:     "Tarih/Saat",
	MarkerCol:  0,
	DataOffset: 1,
	DateLayout: "02/01/2006-15:04:05",
	DateCol:    0,
	DescCol:    1,
	AmountCol:  2,
	BalanceCol: 3,
}

// NewEnparaParser returns a parser for Enpara account-movement exports.
func NewEnparaParser(lookup DateRangeLookup) Parser {
	return &statementParser{layout: enparaLayout, lookup: lookup}
}
