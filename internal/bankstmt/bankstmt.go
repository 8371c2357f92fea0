// Package bankstmt parses proprietary Excel account-statement exports from
// supported Turkish banks into transactions ready for storage.
package bankstmt

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Bank identifies a supported statement format.
type Bank string

const (
	BankEnpara Bank = "enpara"
	BankIsbank Bank = "isbank"
)

// TurkeyUTCOffsetHours is the fixed offset of Turkey local time from UTC.
// Turkey has not observed DST since 2016, so statement timestamps convert
// to UTC by subtracting exactly this many hours. This is a design constant
// for these two bank formats, not a general timezone solution.
const TurkeyUTCOffsetHours = 3

var turkeyZone = time.FixedZone("TRT", TurkeyUTCOffsetHours*60*60)

// ParsedTransaction is one statement line in normalized form.
type ParsedTransaction struct {
	// Date is the precise UTC instant of the transaction.
	Date time.Time
	// Amount is the absolute value in kuruş. Direction is not assigned
	// here; the caller infers it from the description and context.
	Amount int64
	// Description is the free-text statement line.
	Description string
	// Balance is the running account balance stated by the bank, in kuruş.
	Balance int64
	// Order disambiguates transactions sharing the same instant: 0-based,
	// increasing in source order, reset on each distinct instant.
	Order int
}

// Options carries the import target. The wallet's already-stored date range
// is used to skip rows from statement periods that were imported before.
type Options struct {
	WalletID uuid.UUID
	UserID   uuid.UUID
}

// Result is the outcome of parsing one statement file. Malformed rows never
// abort the parse; their problems are collected in Errors.
type Result struct {
	Transactions []ParsedTransaction
	Errors       []string
}

// Parser extracts transactions from one bank's statement export.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, opts Options) (*Result, error)
}

// DateRangeLookup reports the oldest and newest transaction dates already
// stored for a wallet. Either bound is nil when no transactions exist.
type DateRangeLookup interface {
	StoredDateRange(ctx context.Context, walletID, userID uuid.UUID) (oldest, newest *time.Time, err error)
}

// Service dispatches statement files to the parser registered for a bank.
type Service struct {
	parsers map[Bank]Parser
}

// NewService builds a service with the built-in bank parsers registered.
func NewService(lookup DateRangeLookup) *Service {
	return &Service{
		parsers: map[Bank]Parser{
			BankEnpara: NewEnparaParser(lookup),
			BankIsbank: NewIsbankParser(lookup),
		},
	}
}

// Register adds or replaces the parser for a bank.
func (s *Service) Register(bank Bank, p Parser) {
	s.parsers[bank] = p
}

func (s *Service) Parse(ctx context.Context, bank Bank, r io.Reader, opts Options) (*Result, error) {
	p, ok := s.parsers[bank]
	if !ok {
		return nil, fmt.Errorf("unknown bank: %s", bank)
	}

	return p.Parse(ctx, r, opts)
}
