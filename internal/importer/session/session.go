// Package session models one UI-driven import session as a server-side
// state machine: upload, mapping, preview, importing, results.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rivalth/kumbara/internal/importer"
	"github.com/rivalth/kumbara/internal/tabular"
	"github.com/rivalth/kumbara/internal/transaction"
)

var (
	ErrNotFound          = errors.New("import session not found")
	ErrInvalidTransition = errors.New("invalid session state for this operation")
	ErrMappingIncomplete = errors.New("date and amount columns must be assigned")
	ErrNoImportableRows  = errors.New("no error-free rows to import")
	ErrRowOutOfRange     = errors.New("row index out of range")
)

// State is the phase of an import session.
type State string

const (
	// StateMapping means the file parsed and column assignment is pending.
	// A session is born here: the upload phase either produces a session in
	// mapping state or no session at all.
	StateMapping State = "mapping"
	// StatePreview means rows are materialized and editable.
	StatePreview State = "preview"
	// StateImporting means a bulk import is in flight. It always resolves
	// to results; it never loops back.
	StateImporting State = "importing"
	// StateResults means the import finished (successfully or not) and
	// per-row retries are available.
	StateResults State = "results"
)

// Session is one user's import in progress. Concurrent requests can hold the
// same session, so every method takes the session mutex; ID, UserID,
// WalletID and CreatedAt are set once and read freely.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	WalletID  uuid.UUID
	CreatedAt time.Time

	mu      sync.Mutex
	state   State
	headers []string
	rows    []tabular.Row
	mapping tabular.ColumnMapping

	preview []importer.ProcessedRow

	// result and importErr are set when the session reaches results.
	// importErr non-empty means the bulk call failed as a whole.
	result    *transaction.BulkImportResult
	importErr string

	// retried tracks failed-row indices that later succeeded one by one.
	retried map[int]bool

	closed bool
}

// New starts a session from a successfully parsed table. The upload state is
// implicit: a failed parse never creates a session.
func New(userID, walletID uuid.UUID, table *tabular.Table) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		WalletID:  walletID,
		CreatedAt: time.Now(),
		state:     StateMapping,
		headers:   table.Headers,
		rows:      table.Rows,
		mapping:   tabular.DetectColumnMapping(table.Headers),
		retried:   make(map[int]bool),
	}
}

// Snapshot is a consistent read of the mutable session fields, taken under
// the session mutex so renderers never observe a half-applied transition.
type Snapshot struct {
	ID        uuid.UUID
	State     State
	Headers   []string
	Mapping   tabular.ColumnMapping
	RowCount  int
	Preview   []importer.ProcessedRow
	Result    *transaction.BulkImportResult
	ImportErr string
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.ID,
		State:     s.state,
		Headers:   s.headers,
		Mapping:   s.mapping,
		RowCount:  len(s.rows),
		Result:    s.result,
		ImportErr: s.importErr,
	}

	snap.Preview = make([]importer.ProcessedRow, len(s.preview))
	copy(snap.Preview, s.preview)

	return snap
}

// SetMapping overrides the detected mapping and materializes the preview.
// Allowed from mapping (first assignment) and preview (remapping before
// commit). Requires at least date and amount to be assigned.
func (s *Session) SetMapping(m tabular.ColumnMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMapping && s.state != StatePreview {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, s.state)
	}

	if !m.Usable() {
		return ErrMappingIncomplete
	}

	s.mapping = m
	s.preview = importer.ProcessRows(s.rows, m)
	s.state = StatePreview

	return nil
}

// EditRow applies a correction to one preview row, re-validates it and
// returns the updated row.
func (s *Session) EditRow(idx int, edit importer.Edit) (importer.ProcessedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePreview {
		return importer.ProcessedRow{}, fmt.Errorf("%w: %s", ErrInvalidTransition, s.state)
	}

	if idx < 0 || idx >= len(s.preview) {
		return importer.ProcessedRow{}, ErrRowOutOfRange
	}

	s.preview[idx] = importer.ApplyEdit(s.preview[idx], edit)

	return s.preview[idx], nil
}

// DeleteRow removes one preview row.
func (s *Session) DeleteRow(idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePreview {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, s.state)
	}

	if idx < 0 || idx >= len(s.preview) {
		return ErrRowOutOfRange
	}

	s.preview = append(s.preview[:idx], s.preview[idx+1:]...)

	return nil
}

// BeginImport gates the transition to importing: only one import can be in
// flight per session, and at least one error-free row must exist. The check
// and the transition happen under the same lock, so of two racing commits
// exactly one proceeds. It returns the importable rows in preview order.
func (s *Session) BeginImport() ([]importer.ProcessedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePreview {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, s.state)
	}

	var importable []importer.ProcessedRow

	for _, row := range s.preview {
		if row.Importable() {
			importable = append(importable, row)
		}
	}

	if len(importable) == 0 {
		return nil, ErrNoImportableRows
	}

	s.state = StateImporting

	return importable, nil
}

// Finish resolves the importing state to results with either a result or a
// whole-call failure. Importing never transitions anywhere else.
func (s *Session) Finish(result *transaction.BulkImportResult, importErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateImporting {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, s.state)
	}

	s.result = result
	if importErr != nil {
		s.importErr = importErr.Error()
	}

	s.state = StateResults

	return nil
}

// ClaimRetry reserves the failed row at the given result index for an
// individual re-submission and returns its params. Claiming marks the row,
// so of two racing retries only one gets the params; ReleaseRetry undoes
// the claim when the re-submission fails.
func (s *Session) ClaimRetry(idx int) (transaction.CreateParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResults {
		return transaction.CreateParams{}, fmt.Errorf("%w: %s", ErrInvalidTransition, s.state)
	}

	if s.result == nil {
		return transaction.CreateParams{}, ErrRowOutOfRange
	}

	for _, f := range s.result.FailedRows {
		if f.Index == idx && !s.retried[idx] {
			s.retried[idx] = true
			return f.Params, nil
		}
	}

	return transaction.CreateParams{}, ErrRowOutOfRange
}

// ReleaseRetry makes a claimed row retryable again.
func (s *Session) ReleaseRetry(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.retried, idx)
}

// Retried reports whether the failed row at idx was re-submitted.
func (s *Session) Retried(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retried[idx]
}

// Close ends the session. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}
