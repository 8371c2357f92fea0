// Package importfile exposes the statement-import pipeline over HTTP: the
// generic CSV/Excel session flow and the bank-specific statement flow.
package importfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rivalth/kumbara/internal/bankstmt"
	"github.com/rivalth/kumbara/internal/classify"
	"github.com/rivalth/kumbara/internal/http/middleware"
	"github.com/rivalth/kumbara/internal/importer"
	"github.com/rivalth/kumbara/internal/importer/session"
	"github.com/rivalth/kumbara/internal/money"
	"github.com/rivalth/kumbara/internal/tabular"
	"github.com/rivalth/kumbara/internal/transaction"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	sessions *session.Store
	txSvc    *transaction.Service
	bankSvc  *bankstmt.Service
}

func NewHandler(sessions *session.Store, txSvc *transaction.Service, bankSvc *bankstmt.Service) *Handler {
	return &Handler{
		sessions: sessions,
		txSvc:    txSvc,
		bankSvc:  bankSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/sessions", h.createSession)
	r.Put("/sessions/{id}/mapping", h.setMapping)
	r.Patch("/sessions/{id}/rows/{idx}", h.editRow)
	r.Delete("/sessions/{id}/rows/{idx}", h.deleteRow)
	r.Post("/sessions/{id}/commit", h.commit)
	r.Post("/sessions/{id}/retry/{idx}", h.retryRow)
	r.Delete("/sessions/{id}", h.closeSession)

	r.Post("/bank", h.importBank)
}

type mappingDTO struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type processedRowDTO struct {
	Date        string               `json:"date"`
	Amount      int64                `json:"amount"`
	AmountText  string               `json:"amount_text"`
	Description string               `json:"description"`
	Type        transaction.Type     `json:"type"`
	Category    transaction.Category `json:"category"`
	Errors      []string             `json:"errors,omitempty"`
}

type sessionResponse struct {
	ID       uuid.UUID         `json:"id"`
	State    session.State     `json:"state"`
	Headers  []string          `json:"headers"`
	Mapping  mappingDTO        `json:"mapping"`
	RowCount int               `json:"row_count"`
	Preview  []processedRowDTO `json:"preview,omitempty"`
}

type failedRowDTO struct {
	Index  int             `json:"index"`
	Row    processedRowDTO `json:"row"`
	Errors []string        `json:"errors"`
}

type commitResponse struct {
	SuccessCount int            `json:"success_count"`
	FailedCount  int            `json:"failed_count"`
	FailedRows   []failedRowDTO `json:"failed_rows,omitempty"`
	ImportError  string         `json:"import_error,omitempty"`
}

// createSession is the upload phase: one file in, a session in mapping state
// out. A parse failure creates no session and surfaces a single message.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	walletID, err := uuid.Parse(r.FormValue("wallet_id"))
	if err != nil {
		http.Error(w, "wallet_id field is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	table, err := tabular.Parse(file, header.Filename)
	if err != nil {
		var parseErr *tabular.ParseError
		if errors.As(err, &parseErr) {
			http.Error(w, parseErr.Message, http.StatusUnprocessableEntity)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	sess := session.New(middleware.UserID(r.Context()), walletID, table)
	h.sessions.Put(sess)

	writeJSON(w, http.StatusCreated, toSessionResponse(sess.Snapshot()))
}

func (h *Handler) setMapping(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSession(w, r)
	if !ok {
		return
	}

	var req mappingDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := sess.SetMapping(tabular.ColumnMapping{
		Date:        req.Date,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess.Snapshot()))
}

func (h *Handler) editRow(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSession(w, r)
	if !ok {
		return
	}

	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		http.Error(w, "invalid row index", http.StatusBadRequest)
		return
	}

	var edit struct {
		Date        *string               `json:"date"`
		Amount      *string               `json:"amount"`
		Description *string               `json:"description"`
		Type        *transaction.Type     `json:"type"`
		Category    *transaction.Category `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	row, err := sess.EditRow(idx, importer.Edit{
		Date:        edit.Date,
		Amount:      edit.Amount,
		Description: edit.Description,
		Type:        edit.Type,
		Category:    edit.Category,
	})
	if err != nil {
		http.Error(w, err.Error(), statusForSessionError(err))
		return
	}

	writeJSON(w, http.StatusOK, toRowDTO(row))
}

func (h *Handler) deleteRow(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSession(w, r)
	if !ok {
		return
	}

	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		http.Error(w, "invalid row index", http.StatusBadRequest)
		return
	}

	if err := sess.DeleteRow(idx); err != nil {
		http.Error(w, err.Error(), statusForSessionError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// commit runs the bulk import for all error-free preview rows. The session
// always lands in results, whether the bulk call succeeded or failed.
func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSession(w, r)
	if !ok {
		return
	}

	rows, err := sess.BeginImport()
	if err != nil {
		http.Error(w, err.Error(), statusForSessionError(err))
		return
	}

	params := make([]transaction.CreateParams, len(rows))
	for i, row := range rows {
		params[i] = rowToParams(row, sess.WalletID, sess.UserID)
	}

	result, importErr := h.txSvc.BulkImport(r.Context(), params)

	if err := sess.Finish(result, importErr); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	if importErr != nil {
		slog.Error("bulk import failed", "session", sess.ID, "error", importErr)
		writeJSON(w, http.StatusInternalServerError, commitResponse{ImportError: importErr.Error()})

		return
	}

	writeJSON(w, http.StatusOK, toCommitResponse(result))
}

// retryRow re-submits one failed row through the single-transaction path.
func (h *Handler) retryRow(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSession(w, r)
	if !ok {
		return
	}

	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		http.Error(w, "invalid row index", http.StatusBadRequest)
		return
	}

	params, err := sess.ClaimRetry(idx)
	if err != nil {
		http.Error(w, err.Error(), statusForSessionError(err))
		return
	}

	if _, err := h.txSvc.Create(r.Context(), params); err != nil {
		sess.ReleaseRetry(idx)
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// closeSession ends a session. Closing an already-closed or unknown session
// succeeds, so the close action is idempotent.
func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	if sess, err := h.sessions.Get(id, middleware.UserID(r.Context())); err == nil {
		sess.Close()
		h.sessions.Remove(id)
	}

	w.WriteHeader(http.StatusNoContent)
}

type bankImportResponse struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// importBank is the bank-statement path: parse a proprietary export, let
// the classifier assign type and category, and create rows one by one.
func (h *Handler) importBank(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	bank := bankstmt.Bank(r.FormValue("bank"))
	if bank == "" {
		http.Error(w, "bank field is required", http.StatusBadRequest)
		return
	}

	walletID, err := uuid.Parse(r.FormValue("wallet_id"))
	if err != nil {
		http.Error(w, "wallet_id field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	userID := middleware.UserID(r.Context())

	result, err := h.bankSvc.Parse(r.Context(), bank, file, bankstmt.Options{
		WalletID: walletID,
		UserID:   userID,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	resp := bankImportResponse{Errors: result.Errors}

	for i, tx := range result.Transactions {
		description := classify.EnhanceDescription(tx.Description)
		txType := classify.DetectType(tx.Amount, description)

		category, found := classify.DetectCategory(description)
		if !found {
			category = classify.FallbackCategory(txType)
		}

		_, err := h.txSvc.Create(r.Context(), transaction.CreateParams{
			WalletID:    walletID,
			UserID:      userID,
			Amount:      tx.Amount,
			Type:        txType,
			Category:    category,
			Description: description,
			Date:        tx.Date,
		})
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("transaction %d: %v", i, err))

			continue
		}

		resp.Imported++
	}

	writeJSON(w, http.StatusCreated, resp)
}

// getSession resolves the session from the URL for the authenticated user,
// writing the error response itself when it fails.
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return nil, false
	}

	sess, err := h.sessions.Get(id, middleware.UserID(r.Context()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}

	return sess, true
}

func statusForSessionError(err error) int {
	switch {
	case errors.Is(err, session.ErrRowOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrMappingIncomplete),
		errors.Is(err, session.ErrNoImportableRows):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func rowToParams(row importer.ProcessedRow, walletID, userID uuid.UUID) transaction.CreateParams {
	return transaction.CreateParams{
		WalletID:    walletID,
		UserID:      userID,
		Amount:      row.Amount,
		Type:        row.Type,
		Category:    row.Category,
		Description: row.Description,
		Date:        row.Date,
	}
}

func toSessionResponse(snap session.Snapshot) sessionResponse {
	resp := sessionResponse{
		ID:      snap.ID,
		State:   snap.State,
		Headers: snap.Headers,
		Mapping: mappingDTO{
			Date:        snap.Mapping.Date,
			Amount:      snap.Mapping.Amount,
			Description: snap.Mapping.Description,
		},
		RowCount: snap.RowCount,
	}

	for _, row := range snap.Preview {
		resp.Preview = append(resp.Preview, toRowDTO(row))
	}

	return resp
}

func toRowDTO(row importer.ProcessedRow) processedRowDTO {
	dto := processedRowDTO{
		Amount:      row.Amount,
		AmountText:  money.Format(row.Amount),
		Description: row.Description,
		Type:        row.Type,
		Category:    row.Category,
		Errors:      row.Errors,
	}

	if !row.Date.IsZero() {
		dto.Date = row.Date.Format(time.DateOnly)
	}

	return dto
}

func toCommitResponse(result *transaction.BulkImportResult) commitResponse {
	resp := commitResponse{
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
	}

	for _, f := range result.FailedRows {
		resp.FailedRows = append(resp.FailedRows, failedRowDTO{
			Index: f.Index,
			Row: processedRowDTO{
				Date:        f.Params.Date.Format(time.DateOnly),
				Amount:      f.Params.Amount,
				AmountText:  money.Format(f.Params.Amount),
				Description: f.Params.Description,
				Type:        f.Params.Type,
				Category:    f.Params.Category,
			},
			Errors: f.Errors,
		})
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
