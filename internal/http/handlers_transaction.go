package http

import (
	"net/http"

	"fintrack/internal/core"
)

type transactionRequest struct {
	AccountID   string `json:"account_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id,omitempty"`
	Date        string `json:"date"`
	Cleared     bool   `json:"cleared,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id,omitempty"`
	Date        string `json:"date"`
	Cleared     bool   `json:"cleared"`
	Notes       string `json:"notes,omitempty"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		Type:        string(tx.Type),
		Amount:      tx.Amount.StringFixed(2),
		Description: tx.Description,
		CategoryID:  tx.CategoryID,
		Date:        formatDate(tx.Date),
		Cleared:     tx.Cleared,
		Notes:       tx.Notes,
	}
}

func (r transactionRequest) toDomain(owner string) (core.Transaction, error) {
	amount, err := core.ParseAmount(r.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(r.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Owner:       owner,
		AccountID:   r.AccountID,
		Type:        core.TransactionType(r.Type),
		Amount:      amount,
		Description: sanitizeInput(r.Description),
		CategoryID:  r.CategoryID,
		Date:        date,
		Cleared:     r.Cleared,
		Notes:       sanitizeInput(r.Notes),
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	tx, err := req.toDomain(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.svc.Transactions.Record(r.Context(), tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	tx, err := s.svc.Transactions.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	tx, err := req.toDomain(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	tx.ID = r.PathValue("id")

	updated, err := s.svc.Transactions.Edit(r.Context(), tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.svc.Transactions.Remove(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
