package http

import (
	"net/http"

	"fintrack/internal/core"
)

type accountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance,omitempty"`
	Color          string `json:"color,omitempty"`
	Icon           string `json:"icon,omitempty"`
	Active         *bool  `json:"active,omitempty"`
}

type accountResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	Balance        string `json:"balance"`
	Color          string `json:"color,omitempty"`
	Icon           string `json:"icon,omitempty"`
	Active         bool   `json:"active"`
	CreatedAt      string `json:"created_at"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance.StringFixed(2),
		Balance:        a.Balance.StringFixed(2),
		Color:          a.Color,
		Icon:           a.Icon,
		Active:         a.Active,
		CreatedAt:      formatDate(a.CreatedAt),
	}
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	account := core.Account{
		Owner: owner,
		Name:  sanitizeInput(req.Name),
		Type:  core.AccountType(req.Type),
		Color: sanitizeInput(req.Color),
		Icon:  sanitizeInput(req.Icon),
	}
	if req.InitialBalance != "" {
		balance, err := core.ParseAmount(req.InitialBalance)
		if err != nil {
			writeError(w, err)
			return
		}
		account.InitialBalance = balance
	}

	created, err := s.svc.Accounts.Create(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	accounts, err := s.svc.Accounts.List(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	account, err := s.svc.Accounts.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	existing, err := s.svc.Accounts.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	existing.Name = sanitizeInput(req.Name)
	existing.Type = core.AccountType(req.Type)
	existing.Color = sanitizeInput(req.Color)
	existing.Icon = sanitizeInput(req.Icon)
	if req.Active != nil {
		existing.Active = *req.Active
	}

	updated, err := s.svc.Accounts.Update(r.Context(), existing)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(updated))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.svc.Accounts.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ledgerLineResponse struct {
	Transaction    transactionResponse `json:"transaction"`
	RunningBalance string              `json:"running_balance"`
}

func (s *Server) handleAccountLedger(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	lines, err := s.svc.Transactions.Ledger(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]ledgerLineResponse, 0, len(lines))
	for _, line := range lines {
		resp = append(resp, ledgerLineResponse{
			Transaction:    toTransactionResponse(line.Transaction),
			RunningBalance: line.RunningBalance.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	txs, err := s.svc.Transactions.ListByAccount(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, resp)
}

type reconcileResponse struct {
	AccountID string `json:"account_id"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
	Drift     string `json:"drift"`
	Repaired  bool   `json:"repaired"`
}

func (s *Server) handleReconcileAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	repair := r.URL.Query().Get("repair") == "true"
	report, err := s.svc.Reconciler.Reconcile(r.Context(), owner, r.PathValue("id"), repair)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reconcileResponse{
		AccountID: report.AccountID,
		Expected:  report.Expected.StringFixed(2),
		Actual:    report.Actual.StringFixed(2),
		Drift:     report.Drift.StringFixed(2),
		Repaired:  report.Repaired,
	})
}
