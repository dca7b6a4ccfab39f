package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type recurringRequest struct {
	AccountID   string  `json:"account_id"`
	Type        string  `json:"type"`
	Amount      string  `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id,omitempty"`
	Frequency   string  `json:"frequency"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type recurringResponse struct {
	ID                string  `json:"id"`
	AccountID         string  `json:"account_id"`
	Type              string  `json:"type"`
	Amount            string  `json:"amount"`
	Description       string  `json:"description"`
	CategoryID        string  `json:"category_id,omitempty"`
	Frequency         string  `json:"frequency"`
	StartDate         string  `json:"start_date"`
	NextDate          string  `json:"next_date"`
	EndDate           *string `json:"end_date,omitempty"`
	IsActive          bool    `json:"is_active"`
	LastGeneratedDate *string `json:"last_generated_date,omitempty"`
}

func toRecurringResponse(rec core.RecurringTransaction) recurringResponse {
	return recurringResponse{
		ID:                rec.ID,
		AccountID:         rec.AccountID,
		Type:              string(rec.Type),
		Amount:            rec.Amount.StringFixed(2),
		Description:       rec.Description,
		CategoryID:        rec.CategoryID,
		Frequency:         string(rec.Frequency),
		StartDate:         formatDate(rec.StartDate),
		NextDate:          formatDate(rec.NextDate),
		EndDate:           formatDatePtr(rec.EndDate),
		IsActive:          rec.IsActive,
		LastGeneratedDate: formatDatePtr(rec.LastGeneratedDate),
	}
}

func (r recurringRequest) toDomain(owner string) (core.RecurringTransaction, error) {
	amount, err := core.ParseAmount(r.Amount)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	startDate, err := parseDate(r.StartDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}

	rec := core.RecurringTransaction{
		Owner:       owner,
		AccountID:   r.AccountID,
		Type:        core.TransactionType(r.Type),
		Amount:      amount,
		Description: sanitizeInput(r.Description),
		CategoryID:  r.CategoryID,
		Frequency:   core.Frequency(r.Frequency),
		StartDate:   startDate,
		IsActive:    true,
	}
	if r.EndDate != nil {
		endDate, err := parseDate(*r.EndDate)
		if err != nil {
			return core.RecurringTransaction{}, err
		}
		rec.EndDate = &endDate
	}
	if r.IsActive != nil {
		rec.IsActive = *r.IsActive
	}
	return rec, nil
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	rec, err := req.toDomain(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.svc.Recurring.Create(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringResponse(created))
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	recs, err := s.svc.Recurring.List(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]recurringResponse, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, toRecurringResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	rec, err := s.svc.Recurring.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringResponse(rec))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	rec, err := req.toDomain(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	rec.ID = r.PathValue("id")

	updated, err := s.svc.Recurring.Update(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringResponse(updated))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.svc.Recurring.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sweepResponse struct {
	Generated int `json:"generated"`
}

// handleSweep runs an on-demand sweep for the requesting owner. Concurrent
// requests for the same owner share a single run.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err, _ := s.sweepGroup.Do(owner, func() (any, error) {
		return s.svc.Processor.Sweep(r.Context(), owner, time.Now().UTC())
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{Generated: result.(int)})
}
