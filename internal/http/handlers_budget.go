package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type budgetRequest struct {
	Name           string  `json:"name"`
	CategoryID     string  `json:"category_id,omitempty"`
	Amount         string  `json:"amount"`
	Period         string  `json:"period"`
	StartDate      string  `json:"start_date"`
	AlertThreshold float64 `json:"alert_threshold,omitempty"`
}

type budgetResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	CategoryID     string  `json:"category_id,omitempty"`
	Amount         string  `json:"amount"`
	Period         string  `json:"period"`
	StartDate      string  `json:"start_date"`
	AlertThreshold float64 `json:"alert_threshold"`
}

type budgetProgressResponse struct {
	Spent         string  `json:"spent"`
	Remaining     string  `json:"remaining"`
	PercentUsed   float64 `json:"percent_used"`
	IsOverBudget  bool    `json:"is_over_budget"`
	DaysRemaining int     `json:"days_remaining"`
	PeriodStart   string  `json:"period_start"`
	PeriodEnd     string  `json:"period_end"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:             b.ID,
		Name:           b.Name,
		CategoryID:     b.CategoryID,
		Amount:         b.Amount.StringFixed(2),
		Period:         string(b.Period),
		StartDate:      formatDate(b.StartDate),
		AlertThreshold: b.AlertThreshold,
	}
}

func toBudgetProgressResponse(p core.BudgetProgress) budgetProgressResponse {
	return budgetProgressResponse{
		Spent:         p.Spent.StringFixed(2),
		Remaining:     p.Remaining.StringFixed(2),
		PercentUsed:   p.PercentUsed,
		IsOverBudget:  p.IsOverBudget,
		DaysRemaining: p.DaysRemaining,
		PeriodStart:   formatDate(p.PeriodStart),
		PeriodEnd:     formatDate(p.PeriodEnd),
	}
}

func (r budgetRequest) toDomain(owner string) (core.Budget, error) {
	amount, err := core.ParseAmount(r.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	startDate, err := parseDate(r.StartDate)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		Owner:          owner,
		Name:           sanitizeInput(r.Name),
		CategoryID:     r.CategoryID,
		Amount:         amount,
		Period:         core.BudgetPeriod(r.Period),
		StartDate:      startDate,
		AlertThreshold: r.AlertThreshold,
	}, nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	b, err := req.toDomain(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.svc.Budgets.Create(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	budgets, err := s.svc.Budgets.List(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		resp = append(resp, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	b, err := s.svc.Budgets.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	b, err := req.toDomain(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	b.ID = r.PathValue("id")

	updated, err := s.svc.Budgets.Update(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.svc.Budgets.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	now := time.Now().UTC()
	if at := r.URL.Query().Get("at"); at != "" {
		parsed, err := parseDate(at)
		if err != nil {
			writeBadRequest(w, "invalid 'at' date, want YYYY-MM-DD")
			return
		}
		now = parsed
	}

	p, err := s.svc.Budgets.Progress(r.Context(), owner, r.PathValue("id"), now)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetProgressResponse(p))
}

func (s *Server) handleAllBudgetProgress(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	progress, err := s.svc.Budgets.ProgressAll(r.Context(), owner, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make(map[string]budgetProgressResponse, len(progress))
	for id, p := range progress {
		resp[id] = toBudgetProgressResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}
