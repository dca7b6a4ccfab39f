package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type goalRequest struct {
	Name         string  `json:"name"`
	TargetAmount string  `json:"target_amount"`
	Deadline     *string `json:"deadline,omitempty"`
}

type goalResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	TargetAmount  string               `json:"target_amount"`
	CurrentAmount string               `json:"current_amount"`
	Deadline      *string              `json:"deadline,omitempty"`
	IsCompleted   bool                 `json:"is_completed"`
	CompletedAt   *string              `json:"completed_at,omitempty"`
	Progress      goalProgressResponse `json:"progress"`
}

type goalProgressResponse struct {
	PercentComplete   float64 `json:"percent_complete"`
	AmountRemaining   string  `json:"amount_remaining"`
	DaysUntilDeadline *int    `json:"days_until_deadline,omitempty"`
	IsOnTrack         bool    `json:"is_on_track"`
}

func (s *Server) toGoalResponse(g core.SavingsGoal, now time.Time) goalResponse {
	p := s.svc.Goals.Progress(g, now)
	return goalResponse{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount.StringFixed(2),
		CurrentAmount: g.CurrentAmount.StringFixed(2),
		Deadline:      formatDatePtr(g.Deadline),
		IsCompleted:   g.IsCompleted,
		CompletedAt:   formatDatePtr(g.CompletedAt),
		Progress: goalProgressResponse{
			PercentComplete:   p.PercentComplete,
			AmountRemaining:   p.AmountRemaining.StringFixed(2),
			DaysUntilDeadline: p.DaysUntilDeadline,
			IsOnTrack:         p.IsOnTrack,
		},
	}
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	target, err := core.ParseAmount(req.TargetAmount)
	if err != nil {
		writeError(w, err)
		return
	}

	goal := core.SavingsGoal{
		Owner:        owner,
		Name:         sanitizeInput(req.Name),
		TargetAmount: target,
	}
	if req.Deadline != nil {
		deadline, err := parseDate(*req.Deadline)
		if err != nil {
			writeBadRequest(w, "invalid deadline, want YYYY-MM-DD")
			return
		}
		goal.Deadline = &deadline
	}

	created, err := s.svc.Goals.Create(r.Context(), goal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.toGoalResponse(created, time.Now().UTC()))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	goals, err := s.svc.Goals.List(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	resp := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		resp = append(resp, s.toGoalResponse(g, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	g, err := s.svc.Goals.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toGoalResponse(g, time.Now().UTC()))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	target, err := core.ParseAmount(req.TargetAmount)
	if err != nil {
		writeError(w, err)
		return
	}

	goal := core.SavingsGoal{
		ID:           r.PathValue("id"),
		Owner:        owner,
		Name:         sanitizeInput(req.Name),
		TargetAmount: target,
	}
	if req.Deadline != nil {
		deadline, err := parseDate(*req.Deadline)
		if err != nil {
			writeBadRequest(w, "invalid deadline, want YYYY-MM-DD")
			return
		}
		goal.Deadline = &deadline
	}

	updated, err := s.svc.Goals.Update(r.Context(), goal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toGoalResponse(updated, time.Now().UTC()))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.svc.Goals.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type contributionRequest struct {
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
	Date   string `json:"date,omitempty"`
}

type contributionResponse struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
	Date   string `json:"date"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req contributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = parseDate(req.Date)
		if err != nil {
			writeBadRequest(w, "invalid date, want YYYY-MM-DD")
			return
		}
	}

	g, err := s.svc.Goals.Contribute(r.Context(), owner, r.PathValue("id"), amount, sanitizeInput(req.Note), date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toGoalResponse(g, time.Now().UTC()))
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	contributions, err := s.svc.Goals.Contributions(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]contributionResponse, 0, len(contributions))
	for _, c := range contributions {
		resp = append(resp, contributionResponse{
			ID:     c.ID,
			Amount: c.Amount.StringFixed(2),
			Note:   c.Note,
			Date:   formatDate(c.Date),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
