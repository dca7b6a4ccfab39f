package http

import (
	"net/http"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

type categoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
	IsDefault bool   `json:"is_default"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		Icon:      c.Icon,
		Color:     c.Color,
		IsDefault: c.IsDefault,
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.repo.EnsureDefaultCategories(r.Context(), owner); err != nil {
		writeError(w, err)
		return
	}

	cats, err := s.repo.ListCategories(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		resp = append(resp, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	name := sanitizeInput(req.Name)
	if name == "" {
		writeError(w, core.ErrEmptyName)
		return
	}
	catType := core.CategoryType(req.Type)
	if catType != core.CategoryExpense && catType != core.CategoryIncome {
		writeError(w, core.ErrInvalidType)
		return
	}

	created, err := s.repo.CreateCategory(r.Context(), core.Category{
		Owner: owner,
		Name:  name,
		Type:  catType,
		Icon:  sanitizeInput(req.Icon),
		Color: sanitizeInput(req.Color),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.repo.DeleteCategory(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
