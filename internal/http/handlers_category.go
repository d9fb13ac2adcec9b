package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	c, err := s.categories.Create(r.Context(), claimsFrom(r).UserID, strings.TrimSpace(req.Name), typ)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.categories.Get(r.Context(), claimsFrom(r).UserID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var typ core.TransactionType
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		parsed, err := core.ParseTransactionType(v)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		typ = parsed
	}

	cs, err := s.categories.List(r.Context(), claimsFrom(r).UserID, typ)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if cs == nil {
		cs = []core.Category{}
	}
	respondJSON(w, http.StatusOK, cs)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	c, err := s.categories.Update(r.Context(), claimsFrom(r).UserID, r.PathValue("id"), strings.TrimSpace(req.Name), typ)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.categories.Delete(r.Context(), claimsFrom(r).UserID, r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
