package http

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"ledger/internal/auth"
	"ledger/internal/core"
	"ledger/internal/storage"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

const minPasswordLength = 8

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, http.StatusUnprocessableEntity, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	u := storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(r.Context(), u); err != nil {
		// The unique email constraint surfaces as a message, not a
		// sentinel; treat any create failure on an existing email as a
		// conflict.
		if _, lookupErr := s.users.GetUserByEmail(r.Context(), email); lookupErr == nil {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		respondServiceError(w, r, err)
		return
	}

	token, err := s.tokens.IssueToken(u.ID, u.Email)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Token: token, Email: u.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := s.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		// Same response for unknown email and wrong password.
		if errors.Is(err, core.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondServiceError(w, r, err)
		return
	}

	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.tokens.IssueToken(u.ID, u.Email)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Token: token, Email: u.Email})
}
