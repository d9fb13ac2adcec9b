package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/services"
)

type transactionRequest struct {
	CategoryID  string `json:"categoryId"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type transactionResponse struct {
	Transaction core.Transaction `json:"transaction"`
	Message     string           `json:"message"`
	AdviceClass string           `json:"adviceClass"`
	Advice      string           `json:"advice"`
}

func toTransactionInput(req transactionRequest) (services.TransactionInput, error) {
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		return services.TransactionInput{}, err
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return services.TransactionInput{}, err
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Amount:      amount,
		Type:        typ,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
	}, nil
}

func toTransactionResponse(res services.TransactionResult) transactionResponse {
	return transactionResponse{
		Transaction: res.Transaction,
		Message:     res.Message,
		AdviceClass: string(res.AdviceClass),
		Advice:      res.AdviceMessage,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := toTransactionInput(req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	res, err := s.transactions.Create(r.Context(), claimsFrom(r).UserID, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTransactionResponse(res))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.Context(), claimsFrom(r).UserID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	ts, err := s.transactions.List(r.Context(), claimsFrom(r).UserID, f)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if ts == nil {
		ts = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, ts)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := toTransactionInput(req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	res, err := s.transactions.Update(r.Context(), claimsFrom(r).UserID, r.PathValue("id"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(res))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	msg, err := s.transactions.Delete(r.Context(), claimsFrom(r).UserID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	summary, err := s.transactions.Summary(r.Context(), claimsFrom(r).UserID, f)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseDateParam(q.Get("startDate"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	end, err := parseDateParam(q.Get("endDate"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	claims := claimsFrom(r)
	doc, err := s.reports.Generate(r.Context(), claims.UserID, claims.Email, start, end)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="report.html"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
