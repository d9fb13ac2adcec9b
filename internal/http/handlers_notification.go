package http

import (
	"net/http"

	"ledger/internal/storage"
)

const defaultNotificationLimit = 50

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultNotificationLimit)

	ns, err := s.notifications.ListNotifications(r.Context(), claimsFrom(r).UserID, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if ns == nil {
		ns = []storage.Notification{}
	}
	respondJSON(w, http.StatusOK, ns)
}
