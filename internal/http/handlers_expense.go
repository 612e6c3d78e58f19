package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"kharcha/internal/core"
	"kharcha/internal/storage"
)

// updateRequest carries the updatable fields. Raw JSON values distinguish
// "absent" from "present but empty".
type updateRequest struct {
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Type        *string  `json:"type"`
	Description *string  `json:"description"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense id")
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Type != nil && *req.Type != core.TypeDebit && *req.Type != core.TypeCredit {
		writeError(w, http.StatusBadRequest, "Type must be 'debit' or 'credit'")
		return
	}

	rec, err := s.store.UpdateExpense(r.Context(), id, userID, storage.Changes{
		Amount:      req.Amount,
		Category:    req.Category,
		Type:        req.Type,
		Description: req.Description,
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Expense not found or unauthorized")
		return
	case errors.Is(err, core.ErrInvalidType):
		writeError(w, http.StatusBadRequest, "Type must be 'debit' or 'credit'")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Failed to update expense", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.invalidateUser(rec.UserID)
	if s.publisher != nil {
		if err := s.publisher.PublishRecordSync(r.Context(), rec.ID); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to publish backup request", "id", rec.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": rec})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense id")
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))

	// Load the record first: an unfiltered delete still needs the owner's
	// cached dashboards invalidated and the owner on the backup message.
	rec, err := s.store.GetExpense(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Expense not found or unauthorized")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Failed to load expense", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	err = s.store.DeleteExpense(r.Context(), id, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Expense not found or unauthorized")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Failed to delete expense", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.invalidateUser(rec.UserID)
	if s.publisher != nil {
		if err := s.publisher.PublishRecordDelete(r.Context(), id, rec.UserID); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to publish backup delete", "id", id, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type featureRequest struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

func (s *Server) handleFeatureRequest(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Text = sanitizeInput(req.Text)
	req.Username = sanitizeInput(req.Username)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "Feature description is required")
		return
	}

	id, err := s.store.CreateFeatureRequest(r.Context(), req.Text, req.Username)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to save feature request", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"id":       id,
			"text":     req.Text,
			"username": req.Username,
		},
	})
}
