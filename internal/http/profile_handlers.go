package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dende197/g-connect-backend/internal/models"
	"github.com/dende197/g-connect-backend/internal/services"
)

type ProfileUpdateRequest struct {
	UserID string  `json:"userId"`
	Name   *string `json:"name"`
	Class  *string `json:"class"`
	Avatar *string `json:"avatar"`
}

type StoredProfileResponse struct {
	Success bool                  `json:"success"`
	Data    *models.StoredProfile `json:"data,omitempty"`
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	rec, err := services.GetProfile(s.DB, userID)
	if err != nil {
		var svcErr services.ServiceError
		if errors.As(err, &svcErr) {
			WriteError(w, svcErr.Status, svcErr.Message)
			return
		}
		WriteError(w, http.StatusInternalServerError, "Errore interno")
		return
	}
	WriteJSON(w, http.StatusOK, StoredProfileResponse{Success: true, Data: rec})
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	if err := services.UpdateStoredProfile(s.DB, req.UserID, req.Name, req.Class, req.Avatar); err != nil {
		var svcErr services.ServiceError
		if errors.As(err, &svcErr) {
			WriteError(w, svcErr.Status, svcErr.Message)
			return
		}
		WriteError(w, http.StatusInternalServerError, "Errore interno")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, services.CaptureHealth(s.DB != nil))
}
