package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"property-backend/internal/models"
	"property-backend/internal/services"
	"property-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.AuthService
}

func NewAuthHandler(s *services.AuthService) *AuthHandler {
	return &AuthHandler{Service: s}
}

// Login handles landlord authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	resp, err := h.Service.Login(ctx, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Printf("[Auth] Landlord %d logged in from %s", resp.Landlord.ID, r.RemoteAddr)
	utils.JSON(w, http.StatusOK, resp)
}
