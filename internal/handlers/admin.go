package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tkloetzk/smartgarden/internal/middleware"
	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/repository"
)

type AdminHandler struct {
	userRepo     repository.UserRepository
	tokenRepo    repository.APITokenRepository
	settingsRepo repository.SettingsRepository
}

func NewAdminHandler(
	userRepo repository.UserRepository,
	tokenRepo repository.APITokenRepository,
	settingsRepo repository.SettingsRepository,
) *AdminHandler {
	return &AdminHandler{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		settingsRepo: settingsRepo,
	}
}

func (handler *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := handler.userRepo.FindAll(ctx)
	if err != nil {
		slog.Error("listing users", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load users"})
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (handler *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	role := models.Role(req.Role)
	if role != models.RoleAdmin && role != models.RoleMember {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be admin or member"})
		return
	}

	if err := handler.userRepo.UpdateRole(ctx, chi.URLParam(r, "id"), role); err != nil {
		slog.Error("updating role", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update role"})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *AdminHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokens, err := handler.tokenRepo.FindAll(ctx)
	if err != nil {
		slog.Error("listing tokens", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load tokens"})
		return
	}

	type tokenView struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Scope string `json:"scope"`
	}
	views := make([]tokenView, 0, len(tokens))
	for _, token := range tokens {
		views = append(views, tokenView{ID: token.ID, Name: token.Name, Scope: token.Scope})
	}
	writeJSON(w, http.StatusOK, views)
}

type tokenRequest struct {
	Name  string `json:"name"`
	Scope string `json:"scope"`
}

func (handler *AdminHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Scope != "" && req.Scope != repository.TokenScopeAPI && req.Scope != repository.TokenScopeICal {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scope must be api or ical"})
		return
	}

	rawToken := generateToken()
	token := models.APIToken{
		Name:            req.Name,
		TokenHash:       repository.HashToken(rawToken),
		Scope:           req.Scope,
		CreatedByUserID: user.ID,
	}

	created, err := handler.tokenRepo.Create(ctx, token)
	if err != nil {
		slog.Error("creating token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create token"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":    created.ID,
		"name":  created.Name,
		"scope": created.Scope,
		"token": rawToken,
	})
}

func (handler *AdminHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := handler.tokenRepo.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		slog.Error("deleting token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete token"})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gardenName, err := handler.settingsRepo.Get(ctx, repository.SettingGardenName)
	if err != nil {
		gardenName = ""
	}
	writeJSON(w, http.StatusOK, map[string]string{"garden_name": gardenName})
}

type settingsRequest struct {
	GardenName string `json:"garden_name"`
}

func (handler *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := handler.settingsRepo.Set(ctx, repository.SettingGardenName, req.GardenName); err != nil {
		slog.Error("updating settings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update settings"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"garden_name": req.GardenName})
}

func generateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
