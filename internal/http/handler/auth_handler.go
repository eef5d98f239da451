package handler

import (
	"context"
	"net/http"

	"github.com/nordbooks/billing-api/internal/auth"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/repository"
	"go.uber.org/zap"
)

// UserRepository interface for dependency injection
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) error
}

type AuthHandler struct {
	userRepo UserRepository
	logger   *zap.Logger
}

func NewAuthHandler(userRepo *repository.UserRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo: userRepo,
		logger:   logger,
	}
}

// NewAuthHandlerWithMocks creates an auth handler with mock dependencies for testing
func NewAuthHandlerWithMocks(userRepo UserRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the current authenticated user with roles and company
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	// Keep the local user row in sync with the token claims
	user := &domain.User{
		ID:          userCtx.UserID,
		DisplayName: userCtx.DisplayName,
		Email:       userCtx.Email,
		Roles:       userCtx.RolesAsStrings(),
		CompanyID:   userCtx.CompanyID,
		IsActive:    true,
	}
	if err := h.userRepo.Upsert(r.Context(), user); err != nil {
		h.logger.Warn("failed to upsert user", zap.Error(err))
	}

	respondJSON(w, http.StatusOK, domain.UserDTO{
		ID:          userCtx.UserID,
		Email:       userCtx.Email,
		DisplayName: userCtx.DisplayName,
		Roles:       userCtx.RolesAsStrings(),
		CompanyID:   userCtx.CompanyID,
		IsActive:    true,
	})
}

// Permissions godoc
// @Summary Get current user's permissions
// @Description Returns the permission list derived from the current user's roles
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.PermissionsResponseDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/permissions [get]
func (h *AuthHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	permissions := make([]string, 0, len(domain.AllPermissions))
	for _, perm := range domain.AllPermissions {
		if userCtx.HasPermission(perm) {
			permissions = append(permissions, string(perm))
		}
	}

	respondJSON(w, http.StatusOK, domain.PermissionsResponseDTO{
		Permissions: permissions,
		Roles:       userCtx.RolesAsStrings(),
		IsAdmin:     userCtx.IsAdmin(),
	})
}
