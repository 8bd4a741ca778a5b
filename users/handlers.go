package users

import (
	"context"
	"net/http"

	"github.com/user/mealvault-go/auth"
	"github.com/user/mealvault-go/httpx"
)

// profileService is the slice of the users service the handlers need.
type profileService interface {
	UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*auth.User, error)
}

// Handlers exposes the profile endpoint.
type Handlers struct {
	service profileService
}

// NewHandlers creates the users Handlers.
func NewHandlers(service profileService) *Handlers {
	return &Handlers{service: service}
}

// HandleGetProfile handles GET /api/user/me. The user was already resolved
// by the token middleware, so this is a pure projection.
func (h *Handlers) HandleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ProfileResponse{Email: user.Email, Name: user.Name})
	}
}

// HandleUpdateProfile handles PUT and PATCH /api/user/me. Both apply only
// the fields present in the payload.
func (h *Handlers) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}

		var req UpdateProfileRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := httpx.ValidateStruct(req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		updated, err := h.service.UpdateProfile(r.Context(), user.ID, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ProfileResponse{Email: updated.Email, Name: updated.Name})
	}
}
