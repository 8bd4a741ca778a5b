package auth

import (
	"context"
	"net/http"

	"github.com/user/mealvault-go/httpx"
)

// accountService is the slice of the auth service the handlers need. The
// narrow interface keeps handlers testable with a fake.
type accountService interface {
	CreateUser(ctx context.Context, email, password, name string) (*User, error)
	Login(ctx context.Context, req TokenRequest) (*TokenResponse, error)
}

// Handlers exposes the public auth endpoints.
type Handlers struct {
	service accountService
}

// NewHandlers creates the auth Handlers.
func NewHandlers(service accountService) *Handlers {
	return &Handlers{service: service}
}

// HandleCreateUser handles POST /api/user/create. On success it returns 201
// with the created account; the password never appears in the response.
func (h *Handlers) HandleCreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := httpx.ValidateStruct(req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		user, err := h.service.CreateUser(r.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, user)
	}
}

// HandleCreateToken handles POST /api/user/token: exchanges credentials for
// the caller's opaque token. Bad credentials come back as 400, matching the
// account API's contract for this endpoint.
func (h *Handlers) HandleCreateToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TokenRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := httpx.ValidateStruct(req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
