package taxonomy

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/mealvault-go/auth"
	"github.com/user/mealvault-go/httpx"
)

// itemService is the slice of the taxonomy service the handlers need.
type itemService interface {
	List(ctx context.Context, ownerID int64, assignedOnly bool) ([]Item, error)
	Create(ctx context.Context, ownerID int64, name string) (*Item, error)
}

// Handlers exposes one taxonomy resource over HTTP. Two instances are
// mounted, one for tags and one for ingredients.
type Handlers struct {
	service itemService
}

// NewHandlers creates taxonomy Handlers.
func NewHandlers(service itemService) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the collection endpoints on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList())
	r.Post("/", h.HandleCreate())
}

// HandleList handles the collection GET. The assigned_only query parameter
// ("1" or "true") restricts the listing to items referenced by the caller's
// recipes.
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}

		assigned := r.URL.Query().Get("assigned_only")
		assignedOnly := assigned == "1" || assigned == "true"

		items, err := h.service.List(r.Context(), user.ID, assignedOnly)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

// HandleCreate handles the collection POST.
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}

		var req CreateItemRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := httpx.ValidateStruct(req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		item, err := h.service.Create(r.Context(), user.ID, req.Name)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, item)
	}
}
