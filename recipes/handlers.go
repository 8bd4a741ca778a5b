package recipes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/mealvault-go/apperror"
	"github.com/user/mealvault-go/auth"
	"github.com/user/mealvault-go/httpx"
)

// recipeService is the slice of the recipes service the handlers need.
type recipeService interface {
	List(ctx context.Context, ownerID int64, f Filters) ([]ListItem, error)
	Get(ctx context.Context, ownerID, recipeID int64) (*Recipe, error)
	Create(ctx context.Context, ownerID int64, req CreateRecipeRequest) (*Recipe, error)
	UpdatePartial(ctx context.Context, ownerID, recipeID int64, req UpdateRecipeRequest) (*Recipe, error)
	UpdateFull(ctx context.Context, ownerID, recipeID int64, req CreateRecipeRequest) (*Recipe, error)
	Delete(ctx context.Context, ownerID, recipeID int64) error
	UploadImage(ctx context.Context, ownerID, recipeID int64, format string, data []byte) (*Recipe, error)
}

// Handlers exposes the recipe resource over HTTP.
type Handlers struct {
	service        recipeService
	maxUploadBytes int64
}

// NewHandlers creates recipe Handlers. maxUploadBytes caps image uploads.
func NewHandlers(service recipeService, maxUploadBytes int64) *Handlers {
	return &Handlers{service: service, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes mounts the recipe endpoints on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList())
	r.Post("/", h.HandleCreate())
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGet())
		r.Patch("/", h.HandlePartialUpdate())
		r.Put("/", h.HandleFullUpdate())
		r.Delete("/", h.HandleDelete())
		r.Post("/upload-image", h.HandleUploadImage())
	})
}

// recipeID parses the {id} path parameter. A non-numeric id reads the same
// as a missing recipe.
func recipeID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFoundError("recipe not found", nil)
	}
	return id, nil
}

// HandleList handles GET on the collection, with optional ?tags= and
// ?ingredients= comma-separated id filters.
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}

		items, err := h.service.List(r.Context(), user.ID, FiltersFromQuery(r.URL.Query()))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	}
}

// HandleGet handles GET on a single recipe.
func (h *Handlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}
		id, err := recipeID(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		rec, err := h.service.Get(r.Context(), user.ID, id)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, rec)
	}
}

// HandleCreate handles POST on the collection.
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}

		var req CreateRecipeRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := httpx.ValidateStruct(req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		rec, err := h.service.Create(r.Context(), user.ID, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, rec)
	}
}

// HandlePartialUpdate handles PATCH: only fields present in the payload are
// changed.
func (h *Handlers) HandlePartialUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}
		id, err := recipeID(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		var req UpdateRecipeRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := httpx.ValidateStruct(req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		rec, err := h.service.UpdatePartial(r.Context(), user.ID, id, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, rec)
	}
}

// HandleFullUpdate handles PUT: required scalars must be present, omitted
// associative fields are cleared.
func (h *Handlers) HandleFullUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}
		id, err := recipeID(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		var req CreateRecipeRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := httpx.ValidateStruct(req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		rec, err := h.service.UpdateFull(r.Context(), user.ID, id, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, rec)
	}
}

// HandleDelete handles DELETE on a single recipe.
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}
		id, err := recipeID(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		if err := h.service.Delete(r.Context(), user.ID, id); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusNoContent, nil)
	}
}

// HandleUploadImage handles POST /{id}/upload-image. The multipart "image"
// part must decode as an image before anything is stored; a rejected upload
// leaves the recipe's existing image untouched.
func (h *Handlers) HandleUploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.RequestUser(w, r)
		if !ok {
			return
		}
		id, err := recipeID(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			httpx.WriteError(w, r, apperror.NewBadRequestError("invalid multipart payload", err))
			return
		}

		file, _, err := r.FormFile("image")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				httpx.WriteError(w, r, apperror.NewFieldValidationError("invalid input",
					map[string]string{"image": "no image file was submitted"}))
				return
			}
			httpx.WriteError(w, r, apperror.NewBadRequestError("invalid image upload", err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			httpx.WriteError(w, r, apperror.NewBadRequestError("failed to read image upload", err))
			return
		}

		format, err := sniffImage(data)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		rec, err := h.service.UploadImage(r.Context(), user.ID, id, format, data)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, rec)
	}
}
