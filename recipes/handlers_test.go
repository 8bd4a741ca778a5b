package recipes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mealvault-go/apperror"
	"github.com/user/mealvault-go/auth"
)

type fakeRecipeService struct {
	listFn          func(ctx context.Context, ownerID int64, f Filters) ([]ListItem, error)
	getFn           func(ctx context.Context, ownerID, recipeID int64) (*Recipe, error)
	createFn        func(ctx context.Context, ownerID int64, req CreateRecipeRequest) (*Recipe, error)
	updatePartialFn func(ctx context.Context, ownerID, recipeID int64, req UpdateRecipeRequest) (*Recipe, error)
	updateFullFn    func(ctx context.Context, ownerID, recipeID int64, req CreateRecipeRequest) (*Recipe, error)
	deleteFn        func(ctx context.Context, ownerID, recipeID int64) error
	uploadImageFn   func(ctx context.Context, ownerID, recipeID int64, format string, data []byte) (*Recipe, error)
}

func (f *fakeRecipeService) List(ctx context.Context, ownerID int64, filters Filters) ([]ListItem, error) {
	return f.listFn(ctx, ownerID, filters)
}

func (f *fakeRecipeService) Get(ctx context.Context, ownerID, recipeID int64) (*Recipe, error) {
	return f.getFn(ctx, ownerID, recipeID)
}

func (f *fakeRecipeService) Create(ctx context.Context, ownerID int64, req CreateRecipeRequest) (*Recipe, error) {
	return f.createFn(ctx, ownerID, req)
}

func (f *fakeRecipeService) UpdatePartial(ctx context.Context, ownerID, recipeID int64, req UpdateRecipeRequest) (*Recipe, error) {
	return f.updatePartialFn(ctx, ownerID, recipeID, req)
}

func (f *fakeRecipeService) UpdateFull(ctx context.Context, ownerID, recipeID int64, req CreateRecipeRequest) (*Recipe, error) {
	return f.updateFullFn(ctx, ownerID, recipeID, req)
}

func (f *fakeRecipeService) Delete(ctx context.Context, ownerID, recipeID int64) error {
	return f.deleteFn(ctx, ownerID, recipeID)
}

func (f *fakeRecipeService) UploadImage(ctx context.Context, ownerID, recipeID int64, format string, data []byte) (*Recipe, error) {
	return f.uploadImageFn(ctx, ownerID, recipeID, format, data)
}

// newTestRouter mounts the handlers on a fresh chi router so path parameters
// resolve the same way they do in production.
func newTestRouter(svc *fakeRecipeService) http.Handler {
	r := chi.NewRouter()
	NewHandlers(svc, 8<<20).RegisterRoutes(r)
	return r
}

func asUser(req *http.Request, user *auth.User) *http.Request {
	return req.WithContext(auth.NewContextWithUser(req.Context(), user))
}

func TestHandleListForwardsFilters(t *testing.T) {
	var gotOwner int64
	var gotFilters Filters
	svc := &fakeRecipeService{
		listFn: func(ctx context.Context, ownerID int64, f Filters) ([]ListItem, error) {
			gotOwner = ownerID
			gotFilters = f
			return []ListItem{{ID: 2, Title: "Curry"}}, nil
		},
	}
	router := newTestRouter(svc)

	req := asUser(httptest.NewRequest(http.MethodGet, "/?tags=1,2&ingredients=5", nil), &auth.User{ID: 7})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), gotOwner)
	assert.Equal(t, []int64{1, 2}, gotFilters.TagIDs)
	assert.Equal(t, []int64{5}, gotFilters.IngredientIDs)

	var items []ListItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Curry", items[0].Title)
}

func TestHandleListUnauthenticated(t *testing.T) {
	router := newTestRouter(&fakeRecipeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreate(t *testing.T) {
	svc := &fakeRecipeService{
		createFn: func(ctx context.Context, ownerID int64, req CreateRecipeRequest) (*Recipe, error) {
			assert.Equal(t, int64(3), ownerID)
			require.NotNil(t, req.Title)
			assert.Equal(t, "Pancakes", *req.Title)
			assert.Equal(t, []int64{1, 2}, req.Tags)
			return &Recipe{ID: 11, Title: *req.Title, TimeInMinutes: *req.TimeInMinutes, Price: *req.Price}, nil
		},
	}
	router := newTestRouter(svc)

	body := []byte(`{"title": "Pancakes", "time_in_minutes": 10, "price": 4.50, "tags": [1, 2]}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)), &auth.User{ID: 3})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var created Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(11), created.ID)
}

func TestHandleCreateMissingFields(t *testing.T) {
	svc := &fakeRecipeService{
		createFn: func(ctx context.Context, ownerID int64, req CreateRecipeRequest) (*Recipe, error) {
			t.Fatal("service should not be reached for an invalid payload")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	body := []byte(`{"time_in_minutes": 10}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)), &auth.User{ID: 3})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "title")
	assert.Contains(t, resp.Fields, "price")
}

func TestHandlePartialUpdate(t *testing.T) {
	svc := &fakeRecipeService{
		updatePartialFn: func(ctx context.Context, ownerID, recipeID int64, req UpdateRecipeRequest) (*Recipe, error) {
			assert.Equal(t, int64(42), recipeID)
			require.NotNil(t, req.Title)
			assert.Equal(t, "Renamed", *req.Title)
			assert.Nil(t, req.Price, "omitted fields stay nil")
			assert.Nil(t, req.Tags)
			return &Recipe{ID: recipeID, Title: *req.Title}, nil
		},
	}
	router := newTestRouter(svc)

	body := []byte(`{"title": "Renamed"}`)
	req := asUser(httptest.NewRequest(http.MethodPatch, "/42", bytes.NewReader(body)), &auth.User{ID: 3})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleFullUpdateRequiresScalars(t *testing.T) {
	svc := &fakeRecipeService{
		updateFullFn: func(ctx context.Context, ownerID, recipeID int64, req CreateRecipeRequest) (*Recipe, error) {
			t.Fatal("service should not be reached for an incomplete payload")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	body := []byte(`{"title": "Only a title"}`)
	req := asUser(httptest.NewRequest(http.MethodPut, "/42", bytes.NewReader(body)), &auth.User{ID: 3})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFullUpdateForwardsPayload(t *testing.T) {
	var got CreateRecipeRequest
	svc := &fakeRecipeService{
		updateFullFn: func(ctx context.Context, ownerID, recipeID int64, req CreateRecipeRequest) (*Recipe, error) {
			got = req
			return &Recipe{ID: recipeID, Title: *req.Title}, nil
		},
	}
	router := newTestRouter(svc)

	body := []byte(`{"title": "Soup", "time_in_minutes": 25, "price": 3.00}`)
	req := asUser(httptest.NewRequest(http.MethodPut, "/42", bytes.NewReader(body)), &auth.User{ID: 3})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got.Tags, "omitted association lists arrive empty so the service clears them")
	assert.Nil(t, got.Ingredients)
}

func TestHandleDelete(t *testing.T) {
	var gotID int64
	svc := &fakeRecipeService{
		deleteFn: func(ctx context.Context, ownerID, recipeID int64) error {
			gotID = recipeID
			return nil
		},
	}
	router := newTestRouter(svc)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/42", nil), &auth.User{ID: 3})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(42), gotID)
	assert.Empty(t, rec.Body.String())
}

func TestHandleDeleteNotFound(t *testing.T) {
	svc := &fakeRecipeService{
		deleteFn: func(ctx context.Context, ownerID, recipeID int64) error {
			return apperror.NewNotFoundError("recipe not found", nil)
		},
	}
	router := newTestRouter(svc)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/42", nil), &auth.User{ID: 3})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNonNumericIDReadsAsNotFound(t *testing.T) {
	router := newTestRouter(&fakeRecipeService{})

	req := asUser(httptest.NewRequest(http.MethodGet, "/abc", nil), &auth.User{ID: 3})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartImage(t *testing.T, fieldName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(fieldName, "upload.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleUploadImage(t *testing.T) {
	png := encodePNG(t)
	svc := &fakeRecipeService{
		uploadImageFn: func(ctx context.Context, ownerID, recipeID int64, format string, data []byte) (*Recipe, error) {
			assert.Equal(t, int64(42), recipeID)
			assert.Equal(t, "png", format)
			assert.Equal(t, png, data)
			ref := "/media/recipes/42/abc.png"
			return &Recipe{ID: recipeID, Image: &ref}, nil
		},
	}
	router := newTestRouter(svc)

	body, contentType := multipartImage(t, "image", png)
	req := asUser(httptest.NewRequest(http.MethodPost, "/42/upload-image", body), &auth.User{ID: 3})
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var updated Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.Image)
	assert.Contains(t, *updated.Image, ".png")
}

func TestHandleUploadImageRejectsGarbageBeforeService(t *testing.T) {
	svc := &fakeRecipeService{
		uploadImageFn: func(ctx context.Context, ownerID, recipeID int64, format string, data []byte) (*Recipe, error) {
			t.Fatal("service should not be reached for an undecodable upload")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	body, contentType := multipartImage(t, "image", []byte("definitely not an image"))
	req := asUser(httptest.NewRequest(http.MethodPost, "/42/upload-image", body), &auth.User{ID: 3})
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "image")
}

func TestHandleUploadImageMissingFilePart(t *testing.T) {
	router := newTestRouter(&fakeRecipeService{})

	body, contentType := multipartImage(t, "not_image", encodePNG(t))
	req := asUser(httptest.NewRequest(http.MethodPost, "/42/upload-image", body), &auth.User{ID: 3})
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "image")
}
