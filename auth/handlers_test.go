package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mealvault-go/apperror"
)

// fakeAccountService lets handler tests script service outcomes.
type fakeAccountService struct {
	createUserFn func(ctx context.Context, email, password, name string) (*User, error)
	loginFn      func(ctx context.Context, req TokenRequest) (*TokenResponse, error)
}

func (f *fakeAccountService) CreateUser(ctx context.Context, email, password, name string) (*User, error) {
	return f.createUserFn(ctx, email, password, name)
}

func (f *fakeAccountService) Login(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	return f.loginFn(ctx, req)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleCreateUserSuccess(t *testing.T) {
	svc := &fakeAccountService{
		createUserFn: func(ctx context.Context, email, password, name string) (*User, error) {
			assert.Equal(t, "salut@modulo.fr", email)
			return &User{ID: 1, Email: email, Name: name, PasswordHash: "bcrypt-hash", IsActive: true}, nil
		},
	}
	h := NewHandlers(svc)

	rec := postJSON(t, h.HandleCreateUser(), map[string]string{
		"email":    "salut@modulo.fr",
		"password": "Test123",
		"name":     "Salut Toto",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	// The hash must never reach the response body.
	assert.NotContains(t, rec.Body.String(), "bcrypt-hash")
	assert.NotContains(t, rec.Body.String(), "password")

	var got User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "salut@modulo.fr", got.Email)
}

func TestHandleCreateUserValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"missing email", map[string]string{"password": "Test123"}, "email"},
		{"invalid email", map[string]string{"email": "not-an-email", "password": "Test123"}, "email"},
		{"short password", map[string]string{"email": "salut@modulo.fr", "password": "pw"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAccountService{
				createUserFn: func(ctx context.Context, email, password, name string) (*User, error) {
					t.Fatal("service should not be reached on invalid input")
					return nil, nil
				},
			}
			h := NewHandlers(svc)

			rec := postJSON(t, h.HandleCreateUser(), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp apperror.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Fields, tt.field)
		})
	}
}

func TestHandleCreateUserDuplicateEmail(t *testing.T) {
	svc := &fakeAccountService{
		createUserFn: func(ctx context.Context, email, password, name string) (*User, error) {
			return nil, apperror.NewFieldValidationError("invalid input",
				map[string]string{"email": "a user with this email already exists"})
		},
	}
	h := NewHandlers(svc)

	rec := postJSON(t, h.HandleCreateUser(), map[string]string{
		"email":    "salut@modulo.fr",
		"password": "Crucru",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateTokenSuccess(t *testing.T) {
	svc := &fakeAccountService{
		loginFn: func(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
			return &TokenResponse{Token: "0123456789abcdef"}, nil
		},
	}
	h := NewHandlers(svc)

	rec := postJSON(t, h.HandleCreateToken(), map[string]string{
		"email":    "salut@modulo.fr",
		"password": "password123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0123456789abcdef", resp.Token)
}

func TestHandleCreateTokenBadCredentials(t *testing.T) {
	svc := &fakeAccountService{
		loginFn: func(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
			return nil, apperror.NewValidationError("unable to authenticate with provided credentials", nil)
		},
	}
	h := NewHandlers(svc)

	rec := postJSON(t, h.HandleCreateToken(), map[string]string{
		"email":    "salut@modulo.fr",
		"password": "wrongpass",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "token\":")
}

func TestHandleCreateTokenEmptyPassword(t *testing.T) {
	svc := &fakeAccountService{
		loginFn: func(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
			t.Fatal("service should not be reached with an empty password")
			return nil, nil
		},
	}
	h := NewHandlers(svc)

	rec := postJSON(t, h.HandleCreateToken(), map[string]string{
		"email":    "salut@modulo.fr",
		"password": "",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateUserMalformedBody(t *testing.T) {
	h := NewHandlers(&fakeAccountService{})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.HandleCreateUser()(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
