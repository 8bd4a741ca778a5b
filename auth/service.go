package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/mealvault-go/apperror"
	"github.com/user/mealvault-go/config"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// minPasswordLength is enforced at the service level so that non-HTTP
// callers (seeding scripts, tests) get the same account policy as the API.
const minPasswordLength = 5

// Service implements the identity store and token issuance. Dependencies are
// injected through the constructor.
type Service struct {
	pool *pgxpool.Pool
	cfg  config.AuthConfig
}

// NewService creates an auth Service.
func NewService(pool *pgxpool.Pool, cfg config.AuthConfig) *Service {
	return &Service{pool: pool, cfg: cfg}
}

// NormalizeEmail lower-cases and trims an email address. All storage and
// lookups go through this, so "Name@Example.COM" and "name@example.com" are
// the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser creates a regular account. The email is normalized before the
// uniqueness check and the password is bcrypt-hashed before persisting.
func (s *Service) CreateUser(ctx context.Context, email, password, name string) (*User, error) {
	return s.createUser(ctx, email, password, name, false, false)
}

// CreateSuperuser creates an account with staff and superuser flags set.
// It is not routed over HTTP; it exists for operational seeding.
func (s *Service) CreateSuperuser(ctx context.Context, email, password string) (*User, error) {
	return s.createUser(ctx, email, password, "", true, true)
}

func (s *Service) createUser(ctx context.Context, email, password, name string, staff, superuser bool) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperror.NewFieldValidationError("invalid input",
			map[string]string{"email": "this field is required"})
	}
	if len(password) < minPasswordLength {
		return nil, apperror.NewFieldValidationError("invalid input",
			map[string]string{"password": "must be at least 5 characters"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user := &User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      staff,
		IsSuperuser:  superuser,
	}

	query := `INSERT INTO users (email, name, password_hash, is_staff, is_superuser)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, is_active, created_at`
	err = s.pool.QueryRow(ctx, query, user.Email, user.Name, user.PasswordHash, user.IsStaff, user.IsSuperuser).
		Scan(&user.ID, &user.IsActive, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// The original API reports duplicate signups as a validation
			// failure on the email field, not a conflict.
			return nil, apperror.NewFieldValidationError("invalid input",
				map[string]string{"email": "a user with this email already exists"})
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

// Authenticate checks credentials against the identity store. Unknown email,
// empty or wrong password, and deactivated accounts all fail the same way so
// the response does not reveal which part was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	invalid := apperror.NewValidationError("unable to authenticate with provided credentials", nil)

	if password == "" {
		return nil, invalid
	}

	user, err := s.getUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalid
		}
		return nil, apperror.NewDatabaseError("failed to look up user", err)
	}
	if !user.IsActive {
		return nil, invalid
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}
	return user, nil
}

// Login authenticates and returns the user's token, issuing one on first
// login.
func (s *Service) Login(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	key, err := s.IssueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{Token: key}, nil
}

// IssueToken returns the user's token, creating it on first call. The
// ON CONFLICT clause makes concurrent first logins converge on a single key.
func (s *Service) IssueToken(ctx context.Context, userID int64) (string, error) {
	var key string
	err := s.pool.QueryRow(ctx,
		`SELECT key FROM auth_tokens WHERE user_id = $1`, userID).Scan(&key)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", apperror.NewDatabaseError("failed to look up token", err)
	}

	fresh, err := generateTokenKey(s.cfg.TokenBytes)
	if err != nil {
		return "", apperror.NewInternalError("failed to generate token", err)
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO auth_tokens (key, user_id) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET key = auth_tokens.key
		 RETURNING key`, fresh, userID).Scan(&key)
	if err != nil {
		return "", apperror.NewDatabaseError("failed to store token", err)
	}
	return key, nil
}

// ResolveToken exchanges a token key for its user. Unknown keys and keys of
// deactivated accounts resolve to an authentication error.
func (s *Service) ResolveToken(ctx context.Context, key string) (*User, error) {
	var user User
	query := `SELECT u.id, u.email, u.name, u.password_hash, u.is_active, u.is_staff, u.is_superuser, u.created_at
	          FROM auth_tokens t
	          JOIN users u ON u.id = t.user_id
	          WHERE t.key = $1`
	err := s.pool.QueryRow(ctx, query, key).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
			&user.IsActive, &user.IsStaff, &user.IsSuperuser, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewAuthError("invalid token", nil)
		}
		return nil, apperror.NewDatabaseError("failed to resolve token", err)
	}
	if !user.IsActive {
		return nil, apperror.NewAuthError("user account is disabled", nil)
	}
	return &user, nil
}

func (s *Service) getUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	query := `SELECT id, email, name, password_hash, is_active, is_staff, is_superuser, created_at
	          FROM users WHERE email = $1`
	err := s.pool.QueryRow(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
			&user.IsActive, &user.IsStaff, &user.IsSuperuser, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
