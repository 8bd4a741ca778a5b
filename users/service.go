package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/mealvault-go/apperror"
	"github.com/user/mealvault-go/auth"
	"github.com/user/mealvault-go/config"
)

const pgUniqueViolation = "23505"

// Service manages user profiles.
type Service struct {
	pool *pgxpool.Pool
	cfg  config.AuthConfig
}

// NewService creates a users Service.
func NewService(pool *pgxpool.Pool, cfg config.AuthConfig) *Service {
	return &Service{pool: pool, cfg: cfg}
}

// UpdateProfile applies the non-nil fields of req to the caller's account.
// A new email is normalized before the uniqueness check; a new password is
// bcrypt-hashed. COALESCE keeps omitted columns at their prior values, so
// the statement stays a single atomic write.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*auth.User, error) {
	var email *string
	if req.Email != nil {
		normalized := auth.NormalizeEmail(*req.Email)
		if normalized == "" {
			return nil, apperror.NewFieldValidationError("invalid input",
				map[string]string{"email": "this field may not be blank"})
		}
		email = &normalized
	}

	var passwordHash *string
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.cfg.BcryptCost)
		if err != nil {
			return nil, apperror.NewInternalError("failed to hash password", err)
		}
		hashed := string(hash)
		passwordHash = &hashed
	}

	var user auth.User
	query := `UPDATE users
	          SET email = COALESCE($2, email),
	              name = COALESCE($3, name),
	              password_hash = COALESCE($4, password_hash)
	          WHERE id = $1
	          RETURNING id, email, name, password_hash, is_active, is_staff, is_superuser, created_at`
	err := s.pool.QueryRow(ctx, query, userID, email, req.Name, passwordHash).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
			&user.IsActive, &user.IsStaff, &user.IsSuperuser, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperror.NewFieldValidationError("invalid input",
				map[string]string{"email": "a user with this email already exists"})
		}
		return nil, apperror.NewDatabaseError("failed to update profile", err)
	}
	return &user, nil
}
