package taxonomy

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/mealvault-go/apperror"
)

// Service implements listing and creation for one taxonomy resource.
type Service struct {
	pool *pgxpool.Pool
	res  Resource
}

// NewService creates a Service bound to one Resource.
func NewService(pool *pgxpool.Pool, res Resource) *Service {
	return &Service{pool: pool, res: res}
}

// List returns the owner's items ordered by name descending. With
// assignedOnly set, only items referenced by at least one of the owner's
// recipes are returned; DISTINCT collapses items referenced by several
// recipes into one row.
func (s *Service) List(ctx context.Context, ownerID int64, assignedOnly bool) ([]Item, error) {
	var query string
	if assignedOnly {
		query = fmt.Sprintf(
			`SELECT DISTINCT t.id, t.name
			 FROM %s t
			 JOIN %s j ON j.%s = t.id
			 JOIN recipes r ON r.id = j.recipe_id
			 WHERE t.user_id = $1 AND r.user_id = $1
			 ORDER BY t.name DESC, t.id DESC`,
			s.res.Table, s.res.JoinTable, s.res.JoinColumn)
	} else {
		query = fmt.Sprintf(
			`SELECT id, name FROM %s WHERE user_id = $1 ORDER BY name DESC, id DESC`,
			s.res.Table)
	}

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("failed to list %ss", s.res.Kind), err)
	}
	defer rows.Close()

	// An empty result serializes as [] rather than null.
	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, apperror.NewDatabaseError(fmt.Sprintf("failed to scan %s", s.res.Kind), err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("failed to list %ss", s.res.Kind), err)
	}
	return items, nil
}

// Create inserts a new item for the owner. Blank names (empty or
// whitespace-only) are rejected.
func (s *Service) Create(ctx context.Context, ownerID int64, name string) (*Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperror.NewFieldValidationError("invalid input",
			map[string]string{"name": "this field may not be blank"})
	}

	query := fmt.Sprintf(`INSERT INTO %s (user_id, name) VALUES ($1, $2) RETURNING id`, s.res.Table)
	item := &Item{Name: name}
	if err := s.pool.QueryRow(ctx, query, ownerID, name).Scan(&item.ID); err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("failed to create %s", s.res.Kind), err)
	}
	return item, nil
}
