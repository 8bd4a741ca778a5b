package recipes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/mealvault-go/apperror"
	"github.com/user/mealvault-go/storage"
	"github.com/user/mealvault-go/taxonomy"
)

// Service implements the recipe resource. Every operation takes the owner's
// id and scopes reads and writes to it; rows belonging to other users are
// indistinguishable from missing rows.
type Service struct {
	pool   *pgxpool.Pool
	images storage.ImageStore
}

// NewService creates a recipes Service.
func NewService(pool *pgxpool.Pool, images storage.ImageStore) *Service {
	return &Service{pool: pool, images: images}
}

// errNotFound is the uniform response for a recipe that does not exist or
// belongs to someone else.
func errNotFound() error {
	return apperror.NewNotFoundError("recipe not found", nil)
}

// List returns the owner's recipes ordered by id descending, narrowed by the
// given filters. The EXISTS subqueries keep a recipe matching several filter
// ids from appearing twice.
func (s *Service) List(ctx context.Context, ownerID int64, f Filters) ([]ListItem, error) {
	query := `SELECT r.id, r.title, r.time_in_minutes, r.price::float8, r.link, r.image
	          FROM recipes r
	          WHERE r.user_id = $1`
	args := []interface{}{ownerID}

	if len(f.TagIDs) > 0 {
		args = append(args, f.TagIDs)
		query += fmt.Sprintf(
			` AND EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY($%d))`,
			len(args))
	}
	if len(f.IngredientIDs) > 0 {
		args = append(args, f.IngredientIDs)
		query += fmt.Sprintf(
			` AND EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND ri.ingredient_id = ANY($%d))`,
			len(args))
	}
	query += ` ORDER BY r.id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list recipes", err)
	}
	defer rows.Close()

	items := []ListItem{}
	index := map[int64]int{}
	for rows.Next() {
		var it ListItem
		if err := rows.Scan(&it.ID, &it.Title, &it.TimeInMinutes, &it.Price, &it.Link, &it.Image); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recipe", err)
		}
		it.TagIDs = []int64{}
		it.IngredientIDs = []int64{}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list recipes", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	recipeIDs := make([]int64, 0, len(items))
	for _, it := range items {
		recipeIDs = append(recipeIDs, it.ID)
	}

	if err := s.collectAssociationIDs(ctx, "recipe_tags", "tag_id", recipeIDs, func(recipeID, id int64) {
		i := index[recipeID]
		items[i].TagIDs = append(items[i].TagIDs, id)
	}); err != nil {
		return nil, err
	}
	if err := s.collectAssociationIDs(ctx, "recipe_ingredients", "ingredient_id", recipeIDs, func(recipeID, id int64) {
		i := index[recipeID]
		items[i].IngredientIDs = append(items[i].IngredientIDs, id)
	}); err != nil {
		return nil, err
	}

	return items, nil
}

// collectAssociationIDs streams (recipe_id, associated id) pairs for a batch
// of recipes into the visit callback.
func (s *Service) collectAssociationIDs(ctx context.Context, joinTable, joinColumn string, recipeIDs []int64, visit func(recipeID, id int64)) error {
	query := fmt.Sprintf(
		`SELECT recipe_id, %s FROM %s WHERE recipe_id = ANY($1) ORDER BY %s`,
		joinColumn, joinTable, joinColumn)
	rows, err := s.pool.Query(ctx, query, recipeIDs)
	if err != nil {
		return apperror.NewDatabaseError("failed to load recipe associations", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID, id int64
		if err := rows.Scan(&recipeID, &id); err != nil {
			return apperror.NewDatabaseError("failed to scan recipe association", err)
		}
		visit(recipeID, id)
	}
	if err := rows.Err(); err != nil {
		return apperror.NewDatabaseError("failed to load recipe associations", err)
	}
	return nil
}

// Get returns one of the owner's recipes with nested tag and ingredient
// objects.
func (s *Service) Get(ctx context.Context, ownerID, recipeID int64) (*Recipe, error) {
	var rec Recipe
	query := `SELECT id, title, time_in_minutes, price::float8, link, image, created_at
	          FROM recipes WHERE id = $1 AND user_id = $2`
	err := s.pool.QueryRow(ctx, query, recipeID, ownerID).
		Scan(&rec.ID, &rec.Title, &rec.TimeInMinutes, &rec.Price, &rec.Link, &rec.Image, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound()
		}
		return nil, apperror.NewDatabaseError("failed to get recipe", err)
	}

	if rec.Tags, err = s.loadAssociatedItems(ctx, taxonomy.Tags, rec.ID); err != nil {
		return nil, err
	}
	if rec.Ingredients, err = s.loadAssociatedItems(ctx, taxonomy.Ingredients, rec.ID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// loadAssociatedItems returns the taxonomy items attached to a recipe,
// ordered the same way the taxonomy listings are.
func (s *Service) loadAssociatedItems(ctx context.Context, res taxonomy.Resource, recipeID int64) ([]taxonomy.Item, error) {
	query := fmt.Sprintf(
		`SELECT t.id, t.name FROM %s t JOIN %s j ON j.%s = t.id
		 WHERE j.recipe_id = $1 ORDER BY t.name DESC, t.id DESC`,
		res.Table, res.JoinTable, res.JoinColumn)
	rows, err := s.pool.Query(ctx, query, recipeID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load recipe "+res.Kind+"s", err)
	}
	defer rows.Close()

	items := []taxonomy.Item{}
	for rows.Next() {
		var it taxonomy.Item
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan "+res.Kind, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to load recipe "+res.Kind+"s", err)
	}
	return items, nil
}

// Create inserts a recipe with its associations in one transaction. Tag and
// ingredient ids must belong to the owner.
func (s *Service) Create(ctx context.Context, ownerID int64, req CreateRecipeRequest) (*Recipe, error) {
	title := strings.TrimSpace(deref(req.Title))
	if title == "" {
		return nil, apperror.NewFieldValidationError("invalid input",
			map[string]string{"title": "this field may not be blank"})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var recipeID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO recipes (user_id, title, time_in_minutes, price, link)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		ownerID, title, *req.TimeInMinutes, *req.Price, deref(req.Link)).Scan(&recipeID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create recipe", err)
	}

	if err := s.replaceAssociations(ctx, tx, taxonomy.Tags, ownerID, recipeID, req.Tags); err != nil {
		return nil, err
	}
	if err := s.replaceAssociations(ctx, tx, taxonomy.Ingredients, ownerID, recipeID, req.Ingredients); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewDatabaseError("failed to commit recipe", err)
	}
	return s.Get(ctx, ownerID, recipeID)
}

// recipeUpdate is the normalized form both update verbs reduce to. A nil
// field means "leave as is"; a non-nil association slice means "replace the
// set with exactly this".
type recipeUpdate struct {
	title         *string
	timeInMinutes *int
	price         *float64
	link          *string
	tags          *[]int64
	ingredients   *[]int64
}

// UpdatePartial applies a PATCH: only fields present in the payload change.
func (s *Service) UpdatePartial(ctx context.Context, ownerID, recipeID int64, req UpdateRecipeRequest) (*Recipe, error) {
	return s.applyUpdate(ctx, ownerID, recipeID, recipeUpdate{
		title:         req.Title,
		timeInMinutes: req.TimeInMinutes,
		price:         req.Price,
		link:          req.Link,
		tags:          req.Tags,
		ingredients:   req.Ingredients,
	})
}

// UpdateFull applies a PUT: title, time and price are required (enforced by
// the handler's payload validation), an omitted link resets to empty, and
// omitted tags/ingredients clear the association sets.
func (s *Service) UpdateFull(ctx context.Context, ownerID, recipeID int64, req CreateRecipeRequest) (*Recipe, error) {
	link := deref(req.Link)
	tags := req.Tags
	if tags == nil {
		tags = []int64{}
	}
	ingredients := req.Ingredients
	if ingredients == nil {
		ingredients = []int64{}
	}
	return s.applyUpdate(ctx, ownerID, recipeID, recipeUpdate{
		title:         req.Title,
		timeInMinutes: req.TimeInMinutes,
		price:         req.Price,
		link:          &link,
		tags:          &tags,
		ingredients:   &ingredients,
	})
}

func (s *Service) applyUpdate(ctx context.Context, ownerID, recipeID int64, upd recipeUpdate) (*Recipe, error) {
	fields := map[string]string{}
	if upd.title != nil && strings.TrimSpace(*upd.title) == "" {
		fields["title"] = "this field may not be blank"
	}
	if upd.timeInMinutes != nil && *upd.timeInMinutes <= 0 {
		fields["time_in_minutes"] = "must be greater than 0"
	}
	if upd.price != nil && *upd.price < 0 {
		fields["price"] = "must be 0 or more"
	}
	if len(fields) > 0 {
		return nil, apperror.NewFieldValidationError("invalid input", fields)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	// Lock the row for the duration of the update; this also performs the
	// ownership check.
	var locked int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM recipes WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		recipeID, ownerID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound()
		}
		return nil, apperror.NewDatabaseError("failed to lock recipe", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE recipes
		 SET title = COALESCE($2, title),
		     time_in_minutes = COALESCE($3, time_in_minutes),
		     price = COALESCE($4, price),
		     link = COALESCE($5, link)
		 WHERE id = $1`,
		recipeID, upd.title, upd.timeInMinutes, upd.price, upd.link)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to update recipe", err)
	}

	if upd.tags != nil {
		if err := s.replaceAssociations(ctx, tx, taxonomy.Tags, ownerID, recipeID, *upd.tags); err != nil {
			return nil, err
		}
	}
	if upd.ingredients != nil {
		if err := s.replaceAssociations(ctx, tx, taxonomy.Ingredients, ownerID, recipeID, *upd.ingredients); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewDatabaseError("failed to commit recipe update", err)
	}
	return s.Get(ctx, ownerID, recipeID)
}

// replaceAssociations swaps a recipe's association set for the given ids
// after verifying every id belongs to the owner.
func (s *Service) replaceAssociations(ctx context.Context, tx pgx.Tx, res taxonomy.Resource, ownerID, recipeID int64, ids []int64) error {
	ids = dedupeIDs(ids)
	if err := s.checkOwnedIDs(ctx, tx, res, ownerID, ids); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, res.JoinTable), recipeID); err != nil {
		return apperror.NewDatabaseError("failed to clear recipe "+res.Kind+"s", err)
	}
	for _, id := range ids {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (recipe_id, %s) VALUES ($1, $2)`, res.JoinTable, res.JoinColumn),
			recipeID, id); err != nil {
			return apperror.NewDatabaseError("failed to attach "+res.Kind, err)
		}
	}
	return nil
}

// checkOwnedIDs rejects any referenced id that does not exist or belongs to
// a different user. Both cases read as "invalid id" so nothing leaks about
// other users' data.
func (s *Service) checkOwnedIDs(ctx context.Context, tx pgx.Tx, res taxonomy.Resource, ownerID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	var owned int
	err := tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s WHERE user_id = $1 AND id = ANY($2)`, res.Table),
		ownerID, ids).Scan(&owned)
	if err != nil {
		return apperror.NewDatabaseError("failed to verify "+res.Kind+" ids", err)
	}
	if owned != len(ids) {
		return apperror.NewFieldValidationError("invalid input",
			map[string]string{res.Kind + "s": "list contains invalid " + res.Kind + " ids"})
	}
	return nil
}

// Delete removes one of the owner's recipes.
func (s *Service) Delete(ctx context.Context, ownerID, recipeID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM recipes WHERE id = $1 AND user_id = $2`, recipeID, ownerID)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete recipe", err)
	}
	if tag.RowsAffected() == 0 {
		return errNotFound()
	}
	return nil
}

// UploadImage stores already-validated image bytes and records the returned
// reference on the recipe. The store is only reached after the ownership
// check, and the recipe row is only touched after the store succeeds, so a
// failed upload leaves any prior image reference intact.
func (s *Service) UploadImage(ctx context.Context, ownerID, recipeID int64, format string, data []byte) (*Recipe, error) {
	var exists int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM recipes WHERE id = $1 AND user_id = $2`, recipeID, ownerID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound()
		}
		return nil, apperror.NewDatabaseError("failed to get recipe", err)
	}

	key := fmt.Sprintf("recipes/%d/%s.%s", recipeID, uuid.NewString(), format)
	ref, err := s.images.Save(ctx, key, "image/"+format, bytes.NewReader(data))
	if err != nil {
		return nil, apperror.NewInternalError("failed to store image", err)
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE recipes SET image = $2 WHERE id = $1`, recipeID, ref); err != nil {
		return nil, apperror.NewDatabaseError("failed to record image reference", err)
	}
	return s.Get(ctx, ownerID, recipeID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// dedupeIDs collapses duplicate ids while preserving order.
func dedupeIDs(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
