// Package recipes implements the Recipe resource: owner-scoped CRUD,
// id-list filtering over tags and ingredients, and image upload.
package recipes

import (
	"time"

	"github.com/user/mealvault-go/taxonomy"
)

// Recipe is the detail representation, with tags and ingredients nested as
// full objects.
type Recipe struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	TimeInMinutes int             `json:"time_in_minutes"`
	Price         float64         `json:"price"`
	Link          string          `json:"link"`
	Image         *string         `json:"image"`
	Tags          []taxonomy.Item `json:"tags"`
	Ingredients   []taxonomy.Item `json:"ingredients"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ListItem is the listing representation: associations appear as id lists
// rather than nested objects.
type ListItem struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	TimeInMinutes int     `json:"time_in_minutes"`
	Price         float64 `json:"price"`
	Link          string  `json:"link"`
	Image         *string `json:"image"`
	TagIDs        []int64 `json:"tags"`
	IngredientIDs []int64 `json:"ingredients"`
}
