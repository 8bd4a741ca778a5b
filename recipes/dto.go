package recipes

// CreateRecipeRequest is the payload for POST and PUT. Title, time and price
// are mandatory; a PUT treats the omitted link, tags and ingredients as
// "clear", which is why the same struct serves both verbs.
type CreateRecipeRequest struct {
	Title         *string  `json:"title" validate:"required"`
	TimeInMinutes *int     `json:"time_in_minutes" validate:"required,gt=0"`
	Price         *float64 `json:"price" validate:"required,gte=0"`
	Link          *string  `json:"link"`
	Tags          []int64  `json:"tags"`
	Ingredients   []int64  `json:"ingredients"`
}

// UpdateRecipeRequest is the PATCH payload. Every field is optional; only
// fields present in the body are touched. A present tags or ingredients list
// fully replaces that association set and nothing else.
type UpdateRecipeRequest struct {
	Title         *string  `json:"title"`
	TimeInMinutes *int     `json:"time_in_minutes" validate:"omitempty,gt=0"`
	Price         *float64 `json:"price" validate:"omitempty,gte=0"`
	Link          *string  `json:"link"`
	Tags          *[]int64 `json:"tags"`
	Ingredients   *[]int64 `json:"ingredients"`
}
