// Package taxonomy implements the Tag and Ingredient resources. The two are
// structurally identical (an owner-scoped name), so a single service is
// parameterized by a Resource descriptor naming the backing tables, and the
// router mounts one instance per resource.
package taxonomy

// Item is an owner-scoped named entity: a tag or an ingredient.
type Item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Resource describes the tables behind one taxonomy kind. The table names
// are compile-time constants, never request input.
type Resource struct {
	// Kind appears in error messages ("tag", "ingredient").
	Kind string
	// Table is the entity table.
	Table string
	// JoinTable and JoinColumn describe the recipe association table, used
	// by the assigned-only listing.
	JoinTable  string
	JoinColumn string
}

// The two taxonomy resources in the system.
var (
	Tags = Resource{
		Kind:       "tag",
		Table:      "tags",
		JoinTable:  "recipe_tags",
		JoinColumn: "tag_id",
	}
	Ingredients = Resource{
		Kind:       "ingredient",
		Table:      "ingredients",
		JoinTable:  "recipe_ingredients",
		JoinColumn: "ingredient_id",
	}
)

// CreateItemRequest is the creation payload for either resource.
type CreateItemRequest struct {
	Name string `json:"name" validate:"required"`
}
