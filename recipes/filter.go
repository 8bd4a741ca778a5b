package recipes

import (
	"net/url"
	"strconv"
	"strings"
)

// Filters narrows a recipe listing. Within one id list the semantics are OR
// (any match qualifies); between the two lists they are AND.
type Filters struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// FiltersFromQuery reads the tags and ingredients parameters from a query
// string.
func FiltersFromQuery(q url.Values) Filters {
	return Filters{
		TagIDs:        ParseIDList(q.Get("tags")),
		IngredientIDs: ParseIDList(q.Get("ingredients")),
	}
}

// ParseIDList parses a comma-separated id list such as "1,2,3". Malformed
// tokens are dropped rather than failing the request, and duplicates are
// collapsed while preserving first-seen order. An empty input yields nil.
func ParseIDList(raw string) []int64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var ids []int64
	seen := make(map[int64]struct{})
	for _, token := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
