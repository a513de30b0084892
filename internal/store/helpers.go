package store

import (
	"fmt"
	"strings"

	"github.com/persistorai/leadintake/internal/models"
)

// maxListLimit is a defense-in-depth cap on limit values for list queries.
const maxListLimit = 1000

// clampPage bounds limit to [1, maxListLimit] and offset to >= 0.
func clampPage(limit, offset, fallback int) (int, int) {
	if limit <= 0 {
		limit = fallback
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// buildBuyerFilter builds a WHERE clause for buyer queries against alias b.
// Placeholders start at $1; nextArg is the next free placeholder index.
func buildBuyerFilter(f models.BuyerFilter) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	add := func(cond string, v any) {
		conditions = append(conditions, fmt.Sprintf(cond, argIdx))
		args = append(args, v)
		argIdx++
	}

	if f.City != "" {
		add("b.city = $%d", string(f.City))
	}

	if f.PropertyType != "" {
		add("b.property_type = $%d", string(f.PropertyType))
	}

	if f.Status != "" {
		add("b.status = $%d", string(f.Status))
	}

	if f.Timeline != "" {
		add("b.timeline = $%d", string(f.Timeline))
	}

	if pattern := f.SearchPattern(); pattern != "" {
		conditions = append(conditions, fmt.Sprintf(
			`(LOWER(b.full_name) LIKE $%[1]d ESCAPE '\' OR LOWER(COALESCE(b.email, '')) LIKE $%[1]d ESCAPE '\' OR b.phone LIKE $%[1]d ESCAPE '\')`,
			argIdx,
		))
		args = append(args, pattern)
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}
