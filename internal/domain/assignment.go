package domain

import (
	"context"
	"errors"
)

// Category is the kind of assignment list a customer appears on.
type Category string

const (
	CategoryRetention    Category = "retention"
	CategoryReactivation Category = "reactivation"
	CategoryRecommend    Category = "recommend"
	CategoryExtra        Category = "extra"
)

// Categories lists all assignment categories in scoring order.
var Categories = []Category{
	CategoryRetention,
	CategoryReactivation,
	CategoryRecommend,
	CategoryExtra,
}

var ErrInvalidCategory = errors.New("invalid assignment category")

// validCategories for quick lookup.
var validCategories = map[Category]bool{
	CategoryRetention:    true,
	CategoryReactivation: true,
	CategoryRecommend:    true,
	CategoryExtra:        true,
}

// ParseCategory validates and returns a Category from a string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !validCategories[c] {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// IsValid returns true if the category is valid.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// AssignmentRecord is one row of an operator-maintained customer list.
// created by list management upstream; read-only to the engine.
type AssignmentRecord struct {
	CustomerCode string
	Brand        Brand
	Handler      Handler
	Category     Category
	Month        Month
}

// AssignmentBook holds an operator's four deduplicated category lists
// plus the unioned code set used for the activity bulk fetch.
// all codes are normalized (trimmed, upper-cased) on the way in.
type AssignmentBook struct {
	byCategory map[Category][]string
	union      []string
}

// NewAssignmentBook builds a book from raw category fetches.
// a code appearing twice in one category counts once for that category;
// a code appearing in several categories counts once per category but
// only once in the union.
func NewAssignmentBook(byCategory map[Category][]AssignmentRecord) *AssignmentBook {
	book := &AssignmentBook{
		byCategory: make(map[Category][]string, len(Categories)),
	}

	unionSeen := make(map[string]bool)
	for _, category := range Categories {
		seen := make(map[string]bool)
		var codes []string
		for _, record := range byCategory[category] {
			code := NormalizeCode(record.CustomerCode)
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			codes = append(codes, code)

			if !unionSeen[code] {
				unionSeen[code] = true
				book.union = append(book.union, code)
			}
		}
		book.byCategory[category] = codes
	}

	return book
}

// Codes returns the deduplicated, normalized codes for one category.
func (b *AssignmentBook) Codes(category Category) []string {
	return b.byCategory[category]
}

// Union returns every assigned code across all categories, deduplicated
// globally. used only for the activity bulk fetch.
func (b *AssignmentBook) Union() []string {
	return b.union
}

// CategoryCount returns the number of distinct codes in a category.
func (b *AssignmentBook) CategoryCount(category Category) int {
	return len(b.byCategory[category])
}

// ActiveInCategory counts the category's codes that are also in the
// active set. this is the per-category figure the score weights apply to.
func (b *AssignmentBook) ActiveInCategory(category Category, active map[string]bool) int {
	count := 0
	for _, code := range b.byCategory[category] {
		if active[code] {
			count++
		}
	}
	return count
}

// AssignmentRepository defines read access to assignment rows.
type AssignmentRepository interface {
	// ListByCategory retrieves one category's records for an exact
	// (handler, brand, month) match.
	ListByCategory(ctx context.Context, handler Handler, brand Brand, month Month, category Category) ([]AssignmentRecord, error)

	// ListByMonth retrieves every assignment record for a month across
	// all handlers, brands and categories. feeds the monthly snapshot.
	ListByMonth(ctx context.Context, month Month) ([]AssignmentRecord, error)

	// ListOperators returns the distinct (handler, brand) pairs that have
	// assignments in a month. this is the leaderboard roster.
	ListOperators(ctx context.Context, month Month) ([]Operator, error)
}

// Operator is a scored entity: one handler on one brand.
type Operator struct {
	Handler Handler
	Brand   Brand
}
