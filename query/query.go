// Package query implements the listing, search and lookup operations over a
// normalized book table.
package query

import (
	"errors"
	"sort"
	"strings"

	"github.com/aluiziolira/go-books-insights/models"
)

// ErrBookNotFound is returned by FindByID when no row has the id.
var ErrBookNotFound = errors.New("query: book not found")

// Criteria are the optional search filters. Empty strings and nil pointers
// disable the matching filter.
type Criteria struct {
	Title     string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *int
}

// List returns up to limit books starting at skip.
func List(books []models.Book, skip, limit int) []models.Book {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	if skip >= len(books) {
		return []models.Book{}
	}
	end := skip + limit
	if end > len(books) || end < skip {
		end = len(books)
	}
	return books[skip:end]
}

// Search keeps the books that pass every active filter.
func Search(books []models.Book, c Criteria) []models.Book {
	title := strings.ToLower(c.Title)
	category := strings.ToLower(c.Category)

	out := make([]models.Book, 0)
	for _, b := range books {
		if title != "" && !containsFold(b.Title, title) {
			continue
		}
		if category != "" && !containsFold(b.Category, category) {
			continue
		}
		if c.MinPrice != nil && (b.Price == nil || *b.Price < *c.MinPrice) {
			continue
		}
		if c.MaxPrice != nil && (b.Price == nil || *b.Price > *c.MaxPrice) {
			continue
		}
		if c.MinRating != nil && b.Rating < *c.MinRating {
			continue
		}
		out = append(out, b)
	}
	return out
}

// TopRated orders by rating descending, then price ascending with null
// prices last, and returns the first limit books. Ties keep source order.
func TopRated(books []models.Book, limit int) []models.Book {
	sorted := make([]models.Book, len(books))
	copy(sorted, books)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		switch {
		case a.Price == nil:
			return false
		case b.Price == nil:
			return true
		}
		return *a.Price < *b.Price
	})
	if limit < 0 {
		limit = 0
	}
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// PriceRange returns books priced within [min, max]. Books without a price
// never match.
func PriceRange(books []models.Book, min, max float64) []models.Book {
	out := make([]models.Book, 0)
	for _, b := range books {
		if b.Price == nil {
			continue
		}
		if *b.Price >= min && *b.Price <= max {
			out = append(out, b)
		}
	}
	return out
}

// FindByID returns the first book with the given id.
func FindByID(books []models.Book, id int64) (models.Book, error) {
	for _, b := range books {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Book{}, ErrBookNotFound
}

// Categories returns the distinct non-blank category names, sorted.
func Categories(books []models.Book) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, b := range books {
		if b.Category == nil || strings.TrimSpace(*b.Category) == "" {
			continue
		}
		if _, ok := seen[*b.Category]; ok {
			continue
		}
		seen[*b.Category] = struct{}{}
		out = append(out, *b.Category)
	}
	sort.Strings(out)
	return out
}

func containsFold(field *string, lowered string) bool {
	if field == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*field), lowered)
}
