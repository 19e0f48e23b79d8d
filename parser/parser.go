// Package parser holds the cell-level cleaning rules shared by the scraper
// and the dataset normalizer.
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-books-insights/models"
)

var ratingWords = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// MaxRating is the top of the star scale.
const MaxRating = 5

// ValidateBook ensures the scraper captured the required fields.
func ValidateBook(b *models.ScrapedBook) error {
	if b == nil {
		return fmt.Errorf("book is nil")
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("book missing title")
	}
	if strings.TrimSpace(b.Price) == "" {
		return fmt.Errorf("book missing price for %s", b.Title)
	}
	if strings.TrimSpace(b.RatingText) == "" {
		return fmt.Errorf("book missing rating for %s", b.Title)
	}
	if strings.TrimSpace(b.URL) == "" {
		return fmt.Errorf("book missing link for %s", b.Title)
	}
	return nil
}

// CleanPrice keeps digits, '.', ',' and '-' and then turns ',' into '.'.
// Stripping runs first so currency symbols glued to separators are dropped
// before the decimal separator is rewritten.
func CleanPrice(price string) string {
	var b strings.Builder
	b.Grow(len(price))
	for _, r := range price {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(b.String(), ",", ".")
}

// ParsePrice cleans and parses a price cell. It returns nil when the cleaned
// text is not a number.
func ParsePrice(price string) *float64 {
	cleaned := CleanPrice(price)
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NormalizePrice returns the cleaned price text, or "" when it does not parse.
func NormalizePrice(price string) string {
	v := ParsePrice(price)
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// NormalizeAvailability trims spacing from the availability text.
func NormalizeAvailability(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// RatingToNumeric converts a star-rating word to the numeric scale.
// Unknown words give 0.
func RatingToNumeric(rating string) int {
	rating = strings.TrimSpace(rating)
	if v, ok := ratingWords[rating]; ok {
		return v
	}
	for word, v := range ratingWords {
		if strings.EqualFold(word, rating) {
			return v
		}
	}
	return 0
}

// ParseRating maps a rating cell to 0..MaxRating. Words are tried first,
// then numeric coercion with the fraction truncated; anything else is 0.
func ParseRating(rating string) int {
	if v := RatingToNumeric(rating); v != 0 {
		return v
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(rating), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return clampRating(int(f))
}

func clampRating(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}
