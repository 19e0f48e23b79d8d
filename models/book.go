// Package models defines the records shared by the scraper and the API.
package models

import (
	"bytes"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// CanonicalColumns is the fixed column prefix of every normalized table.
var CanonicalColumns = []string{
	"id",
	"title",
	"category",
	"price",
	"rating",
	"availability",
	"link",
	"image",
}

// IsCanonical reports whether name is one of CanonicalColumns.
func IsCanonical(name string) bool {
	for _, c := range CanonicalColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Field is an uninterpreted source column carried alongside a Book.
type Field struct {
	Name  string
	Value *string
}

// Book is a normalized catalog row. Nil pointers are null cells.
type Book struct {
	ID           int64
	Title        *string
	Category     *string
	Price        *float64
	Rating       int
	Availability *string
	Link         *string
	Image        *string

	// Extra holds non-canonical source columns in source order.
	Extra []Field
}

// ExtraValue returns the value of an extra column by name.
func (b Book) ExtraValue(name string) (*string, bool) {
	for _, f := range b.Extra {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes the canonical columns first, then the extras.
func (b Book) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(first bool, key string, value any) error {
		if !first {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	canonical := []any{b.ID, b.Title, b.Category, b.Price, b.Rating, b.Availability, b.Link, b.Image}
	for i, name := range CanonicalColumns {
		if err := write(i == 0, name, canonical[i]); err != nil {
			return nil, err
		}
	}
	for _, f := range b.Extra {
		if err := write(false, f.Name, f.Value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// InStock reports whether the availability text advertises stock.
func (b Book) InStock() bool {
	if b.Availability == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*b.Availability), "in stock")
}

// Table is the in-memory dataset rebuilt from the backing file.
type Table struct {
	// Columns lists CanonicalColumns followed by the extra source columns.
	Columns []string
	Books   []Book
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Books)
}

// ScrapedBook is a raw listing captured from the catalog site.
type ScrapedBook struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Price         string    `json:"price"`
	RatingText    string    `json:"rating"`
	RatingNumeric int       `json:"rating_numeric"`
	Availability  string    `json:"availability"`
	ImageURL      string    `json:"image"`
	URL           string    `json:"link"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// ScraperResult holds the overall result of a scraping operation
type ScraperResult struct {
	StartTime     time.Time
	EndTime       time.Time
	TotalCount    int
	ErrorCount    int
	FailedURLs    []string
	ErrorsByType  map[string]int
	RetryCount    int
	RequestCount  int
	PageCount     int
	CategoryCount int
}

// String returns a pointer to s, for building nullable fields.
func String(s string) *string {
	return &s
}

// Float returns a pointer to f, for building nullable fields.
func Float(f float64) *float64 {
	return &f
}
