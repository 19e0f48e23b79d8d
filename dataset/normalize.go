package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-books-insights/models"
	"github.com/aluiziolira/go-books-insights/parser"
)

// Normalize turns a raw table into the canonical book table: prices and
// ratings are coerced, missing canonical columns become null, and a missing
// id column is replaced by the zero-based row index.
func Normalize(raw *RawTable) *models.Table {
	if raw == nil {
		raw = emptyTable()
	}

	idx := make(map[string]int, len(models.CanonicalColumns))
	for _, name := range models.CanonicalColumns {
		idx[name] = raw.Column(name)
	}

	type extraCol struct {
		name string
		pos  int
	}
	var extras []extraCol
	for i, name := range raw.Header {
		if models.IsCanonical(name) {
			continue
		}
		extras = append(extras, extraCol{name: name, pos: i})
	}

	columns := make([]string, 0, len(models.CanonicalColumns)+len(extras))
	columns = append(columns, models.CanonicalColumns...)
	for _, e := range extras {
		columns = append(columns, e.name)
	}

	books := make([]models.Book, 0, len(raw.Rows))
	for rowIdx, row := range raw.Rows {
		cell := func(name string) *string {
			pos := idx[name]
			if pos < 0 || pos >= len(row) {
				return nil
			}
			return row[pos]
		}

		book := models.Book{
			ID:           rowID(cell("id"), idx["id"] >= 0, rowIdx),
			Title:        cell("title"),
			Category:     cell("category"),
			Price:        price(cell("price")),
			Rating:       rating(cell("rating")),
			Availability: cell("availability"),
			Link:         cell("link"),
			Image:        cell("image"),
		}
		if len(extras) > 0 {
			book.Extra = make([]models.Field, len(extras))
			for i, e := range extras {
				var v *string
				if e.pos < len(row) {
					v = row[e.pos]
				}
				book.Extra[i] = models.Field{Name: e.name, Value: v}
			}
		}
		books = append(books, book)
	}

	return &models.Table{Columns: columns, Books: books}
}

// rowID uses the source id when present and integral, otherwise the row index.
func rowID(cell *string, hasColumn bool, rowIdx int) int64 {
	if !hasColumn || cell == nil {
		return int64(rowIdx)
	}
	text := strings.TrimSpace(*cell)
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return int64(rowIdx)
}

func price(cell *string) *float64 {
	if cell == nil {
		return nil
	}
	return parser.ParsePrice(*cell)
}

func rating(cell *string) int {
	if cell == nil {
		return 0
	}
	return parser.ParseRating(*cell)
}
