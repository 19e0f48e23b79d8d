// Package insights computes dataset-wide and per-category statistics over a
// normalized book table.
package insights

import (
	"math"
	"sort"

	"github.com/aluiziolira/go-books-insights/models"
)

// Overview summarizes the whole table.
type Overview struct {
	TotalBooks         int            `json:"total_books"`
	AvgPrice           float64        `json:"avg_price"`
	RatingDistribution map[int]int    `json:"rating_distribution"`
	Availability       map[string]int `json:"availability"`
}

// CategoryStat aggregates the books of one category. Price aggregates are
// nil when no book in the category has a price.
type CategoryStat struct {
	Category  string   `json:"category"`
	Books     int      `json:"books"`
	AvgPrice  *float64 `json:"avg_price"`
	MaxPrice  *float64 `json:"max_price"`
	MinPrice  *float64 `json:"min_price"`
	AvgRating *float64 `json:"avg_rating"`
}

// ComputeOverview returns row count, mean price over priced rows (0 when
// there are none), a rating histogram and an availability histogram.
func ComputeOverview(books []models.Book) Overview {
	out := Overview{
		TotalBooks:         len(books),
		RatingDistribution: make(map[int]int),
		Availability:       make(map[string]int),
	}

	var sum float64
	var priced int
	for _, b := range books {
		if b.Price != nil {
			sum += *b.Price
			priced++
		}
		out.RatingDistribution[b.Rating]++
		if b.Availability != nil {
			out.Availability[*b.Availability]++
		}
	}
	if priced > 0 {
		out.AvgPrice = Round(sum/float64(priced), 2)
	}
	return out
}

// RatingKeys returns the rating distribution keys in ascending order.
func (o Overview) RatingKeys() []int {
	keys := make([]int, 0, len(o.RatingDistribution))
	for k := range o.RatingDistribution {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

type categoryAcc struct {
	titles    int
	priced    int
	priceSum  float64
	minPrice  float64
	maxPrice  float64
	rows      int
	ratingSum int
}

// ComputeCategoryStats groups by category, sorted by category name. Rows
// with a null category are left out; the result is empty when every category
// is null.
func ComputeCategoryStats(books []models.Book) []CategoryStat {
	groups := make(map[string]*categoryAcc)
	for _, b := range books {
		if b.Category == nil {
			continue
		}
		acc, ok := groups[*b.Category]
		if !ok {
			acc = &categoryAcc{}
			groups[*b.Category] = acc
		}
		acc.rows++
		acc.ratingSum += b.Rating
		if b.Title != nil {
			acc.titles++
		}
		if b.Price != nil {
			p := *b.Price
			if acc.priced == 0 || p < acc.minPrice {
				acc.minPrice = p
			}
			if acc.priced == 0 || p > acc.maxPrice {
				acc.maxPrice = p
			}
			acc.priceSum += p
			acc.priced++
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := make([]CategoryStat, 0, len(names))
	for _, name := range names {
		acc := groups[name]
		stat := CategoryStat{
			Category:  name,
			Books:     acc.titles,
			AvgRating: models.Float(Round(float64(acc.ratingSum)/float64(acc.rows), 2)),
		}
		if acc.priced > 0 {
			stat.AvgPrice = models.Float(Round(acc.priceSum/float64(acc.priced), 2))
			stat.MaxPrice = models.Float(acc.maxPrice)
			stat.MinPrice = models.Float(acc.minPrice)
		}
		stats = append(stats, stat)
	}
	return stats
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
