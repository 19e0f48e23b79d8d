package parser

import (
	"testing"
	"time"

	"github.com/aluiziolira/go-books-insights/models"
)

func TestValidateBook(t *testing.T) {
	tests := []struct {
		name    string
		book    *models.ScrapedBook
		wantErr bool
	}{
		{
			name: "valid book",
			book: &models.ScrapedBook{
				Title:        "Test Book",
				Price:        "£10.00",
				RatingText:   "Five",
				Availability: "In stock",
				URL:          "http://example.com",
				ScrapedAt:    time.Now(),
			},
			wantErr: false,
		},
		{
			name:    "nil book",
			book:    nil,
			wantErr: true,
		},
		{
			name: "missing title",
			book: &models.ScrapedBook{
				Price:      "£10.00",
				RatingText: "Five",
				URL:        "http://example.com",
			},
			wantErr: true,
		},
		{
			name: "missing price",
			book: &models.ScrapedBook{
				Title:      "Test Book",
				RatingText: "Five",
				URL:        "http://example.com",
			},
			wantErr: true,
		},
		{
			name: "missing rating",
			book: &models.ScrapedBook{
				Title: "Test Book",
				Price: "£10.00",
				URL:   "http://example.com",
			},
			wantErr: true,
		},
		{
			name: "missing link",
			book: &models.ScrapedBook{
				Title:      "Test Book",
				Price:      "£10.00",
				RatingText: "Five",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBook(tt.book)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBook() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		null  bool
	}{
		{name: "pound comma decimal", input: "£12,50", want: 12.50},
		{name: "mojibake pound", input: "Â£51.77", want: 51.77},
		{name: "plain", input: "25.99", want: 25.99},
		{name: "whitespace and symbols", input: "  £ 99.99 £ ", want: 99.99},
		{name: "negative", input: "-3,5", want: -3.5},
		{name: "integer", input: "£10", want: 10},
		{name: "thousands and decimal", input: "1,234.56", null: true},
		{name: "no digits", input: "free", null: true},
		{name: "empty", input: "", null: true},
		{name: "lone separator", input: "£.", null: true},
		{name: "nan text", input: "nan", null: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			if tt.null {
				if got != nil {
					t.Fatalf("ParsePrice(%q) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParsePrice(%q) = nil, want %v", tt.input, tt.want)
			}
			if *got != tt.want {
				t.Fatalf("ParsePrice(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestParsePriceIdempotent(t *testing.T) {
	for _, input := range []string{"£12,50", "Â£51.77", "7"} {
		first := ParsePrice(input)
		if first == nil {
			t.Fatalf("ParsePrice(%q) = nil", input)
		}
		second := ParsePrice(NormalizePrice(input))
		if second == nil || *second != *first {
			t.Fatalf("reparse of %q = %v, want %v", input, second, *first)
		}
	}
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "£51.77", expected: "51.77"},
		{input: "  £10.50  ", expected: "10.50"},
		{input: "£12,5", expected: "12.50"},
		{input: "", expected: ""},
		{input: "n/a", expected: ""},
	}

	for _, tt := range tests {
		if got := NormalizePrice(tt.input); got != tt.expected {
			t.Errorf("NormalizePrice(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRatingToNumeric(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{input: "One", expected: 1},
		{input: "Two", expected: 2},
		{input: "Three", expected: 3},
		{input: "Four", expected: 4},
		{input: "Five", expected: 5},
		{input: "five", expected: 5},
		{input: "tHrEe", expected: 3},
		{input: " Two ", expected: 2},
		{input: "Zero", expected: 0},
		{input: "Invalid", expected: 0},
		{input: "", expected: 0},
	}

	for _, tt := range tests {
		if got := RatingToNumeric(tt.input); got != tt.expected {
			t.Errorf("RatingToNumeric(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{input: "Four", expected: 4},
		{input: "one", expected: 1},
		{input: "3", expected: 3},
		{input: "4.8", expected: 4},
		{input: "0", expected: 0},
		{input: "-2", expected: 0},
		{input: "9", expected: 5},
		{input: "NaN", expected: 0},
		{input: "Inf", expected: 0},
		{input: "stars", expected: 0},
		{input: "", expected: 0},
	}

	for _, tt := range tests {
		got := ParseRating(tt.input)
		if got != tt.expected {
			t.Errorf("ParseRating(%q) = %d, want %d", tt.input, got, tt.expected)
		}
		if got < 0 || got > MaxRating {
			t.Errorf("ParseRating(%q) = %d outside 0..%d", tt.input, got, MaxRating)
		}
	}
}

func TestNormalizeAvailability(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "  In stock (22 available)  ", expected: "In stock (22 available)"},
		{input: "\n    In stock\n    ", expected: "In stock"},
		{input: "In stock", expected: "In stock"},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		if got := NormalizeAvailability(tt.input); got != tt.expected {
			t.Errorf("NormalizeAvailability(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
