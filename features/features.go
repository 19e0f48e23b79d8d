// Package features derives model-ready views of the book table and
// summarizes externally produced predictions.
package features

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/aluiziolira/go-books-insights/insights"
	"github.com/aluiziolira/go-books-insights/models"
)

// UnknownCategory replaces a null category in feature views.
const UnknownCategory = "unknown"

// UnknownModel names predictions submitted without a model.
const UnknownModel = "unknown"

// TargetColumn is the designated training target.
const TargetColumn = "price"

// FeatureColumns are the designated training inputs.
var FeatureColumns = []string{"category", "price", "rating", "in_stock"}

// ErrNoPredictions is returned when a prediction batch is empty.
var ErrNoPredictions = errors.New("features: predictions payload is empty")

// Row is one record of the feature matrix.
type Row struct {
	ID       int64    `json:"id"`
	Title    *string  `json:"title"`
	Category string   `json:"category"`
	Price    *float64 `json:"price"`
	Rating   int      `json:"rating"`
	InStock  bool     `json:"in_stock"`
}

// TrainingRow is a feature row plus the raw availability text and the
// product link.
type TrainingRow struct {
	Row
	Availability *string `json:"availability"`
	Link         *string `json:"link"`
}

// TrainingDataset packages training rows with the column roles.
type TrainingDataset struct {
	Records        []TrainingRow `json:"records"`
	FeatureColumns []string      `json:"feature_columns"`
	Target         *string       `json:"target"`
}

// Prediction is one submitted model output.
type Prediction struct {
	BookID   *int64         `json:"book_id"`
	Model    *string        `json:"model"`
	Score    *Score         `json:"score"`
	Label    *string        `json:"label"`
	Metadata map[string]any `json:"metadata"`
}

// Score is a prediction score. It decodes from a JSON number or from a
// string holding one ("0.5").
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(text))
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("score %s is not a number", data)
	}
	*s = Score(v)
	return nil
}

// Summary acknowledges a prediction batch.
type Summary struct {
	Received     int      `json:"received"`
	Models       []string `json:"models"`
	AverageScore *float64 `json:"average_score"`
}

func toRow(b models.Book) Row {
	category := UnknownCategory
	if b.Category != nil {
		category = *b.Category
	}
	return Row{
		ID:       b.ID,
		Title:    b.Title,
		Category: category,
		Price:    b.Price,
		Rating:   b.Rating,
		InStock:  b.InStock(),
	}
}

// Matrix projects every book onto the feature columns.
func Matrix(books []models.Book) []Row {
	rows := make([]Row, 0, len(books))
	for _, b := range books {
		rows = append(rows, toRow(b))
	}
	return rows
}

// TrainingData returns the training view. An empty table yields no records,
// no feature columns and a null target.
func TrainingData(books []models.Book) TrainingDataset {
	if len(books) == 0 {
		return TrainingDataset{
			Records:        []TrainingRow{},
			FeatureColumns: []string{},
		}
	}

	records := make([]TrainingRow, 0, len(books))
	for _, b := range books {
		records = append(records, TrainingRow{Row: toRow(b), Availability: b.Availability, Link: b.Link})
	}
	columns := make([]string, len(FeatureColumns))
	copy(columns, FeatureColumns)
	target := TargetColumn

	return TrainingDataset{
		Records:        records,
		FeatureColumns: columns,
		Target:         &target,
	}
}

// SummarizePredictions counts the batch, lists the distinct model names and
// averages the scores that were given, rounded to 4 decimals.
func SummarizePredictions(predictions []Prediction) (Summary, error) {
	if len(predictions) == 0 {
		return Summary{}, ErrNoPredictions
	}

	seen := make(map[string]struct{})
	names := make([]string, 0)
	var sum float64
	var scored int
	for _, p := range predictions {
		name := UnknownModel
		if p.Model != nil {
			name = *p.Model
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		if p.Score != nil {
			sum += float64(*p.Score)
			scored++
		}
	}
	sort.Strings(names)

	summary := Summary{Received: len(predictions), Models: names}
	if scored > 0 {
		summary.AverageScore = models.Float(insights.Round(sum/float64(scored), 4))
	}
	return summary, nil
}
