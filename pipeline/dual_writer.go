package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-books-insights/models"
)

// DualWriter fans every batch out to the catalog CSV and a JSONL mirror.
type DualWriter struct {
	csv  *CSVWriter
	json *JSONWriter
	mu   sync.Mutex
}

// NewDualWriter opens both outputs; on failure nothing is left open.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("open csv output: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("open json output: %w", err)
	}

	return &DualWriter{csv: csvWriter, json: jsonWriter}, nil
}

func (dw *DualWriter) Write(books []*models.ScrapedBook) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.csv.Write(books); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	if err := dw.json.Write(books); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}

// Close closes both outputs and joins their errors.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	return errors.Join(wrap("csv", dw.csv.Close()), wrap("json", dw.json.Close()))
}

func (dw *DualWriter) Validate() error {
	return errors.Join(wrap("csv", dw.csv.Validate()), wrap("json", dw.json.Validate()))
}

func wrap(label string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", label, err)
}
