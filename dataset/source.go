package dataset

import (
	"github.com/aluiziolira/go-books-insights/models"
)

// Source reads the normalized table from a backing file on every call.
type Source struct {
	Path string
}

// NewSource returns a Source for path.
func NewSource(path string) *Source {
	return &Source{Path: path}
}

// Table loads and normalizes the backing file.
func (s *Source) Table() (*models.Table, error) {
	raw, err := Load(s.Path)
	if err != nil {
		return nil, err
	}
	return Normalize(raw), nil
}
