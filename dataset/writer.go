package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aluiziolira/go-books-insights/models"
)

// WriteCSV serializes a normalized table. Null cells are written empty so
// that Load gives them back as null.
func WriteCSV(w io.Writer, t *models.Table) error {
	writer := csv.NewWriter(w)

	columns := t.Columns
	if len(columns) == 0 {
		columns = models.CanonicalColumns
	}
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(columns))
	for _, b := range t.Books {
		for i, name := range columns {
			record[i] = cellText(b, name)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// WriteFile replaces path with the serialized table. The content goes to a
// temporary file in the same directory first and is renamed into place.
func WriteFile(path string, t *models.Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %q: %w", path, err)
	}
	return nil
}

func cellText(b models.Book, column string) string {
	switch column {
	case "id":
		return strconv.FormatInt(b.ID, 10)
	case "title":
		return deref(b.Title)
	case "category":
		return deref(b.Category)
	case "price":
		if b.Price == nil {
			return ""
		}
		return strconv.FormatFloat(*b.Price, 'f', -1, 64)
	case "rating":
		return strconv.Itoa(b.Rating)
	case "availability":
		return deref(b.Availability)
	case "link":
		return deref(b.Link)
	case "image":
		return deref(b.Image)
	}
	v, _ := b.ExtraValue(column)
	return deref(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
