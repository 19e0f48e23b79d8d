// Package dataset loads the backing CSV and normalizes it into a
// models.Table.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/aluiziolira/go-books-insights/models"
)

// ErrMalformed is returned when the backing file is not valid CSV.
var ErrMalformed = errors.New("dataset: malformed file")

// nullTokens are the cell values read as missing.
var nullTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawTable is the file content before normalization. A nil cell is null.
type RawTable struct {
	Header []string
	Rows   [][]*string
}

// Load reads the CSV at path. A missing or empty file gives an empty table
// with the canonical columns.
func Load(path string) (*RawTable, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dataset %q: %w", path, err)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %q: %w", path, err)
	}
	return table, nil
}

// Read parses CSV content from r.
func Read(r io.Reader) (*RawTable, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return emptyTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	if len(header) == 1 && strings.TrimSpace(header[0]) == "" {
		return emptyTable(), nil
	}

	header = normalizeHeader(header)
	table := &RawTable{Header: header}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: expected %d fields, saw %d", ErrMalformed, line, len(header), len(record))
		}

		row := make([]*string, len(header))
		for i, cell := range record {
			if _, null := nullTokens[cell]; null {
				continue
			}
			value := cell
			row[i] = &value
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// Column returns the index of the first column called name, or -1.
func (t *RawTable) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// normalizeHeader names blank columns "Unnamed: <i>" and renames repeated
// names to "<name>.<n>" so every source column keeps its data.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	present := make(map[string]struct{}, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = h
		present[h] = struct{}{}
	}

	assigned := make(map[string]struct{}, len(out))
	counts := make(map[string]int)
	for i, h := range out {
		if _, dup := assigned[h]; dup {
			n := counts[h]
			name := h
			for {
				n++
				name = fmt.Sprintf("%s.%d", h, n)
				_, inHeader := present[name]
				_, taken := assigned[name]
				if !inHeader && !taken {
					break
				}
			}
			counts[h] = n
			out[i] = name
		}
		assigned[out[i]] = struct{}{}
	}
	return out
}

func emptyTable() *RawTable {
	header := make([]string, len(models.CanonicalColumns))
	copy(header, models.CanonicalColumns)
	return &RawTable{Header: header}
}
