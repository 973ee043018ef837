package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Table is a CSV file: a header row and data rows of the same width.
type Table struct {
	Header []string
	Rows   [][]string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTable(data)
}

// ParseTable decodes CSV bytes. The first record is the header; a file with
// no header at all is a format error.
func ParseTable(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("parse csv: missing header row")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	return &Table{Header: header, Rows: records[1:]}, nil
}

// Column returns the index of the first header matching any name
// (case-insensitive), or -1.
func (t *Table) Column(names ...string) int {
	for _, name := range names {
		for i, h := range t.Header {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

// Cell returns the trimmed cell at (row, col), or "" when col is -1.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Extra returns cells whose columns are not in used, keyed by header.
func (t *Table) Extra(row []string, used ...int) map[string]string {
	skip := make(map[int]bool, len(used))
	for _, u := range used {
		skip[u] = true
	}
	var extra map[string]string
	for i, h := range t.Header {
		if skip[i] || h == "" || i >= len(row) {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[h] = strings.TrimSpace(row[i])
	}
	return extra
}
