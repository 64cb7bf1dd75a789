// Package table holds per-clip, per-label probability tables and the schema
// that fixes their row and column order.
//
// The schema is read once from the template submission. Every table is
// created against it, every table read back from disk is checked against
// it, and blending refuses tables whose schemas differ.
package table

import (
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/maastricht-university/fold-predict/errkind"
)

// DefaultIndexName is the header of the clip id column.
const DefaultIndexName = "fname"

// Schema is the ordered row index (clip ids) and ordered label columns
// shared by every table of a run.
type Schema struct {
	IndexName string
	Index     []string
	Labels    []string

	rows map[string]int
}

// NewSchema validates that ids and labels are non-empty and unique.
func NewSchema(indexName string, index, labels []string) (*Schema, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}
	if len(labels) == 0 {
		return nil, errkind.Configuration("schema has no label columns")
	}
	if dup := firstDuplicate(labels); dup != "" {
		return nil, errkind.Configuration("label %q appears twice", dup)
	}
	rows := make(map[string]int, len(index))
	for i, id := range index {
		if id == "" {
			return nil, errkind.Configuration("row %d has an empty clip id", i+1)
		}
		if _, ok := rows[id]; ok {
			return nil, errkind.Configuration("clip %q appears twice", id)
		}
		rows[id] = i
	}
	return &Schema{
		IndexName: indexName,
		Index:     slices.Clone(index),
		Labels:    slices.Clone(labels),
		rows:      rows,
	}, nil
}

// LoadTemplate reads the template submission at path and checks that its
// label columns are exactly labels, in order.
func LoadTemplate(path string, labels []string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errkind.Configuration("template submission %s does not exist", path)
		}
		return nil, errkind.IO(err, "open template %s", path)
	}
	defer f.Close()

	header, ids, err := readIndex(f)
	if err != nil {
		return nil, errkind.Configuration("template %s: %v", path, err)
	}
	if !slices.Equal(header[1:], labels) {
		return nil, errkind.Configuration("template %s columns do not match the configured labels", path)
	}
	return NewSchema(header[0], ids, labels)
}

// readIndex returns the header and first column of a CSV stream.
func readIndex(r io.Reader) ([]string, []string, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, nil, err
	}
	if len(header) < 2 {
		return nil, nil, errors.New("need an index column and at least one label column")
	}
	cr.FieldsPerRecord = len(header)
	var ids []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, rec[0])
	}
	return header, ids, nil
}

// Len is the number of rows.
func (s *Schema) Len() int { return len(s.Index) }

// Row returns the position of clip id.
func (s *Schema) Row(id string) (int, bool) {
	i, ok := s.rows[id]
	return i, ok
}

// Equal reports whether both schemas have the same rows and labels in the
// same order.
func (s *Schema) Equal(o *Schema) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	return slices.Equal(s.Index, o.Index) && slices.Equal(s.Labels, o.Labels)
}

func firstDuplicate(values []string) string {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v
		}
		seen[v] = true
	}
	return ""
}
