package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/maastricht-university/fold-predict/errkind"
)

// Table is a Len() × len(Labels) matrix of probabilities bound to a schema.
type Table struct {
	schema *Schema
	values []float64
}

// New returns a zero-filled table for s.
func New(s *Schema) *Table {
	return &Table{schema: s, values: make([]float64, s.Len()*len(s.Labels))}
}

func (t *Table) Schema() *Schema { return t.schema }

// Row returns the values of row i. The slice aliases the table.
func (t *Table) Row(i int) []float64 {
	n := len(t.schema.Labels)
	return t.values[i*n : (i+1)*n]
}

// Get returns the row of clip id.
func (t *Table) Get(id string) ([]float64, bool) {
	i, ok := t.schema.Row(id)
	if !ok {
		return nil, false
	}
	return t.Row(i), true
}

// Set overwrites the row of clip id with v.
func (t *Table) Set(id string, v []float64) error {
	i, ok := t.schema.Row(id)
	if !ok {
		return errkind.SchemaMismatch("clip %q is not in the schema", id)
	}
	if len(v) != len(t.schema.Labels) {
		return errkind.SchemaMismatch("clip %q: %d values for %d labels", id, len(v), len(t.schema.Labels))
	}
	copy(t.Row(i), v)
	return nil
}

// Write encodes the table as CSV: a header of the index name and labels,
// then one row per clip with values as plain decimals.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{t.schema.IndexName}, t.schema.Labels...)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i, id := range t.schema.Index {
		rec[0] = id
		for j, v := range t.Row(i) {
			rec[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path, creating parent directories. The
// content goes to a temporary file in the same directory that is renamed
// into place, so a crash never leaves a truncated table behind.
func (t *Table) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errkind.IO(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errkind.IO(err, "create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	if err := t.Write(tmp); err != nil {
		tmp.Close()
		return errkind.IO(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errkind.IO(err, "close %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errkind.IO(err, "chmod %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errkind.IO(err, "rename to %s", path)
	}
	return nil
}

// Read decodes a CSV table and checks it against s: the header must be
// s.IndexName followed by s.Labels, and the rows must be s.Index in order.
func Read(r io.Reader, s *Schema) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != s.IndexName {
		return nil, errkind.SchemaMismatch("index column %q differs from schema %q", header[0], s.IndexName)
	}
	if !slices.Equal(header[1:], s.Labels) {
		return nil, errkind.SchemaMismatch("label columns %v differ from schema", header[1:])
	}
	cr.FieldsPerRecord = len(header)

	t := New(s)
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		if row >= s.Len() {
			return nil, errkind.SchemaMismatch("more rows than the %d in the schema", s.Len())
		}
		if rec[0] != s.Index[row] {
			return nil, errkind.SchemaMismatch("row %d is %q, schema has %q", row+1, rec[0], s.Index[row])
		}
		dst := t.Row(row)
		for j, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %q column %q: %w", rec[0], s.Labels[j], err)
			}
			dst[j] = v
		}
		row++
	}
	if row != s.Len() {
		return nil, errkind.SchemaMismatch("%d rows, schema has %d", row, s.Len())
	}
	return t, nil
}

// ReadFile reads the table at path and validates it against s.
func ReadFile(path string, s *Schema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errkind.IO(err, "open %s", path)
	}
	defer f.Close()
	t, err := Read(f, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
