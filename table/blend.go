package table

import "github.com/maastricht-university/fold-predict/errkind"

// Blend averages tables elementwise into a new table. All tables must share
// an equal schema. The mean is accumulated incrementally, m += (x-m)/k, so
// blending identical tables returns them unchanged and no intermediate sum
// grows with the number of folds.
func Blend(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, errkind.Configuration("nothing to blend")
	}
	ref := tables[0].schema
	for i, t := range tables[1:] {
		if !ref.Equal(t.schema) {
			return nil, errkind.SchemaMismatch("table %d does not share the schema of table 0", i+1)
		}
	}

	out := New(ref)
	copy(out.values, tables[0].values)
	for k, t := range tables[1:] {
		n := float64(k + 2)
		for i, x := range t.values {
			out.values[i] += (x - out.values[i]) / n
		}
	}
	return out, nil
}
