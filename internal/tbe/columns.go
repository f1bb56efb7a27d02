package tbe

import "strings"

// Columns maps data row positions to column names for one table.
// Position 0 of every row belongs to the marker column and is never mapped.
type Columns struct {
	names []string
}

// NewColumns builds the column mapping from a split header line.
// The first token is the marker and is discarded; the rest are trimmed.
func NewColumns(header []string) Columns {
	if len(header) < 2 {
		return Columns{}
	}
	names := make([]string, len(header)-1)
	for i, h := range header[1:] {
		names[i] = strings.TrimSpace(h)
	}
	return Columns{names: names}
}

// Names returns the column names in positional order.
func (c Columns) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of mapped columns.
func (c Columns) Len() int {
	return len(c.names)
}

// Record zips a split data row with the column names. Values are trimmed
// and empty values become NullValue. The shorter side wins.
func (c Columns) Record(fields []string) Record {
	n := min(len(c.names), len(fields)-1)
	if n <= 0 {
		return Record{}
	}

	rec := make(Record, 0, n)
	for i := 0; i < n; i++ {
		rec = rec.set(c.names[i], normalize(fields[i+1]))
	}
	return rec
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return NullValue
	}
	return v
}
