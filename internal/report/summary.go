package report

import "github.com/JonMunkholm/tbe/internal/tbe"

// ColumnSummary counts how a column appears across a result set.
type ColumnSummary struct {
	Name    string `json:"name"`
	Present int    `json:"present"`
	Nulls   int    `json:"nulls"`
}

// Summary describes a result set: its size and the union of its columns in
// first-seen order.
type Summary struct {
	Records int             `json:"records"`
	Columns []ColumnSummary `json:"columns"`
}

// Summarize walks rs once and tallies every column it meets.
func Summarize(rs tbe.ResultSet) Summary {
	s := Summary{Records: len(rs), Columns: []ColumnSummary{}}
	index := make(map[string]int)

	for _, rec := range rs {
		for _, f := range rec {
			i, ok := index[f.Name]
			if !ok {
				i = len(s.Columns)
				index[f.Name] = i
				s.Columns = append(s.Columns, ColumnSummary{Name: f.Name})
			}
			s.Columns[i].Present++
			if f.Value == tbe.NullValue {
				s.Columns[i].Nulls++
			}
		}
	}
	return s
}

// ColumnNames returns the column union in first-seen order.
func (s Summary) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
