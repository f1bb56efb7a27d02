package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JonMunkholm/tbe/internal/tbe"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// PrintMetadataTable renders one row per file.
func PrintMetadataTable(w io.Writer, files []FileMetadata) {
	t := newTable(w)
	t.AppendHeader(table.Row{"File Name", "Rows", "Columns", "Column Names"})
	for _, m := range files {
		t.AppendRow(table.Row{m.FileName, m.RowCount, m.ColumnCount, strings.Join(m.ColumnNames, ", ")})
	}
	t.Render()
}

// PrintRecordsTable renders rs with one column per name in the column
// union. Cells for columns a record lacks are left blank.
func PrintRecordsTable(w io.Writer, rs tbe.ResultSet) {
	cols := Summarize(rs).ColumnNames()
	if len(cols) == 0 {
		fmt.Fprintf(w, "(%d records)\n", len(rs))
		return
	}

	t := newTable(w)
	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, rec := range rs {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			v, _ := rec.Get(c)
			row[i] = v
		}
		t.AppendRow(row)
	}
	t.Render()
	fmt.Fprintf(w, "(%d records)\n", len(rs))
}

// PrintSummary renders per-column counts.
func PrintSummary(w io.Writer, s Summary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Column", "Present", "NULL"})
	for _, c := range s.Columns {
		t.AppendRow(table.Row{c.Name, c.Present, c.Nulls})
	}
	t.AppendFooter(table.Row{"Records", s.Records, ""})
	t.Render()
}

// PrintGlobalTable renders the global metadata block in file order.
func PrintGlobalTable(w io.Writer, attrs []tbe.Attribute) {
	if len(attrs) == 0 {
		fmt.Fprintln(w, "(no global attributes)")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Name", "Value"})
	for _, a := range attrs {
		t.AppendRow(table.Row{a.Name, a.Value})
	}
	t.Render()
}
