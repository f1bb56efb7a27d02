// Package templates holds the HTML views of the extraction UI as templ
// components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tbe/internal/core"
	"github.com/JonMunkholm/tbe/internal/tbe"
)

const styles = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;margin:1rem 0}
th,td{border:1px solid #d1d5db;padding:.3rem .6rem;text-align:left}
th{background:#f3f4f6}
td.null{color:#9ca3af}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:.75rem;border-radius:.25rem}
.failed{color:#b91c1c}
code{font-size:.85em}`

// esc escapes s for HTML text and attribute contexts.
func esc(s string) string {
	return templ.EscapeString(s)
}

// writer collects the first write error so components can render without
// checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title><style>%s</style></head><body>`,
			esc(title), styles)
		out.printf(`<header><h1><a href="/">TBE Extractor</a></h1></header><main>`)
		if out.err != nil {
			return out.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		out.printf(`</main></body></html>`)
		return out.err
	})
}

// UploadForm posts one or more files to the extraction API.
func UploadForm() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.printf(`<form method="post" action="/extract" enctype="multipart/form-data">`)
		out.printf(`<input type="file" name="file" multiple required> <button type="submit">Extract</button>`)
		out.printf(`</form>`)
		return out.err
	})
}

// ExtractionList renders recent extractions, newest first.
func ExtractionList(items []core.ExtractionSummary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.printf(`<h2>Recent extractions</h2>`)
		if len(items) == 0 {
			out.printf(`<p>No extractions yet.</p>`)
			return out.err
		}

		out.printf(`<table><thead><tr><th>ID</th><th>Created</th><th>Files</th><th>Records</th><th>Failed</th></tr></thead><tbody>`)
		for _, it := range items {
			id := it.ID.String()
			out.printf(`<tr><td><a href="/extractions/%s"><code>%s</code></a></td><td>%s</td><td>%s</td><td>%d</td><td>%d</td></tr>`,
				esc(id), esc(id[:8]),
				esc(it.CreatedAt.Format("2006-01-02 15:04:05")),
				esc(strings.Join(it.FileNames, ", ")),
				it.RecordCount, it.FailedFiles)
		}
		out.printf(`</tbody></table>`)
		return out.err
	})
}

// ExtractionDetail renders per-file results and a page of records.
func ExtractionDetail(e *core.Extraction, columns []string, records tbe.ResultSet) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		id := e.ID.String()
		out.printf(`<h2>Extraction <code>%s</code></h2>`, esc(id))
		out.printf(`<p>%d records from %d files in %d ms. <a href="/api/extractions/%s/records?format=csv">Download CSV</a> | <a href="/api/extractions/%s/records">JSON</a></p>`,
			e.RecordCount, len(e.Files), e.DurationMs, esc(id), esc(id))

		out.printf(`<table><thead><tr><th>File</th><th>Tables</th><th>Records</th><th>Checksum</th><th>Status</th></tr></thead><tbody>`)
		for _, f := range e.Files {
			status := "ok"
			class := ""
			if f.Failed() {
				status = f.Error
				class = ` class="failed"`
			}
			out.printf(`<tr><td>%s</td><td>%d</td><td>%d</td><td><code>%s</code></td><td%s>%s</td></tr>`,
				esc(f.Name), f.Tables, f.Records, esc(f.Checksum), class, esc(status))
		}
		out.printf(`</tbody></table>`)
		if out.err != nil {
			return out.err
		}

		return RecordTable(columns, records).Render(ctx, w)
	})
}

// RecordTable renders records under the given columns. Missing cells are
// left blank and NULL cells are dimmed.
func RecordTable(columns []string, records tbe.ResultSet) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := &writer{w: w}
		if len(records) == 0 {
			out.printf(`<p>No records.</p>`)
			return out.err
		}

		out.printf(`<table><thead><tr>`)
		for _, c := range columns {
			out.printf(`<th>%s</th>`, esc(c))
		}
		out.printf(`</tr></thead><tbody>`)
		for _, rec := range records {
			out.printf(`<tr>`)
			for _, c := range columns {
				v, _ := rec.Get(c)
				if v == tbe.NullValue {
					out.printf(`<td class="null">%s</td>`, esc(v))
				} else {
					out.printf(`<td>%s</td>`, esc(v))
				}
			}
			out.printf(`</tr>`)
		}
		out.printf(`</tbody></table>`)
		return out.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.printf(`<div class="alert" role="alert"><strong>%s</strong>`, esc(message))
		if action != "" {
			out.printf(`<p>%s</p>`, esc(action))
		}
		out.printf(`<small>Code: %s</small></div>`, esc(code))
		return out.err
	})
}

// Join renders components in sequence.
func Join(parts ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, p := range parts {
			if err := p.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}
