package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tbe/internal/tbe"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractMetadata(t *testing.T) {
	dir := t.TempDir()
	content := "id,name,city\n1,a,x\n2,b,y\n3,c,z\n4,d,w\n5,e,v\n6,f,u\n"
	path := writeFile(t, dir, "sites.csv", content)

	meta, err := ExtractMetadata(path, DefaultSampleRows)
	require.NoError(t, err)

	assert.Equal(t, "sites.csv", meta.FileName)
	assert.Equal(t, int64(len(content)), meta.FileSize)
	assert.Equal(t, 6, meta.RowCount)
	assert.Equal(t, 3, meta.ColumnCount)
	assert.Equal(t, []string{"id", "name", "city"}, meta.ColumnNames)
	assert.Equal(t, []string{"1,a,x", "2,b,y", "3,c,z", "4,d,w", "5,e,v"}, meta.SampleData)
	assert.NotEmpty(t, meta.CreationTime)
	assert.NotEmpty(t, meta.LastModifiedTime)
}

func TestExtractMetadata_ShortAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()

	meta, err := ExtractMetadata(writeFile(t, dir, "header.csv", "a,b\n"), DefaultSampleRows)
	require.NoError(t, err)
	assert.Equal(t, 0, meta.RowCount)
	assert.Equal(t, 2, meta.ColumnCount)
	assert.Empty(t, meta.SampleData)

	meta, err = ExtractMetadata(writeFile(t, dir, "empty.csv", ""), DefaultSampleRows)
	require.NoError(t, err)
	assert.Equal(t, 0, meta.RowCount)
	assert.Equal(t, 0, meta.ColumnCount)
	assert.NotNil(t, meta.ColumnNames)

	_, err = ExtractMetadata(filepath.Join(dir, "missing.csv"), DefaultSampleRows)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "x.csv", "a\n")

	assert.NoError(t, ValidateDirectory(dir))
	assert.ErrorIs(t, ValidateDirectory(file), ErrInvalidDirectory)
	assert.ErrorIs(t, ValidateDirectory(filepath.Join(dir, "nope")), ErrInvalidDirectory)
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "x\n")
	writeFile(t, dir, "a.CSV", "x\n")
	writeFile(t, dir, "notes.txt", "x\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	matched, skipped, err := ListFiles(dir, ".csv")
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "a.CSV"), filepath.Join(dir, "b.csv")}, matched)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, skipped)
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.csv", "a,b\n1,2\n")
	writeFile(t, dir, "two.csv", "c\n3\n4\n")
	writeFile(t, dir, "skip.json", "{}")

	files, err := ScanDirectory(dir, ScanOptions{}, nil)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, "one.csv", files[0].FileName)
	assert.Equal(t, 1, files[0].RowCount)
	assert.Equal(t, "two.csv", files[1].FileName)
	assert.Equal(t, 2, files[1].RowCount)

	_, err = ScanDirectory(filepath.Join(dir, "missing"), ScanOptions{}, nil)
	assert.ErrorIs(t, err, ErrInvalidDirectory)
}

func TestScanDirectory_SampleRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rows.csv", "h\n1\n2\n3\n4\n5\n6\n7\n")

	tests := []struct {
		name       string
		sampleRows int
		want       []string
	}{
		{"zero keeps none", 0, []string{}},
		{"explicit", 2, []string{"1", "2"}},
		{"negative uses default", -1, []string{"1", "2", "3", "4", "5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := ScanDirectory(dir, ScanOptions{SampleRows: tt.sampleRows}, nil)
			require.NoError(t, err)
			require.Len(t, files, 1)
			assert.Equal(t, tt.want, files[0].SampleData)
			assert.Equal(t, 7, files[0].RowCount)
		})
	}
}

func TestWriteJSON_FourSpaceIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []FileMetadata{{FileName: "a.csv", ColumnNames: []string{}, SampleData: []string{}}}))

	assert.Contains(t, buf.String(), "\n    {\n        \"file_name\": \"a.csv\",")
}

func TestExportJSON_PlainAndCompressed(t *testing.T) {
	dir := t.TempDir()
	want := []FileMetadata{{FileName: "a.csv", RowCount: 3, ColumnNames: []string{"x"}, SampleData: []string{"1"}}}

	for _, name := range []string{"out.json", "out.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, ExportJSON(path, want))

			var got []FileMetadata
			require.NoError(t, ReadJSON(path, &got))
			assert.Equal(t, want, got)
		})
	}

	raw, err := os.ReadFile(filepath.Join(dir, "out.json.zst"))
	require.NoError(t, err)
	assert.False(t, json.Valid(raw))
}

func TestSummarize(t *testing.T) {
	rs := tbe.ResultSet{
		{{Name: "Zone", Value: "Asia"}, {Name: "Country", Value: "NULL"}},
		{{Name: "Zone", Value: "NULL"}, {Name: "Site", Value: "Dhaka"}},
		{},
	}

	s := Summarize(rs)

	assert.Equal(t, 3, s.Records)
	assert.Equal(t, []string{"Zone", "Country", "Site"}, s.ColumnNames())
	assert.Equal(t, ColumnSummary{Name: "Zone", Present: 2, Nulls: 1}, s.Columns[0])
	assert.Equal(t, ColumnSummary{Name: "Country", Present: 1, Nulls: 1}, s.Columns[1])
	assert.Equal(t, ColumnSummary{Name: "Site", Present: 1, Nulls: 0}, s.Columns[2])
}

func TestPrintRecordsTable(t *testing.T) {
	var buf bytes.Buffer
	PrintRecordsTable(&buf, tbe.ResultSet{
		{{Name: "Zone", Value: "Asia"}, {Name: "Country", Value: "Bangladesh"}},
		{{Name: "Zone", Value: "Europe"}},
	})

	out := buf.String()
	assert.Contains(t, out, "Asia")
	assert.Contains(t, out, "Bangladesh")
	assert.Contains(t, out, "Europe")
	assert.Contains(t, out, "(2 records)")

	buf.Reset()
	PrintRecordsTable(&buf, tbe.ResultSet{})
	assert.Equal(t, "(0 records)\n", buf.String())
}

func TestPrintMetadataTable(t *testing.T) {
	var buf bytes.Buffer
	PrintMetadataTable(&buf, []FileMetadata{{FileName: "sites.csv", RowCount: 4, ColumnCount: 2, ColumnNames: []string{"a", "b"}}})

	assert.Contains(t, buf.String(), "sites.csv")
	assert.Contains(t, buf.String(), "a, b")
}

func TestPrintGlobalTable(t *testing.T) {
	var buf bytes.Buffer
	PrintGlobalTable(&buf, []tbe.Attribute{{Name: "Title", Value: "Bluesky inventory"}, {Name: "Owner", Value: ""}})

	assert.Contains(t, buf.String(), "Bluesky inventory")
	assert.Contains(t, buf.String(), "Owner")

	buf.Reset()
	PrintGlobalTable(&buf, nil)
	assert.Equal(t, "(no global attributes)\n", buf.String())
}
