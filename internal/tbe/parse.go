package tbe

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxLineSize is the line cap of a Parser with no MaxLineSize set.
const DefaultMaxLineSize = 4 * 1024 * 1024

// Parser holds the read limits for a parse. The zero value is ready to use.
// A Parser is never modified by parsing and may be shared between goroutines.
type Parser struct {
	// MaxLineSize is the longest line accepted. Longer lines fail the read.
	// Zero or negative means DefaultMaxLineSize.
	MaxLineSize int
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is everything extracted from one file.
type Document struct {
	Records ResultSet   `json:"records"`
	Global  []Attribute `json:"global"`
	Stats   Stats       `json:"stats"`
}

// Parse reads r with the default Parser.
func Parse(r io.Reader) (*Document, error) {
	return Parser{}.Parse(r)
}

// Parse reads r line by line and runs the table and global scanners over it.
// A UTF-8 byte order mark is skipped and invalid UTF-8 is replaced with '?'.
// The only errors returned are read errors; on error no document is returned.
func (p Parser) Parse(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("skip byte order mark: %w", err)
		}
	}

	sc := p.lineScanner(br)
	table := newScanner()
	global := &globalScanner{}

	for sc.Scan() {
		line := strings.ToValidUTF8(sc.Text(), "?")
		table.feed(line)
		global.feed(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", table.stats.Lines+1, err)
	}

	return &Document{
		Records: table.result(),
		Global:  global.result(),
		Stats:   table.stats,
	}, nil
}

// ReadLines splits r into lines with the default Parser.
func ReadLines(r io.Reader) ([]string, error) {
	return Parser{}.ReadLines(r)
}

// ReadLines splits r into lines without their terminators.
func (p Parser) ReadLines(r io.Reader) ([]string, error) {
	sc := p.lineScanner(r)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (p Parser) maxLine() int {
	if p.MaxLineSize > 0 {
		return p.MaxLineSize
	}
	return DefaultMaxLineSize
}

// lineScanner returns a line scanner capped at the parser's line size.
// The initial buffer must not exceed the cap or the cap is ignored.
func (p Parser) lineScanner(r io.Reader) *bufio.Scanner {
	limit := p.maxLine()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(64*1024, limit)), limit)
	return sc
}
