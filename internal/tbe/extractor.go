package tbe

import "strings"

const (
	// HeaderMarker is the first token of a table header line.
	HeaderMarker = "TBL Sites"

	// DecorationRows is the number of lines after a header line that carry
	// units, descriptions and display names. They are always dropped.
	DecorationRows = 3

	// NullValue replaces empty values in records.
	NullValue = "NULL"
)

type state int

const (
	stateSearching state = iota
	stateInTable
	numStates
)

func (s state) String() string {
	switch s {
	case stateSearching:
		return "SEARCHING"
	case stateInTable:
		return "IN_TABLE"
	default:
		return "UNKNOWN"
	}
}

// event classifies a line that reaches the state machine.
type event int

const (
	eventRow event = iota
	eventHeader
	numEvents
)

type transition struct {
	next   state
	action func(*scanner, []string)
}

// transitions is the complete state machine. A header line always (re)starts
// a table, including while one is already open.
var transitions = [numStates][numEvents]transition{
	stateSearching: {
		eventRow:    {next: stateSearching, action: (*scanner).ignore},
		eventHeader: {next: stateInTable, action: (*scanner).startTable},
	},
	stateInTable: {
		eventRow:    {next: stateInTable, action: (*scanner).emit},
		eventHeader: {next: stateInTable, action: (*scanner).startTable},
	},
}

// Stats counts what a scan saw.
type Stats struct {
	Lines          int `json:"lines"`
	Tables         int `json:"tables"`
	DecorationRows int `json:"decorationRows"`
	Records        int `json:"records"`
}

// scanner holds the state of one single-file scan.
type scanner struct {
	state   state
	columns Columns
	skip    int
	records ResultSet
	stats   Stats
}

func newScanner() *scanner {
	return &scanner{state: stateSearching}
}

// feed advances the machine by one line.
func (s *scanner) feed(line string) {
	s.stats.Lines++

	if s.skip > 0 {
		s.skip--
		s.stats.DecorationRows++
		return
	}

	fields := splitLine(line)
	t := transitions[s.state][classify(fields)]
	t.action(s, fields)
	s.state = t.next
}

func (s *scanner) ignore([]string) {}

func (s *scanner) startTable(fields []string) {
	s.columns = NewColumns(fields)
	s.skip = DecorationRows
	s.stats.Tables++
}

func (s *scanner) emit(fields []string) {
	s.records = append(s.records, s.columns.Record(fields))
	s.stats.Records++
}

// result returns the records, never nil.
func (s *scanner) result() ResultSet {
	if s.records == nil {
		return ResultSet{}
	}
	return s.records
}

// splitLine removes every double quote and splits on commas.
func splitLine(line string) []string {
	return strings.Split(strings.ReplaceAll(line, `"`, ""), ",")
}

func classify(fields []string) event {
	if strings.TrimSpace(fields[0]) == HeaderMarker {
		return eventHeader
	}
	return eventRow
}

// Extract scans the lines of one file and returns its records.
// It never fails: lines that do not fit the table produce partial or empty
// records, and input without a header line yields an empty ResultSet.
func Extract(lines []string) ResultSet {
	s := newScanner()
	for _, line := range lines {
		s.feed(line)
	}
	return s.result()
}
