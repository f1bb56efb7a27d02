// Package tbe extracts data tables from TBE export files.
//
// A TBE file is a CSV-like dump written by an external monitoring tool. It
// mixes preamble metadata, a table header line, three decoration lines and
// the data rows themselves:
//
//	TBL Global,Title,Inventory
//	...
//	"TBL Sites","Zone","Country","Sitename"
//	"UNITS",,,
//	"DESCRIPTION",,,
//	"DISPLAY",,,
//	"1","Asia","Bangladesh","Dhaka"
//
// # Scanning
//
// [Extract] runs a two-state machine over the lines of one file. In the
// SEARCHING state every line is ignored until one whose first token is
// [HeaderMarker]. That line fixes the column names, the next
// [DecorationRows] lines are dropped unread, and the machine moves to
// IN_TABLE, where each line becomes one [Record]. Another marker line while
// IN_TABLE starts a new table with new column names.
//
// Empty values are replaced by [NullValue]. Rows shorter than the header
// produce records with fewer keys; nothing is ever padded and no row is ever
// rejected.
//
// # Files
//
// [ExtractFiles] treats every file as an independent scan and concatenates
// the results in input order. A file that cannot be read contributes no
// records and does not stop the batch.
package tbe
