// Package csv is a wrapper around the stdlib csv library for reading small lookup tables
// such as product classification tables.
//
// Columns are addressed by header name so table files may order or extend them freely.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type File struct {
	name       string
	csvReader  *csv.Reader
	headerMap  map[string]int
	rowNumber  int
	missing    []string
	currentRow []string
	rowMissing []string
	ioErr      error
}

// New reads the header row of the table. The file name is only used in error messages.
func New(name string, reader io.Reader) (*File, error) {
	csvReader := BOMAwareCSVReader(reader)
	csvReader.TrimLeadingSpace = true
	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: CSV file contains no rows", name)
	} else if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	csvReader.ReuseRecord = true
	m := map[string]int{}
	for i, col := range header {
		m[strings.TrimSpace(col)] = i
	}
	return &File{
		name:      name,
		csvReader: csvReader,
		headerMap: m,
	}, nil
}

func (f *File) Name() string {
	return f.name
}

// Column is a handle to a named column of the file.
type Column struct {
	i        int
	name     string
	required bool
	f        *File
}

// RequiredColumn returns a handle to a column that must exist and be non-empty in every row.
func (f *File) RequiredColumn(name string) Column {
	i, ok := f.headerMap[name]
	if !ok {
		f.missing = append(f.missing, name)
		i = -1
	}
	return Column{i: i, name: name, required: true, f: f}
}

func (f *File) OptionalColumn(name string) Column {
	i, ok := f.headerMap[name]
	if !ok {
		i = -1
	}
	return Column{i: i, name: name, f: f}
}

// MissingColumns lists the required columns absent from the header.
func (f *File) MissingColumns() []string {
	return f.missing
}

// Read returns the cell of the current row, or the empty string.
func (c Column) Read() string {
	var v string
	if c.i >= 0 && c.i < len(c.f.currentRow) {
		v = strings.TrimSpace(c.f.currentRow[c.i])
	}
	if v == "" && c.required {
		c.f.rowMissing = append(c.f.rowMissing, c.name)
	}
	return v
}

func (f *File) NextRow() bool {
	cells, err := f.csvReader.Read()
	if err != nil {
		f.currentRow = nil
		if err != io.EOF {
			f.ioErr = fmt.Errorf("%s row %d: %w", f.name, f.rowNumber+1, err)
		}
		return false
	}
	f.rowNumber++
	f.currentRow = cells
	f.rowMissing = nil
	return true
}

// RowNumber is the 1-based number of the current data row.
func (f *File) RowNumber() int {
	return f.rowNumber
}

// MissingRowKeys lists the required columns read as empty in the current row.
func (f *File) MissingRowKeys() []string {
	return f.rowMissing
}

// Err returns the first read error encountered by NextRow.
func (f *File) Err() error {
	return f.ioErr
}

// From: https://stackoverflow.com/a/76023436
//
// BOMAwareCSVReader will detect a UTF BOM (Byte Order Mark) at the
// start of the data and transform to UTF8 accordingly.
// If there is no BOM, it will read the data without any transformation.
func BOMAwareCSVReader(reader io.Reader) *csv.Reader {
	var transformer = unicode.BOMOverride(encoding.Nop.NewDecoder())
	return csv.NewReader(transform.NewReader(reader, transformer))
}
