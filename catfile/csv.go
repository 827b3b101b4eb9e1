// Copyright (C) 2026 Cosmoworks, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package catfile

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ColumnDecl declares one column of a format that carries no native typing.
type ColumnDecl struct {
	Name string
	Type DataType
}

// CSVOptions configures the delimited-text adapter.
type CSVOptions struct {
	// Columns declares the column names and types, in field order.
	// Required: text has no native typing.
	Columns []ColumnDecl
	// Delimiter separates fields; default ","
	Delimiter string
	// Comment, when non-empty, marks lines starting with it as non-rows
	Comment string
	// Header skips the first non-comment line
	Header bool
}

// CSVAdapter reads delimited-text files. Construction runs a one-time
// indexing pass proportional to file size to find row boundaries; reads then
// seek to the byte offset of each selected row and parse only through stop.
// Quoted fields are not supported; fields are split on the raw delimiter.
type CSVAdapter struct {
	lf      *lineFile
	opts    CSVOptions
	schema  *Schema
	fields  map[string]int
	rowBase int64
	size    int64
	closed  bool
}

var _ Adapter = (*CSVAdapter)(nil)

// OpenCSV opens path as a delimited-text adapter. A path ending in .gz is
// decompressed once at construction since gzip has no random access.
func OpenCSV(path string, opts CSVOptions) (*CSVAdapter, error) {
	if len(opts.Columns) == 0 {
		return nil, &ConfigurationError{Reason: "delimited text requires declared columns"}
	}
	if opts.Delimiter == "" {
		opts.Delimiter = ","
	}
	schema := NewSchema()
	fields := make(map[string]int, len(opts.Columns))
	for i, col := range opts.Columns {
		if col.Name == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("column %d has no name", i)}
		}
		if _, dup := fields[col.Name]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate column %q", col.Name)}
		}
		switch col.Type {
		case DataTypeBool, DataTypeInt32, DataTypeInt64, DataTypeFloat32, DataTypeFloat64, DataTypeString:
		default:
			return nil, &ConfigurationError{Reason: fmt.Sprintf("column %q has undeclared type", col.Name)}
		}
		fields[col.Name] = i
		schema.AddColumn(col.Name, ScalarType(col.Type))
	}

	keep := func(line []byte) bool {
		if len(line) == 0 {
			return false
		}
		if opts.Comment != "" && strings.HasPrefix(string(line), opts.Comment) {
			return false
		}
		return true
	}
	lf, err := openLineFile(path, keep)
	if err != nil {
		return nil, err
	}

	a := &CSVAdapter{lf: lf, opts: opts, schema: schema, fields: fields}
	if opts.Header {
		if lf.rows() == 0 {
			_ = lf.close()
			return nil, &FormatError{Path: path, Row: -1, Reason: "header declared but file has no lines"}
		}
		a.rowBase = 1
	}
	a.size = lf.rows() - a.rowBase

	filesOpenedCounter.Add(context.Background(), 1, formatAttr("csv"))
	return a, nil
}

// Size returns the total number of data rows.
func (a *CSVAdapter) Size() int64 { return a.size }

// Schema returns the declared column layout.
func (a *CSVAdapter) Schema() *Schema { return a.schema }

// ReadRange parses only the selected rows, seeking past everything else.
func (a *CSVAdapter) ReadRange(ctx context.Context, columns []string, start, stop, step int64) (ColumnBatch, error) {
	nrows, err := validateRead(a.schema, columns, start, stop, step, a.size)
	if err != nil {
		return nil, err
	}

	out := make(ColumnBatch, len(columns))
	for _, name := range columns {
		ct, _ := a.schema.ColumnType(name)
		out[name] = NewColumn(ct, int(nrows))
	}

	var scratch []byte
	var line []byte
	var bytesRead int64
	for i := int64(0); i < nrows; i++ {
		row := start + i*step
		line, scratch, err = a.lf.readRow(a.rowBase+row, scratch)
		if err != nil {
			return nil, err
		}
		bytesRead += int64(len(line))
		parts := strings.Split(string(line), a.opts.Delimiter)
		if len(parts) != len(a.opts.Columns) {
			return nil, &FormatError{
				Path:   a.lf.path,
				Row:    row,
				Reason: fmt.Sprintf("expected %d fields, found %d", len(a.opts.Columns), len(parts)),
			}
		}
		for _, name := range columns {
			if err := a.parseField(out[name], i, parts[a.fields[name]], row); err != nil {
				return nil, err
			}
		}
	}

	rowsReadCounter.Add(ctx, nrows, formatAttr("csv"))
	bytesReadCounter.Add(ctx, bytesRead, formatAttr("csv"))
	return out, nil
}

func (a *CSVAdapter) parseField(col *Column, i int64, field string, row int64) error {
	field = strings.TrimSpace(field)
	var err error
	switch col.Type().Elem {
	case DataTypeBool:
		col.Bools()[i], err = strconv.ParseBool(field)
	case DataTypeInt32:
		var v int64
		v, err = strconv.ParseInt(field, 10, 32)
		col.Int32s()[i] = int32(v)
	case DataTypeInt64:
		col.Int64s()[i], err = strconv.ParseInt(field, 10, 64)
	case DataTypeFloat32:
		var v float64
		v, err = strconv.ParseFloat(field, 32)
		col.Float32s()[i] = float32(v)
	case DataTypeFloat64:
		col.Float64s()[i], err = strconv.ParseFloat(field, 64)
	case DataTypeString:
		col.Strings()[i] = field
	}
	if err != nil {
		return &FormatError{
			Path:   a.lf.path,
			Row:    row,
			Reason: fmt.Sprintf("cannot parse %q as %s", field, col.Type().Elem),
			Err:    err,
		}
	}
	return nil
}

// CSVOpener returns an OpenFunc that applies opts to every path, suitable
// for stacking via OpenStack or SourceOpener.
func CSVOpener(opts CSVOptions) OpenFunc {
	return func(path string) (Adapter, error) { return OpenCSV(path, opts) }
}

// Close releases the file handle. Close is idempotent.
func (a *CSVAdapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.lf.close()
}
