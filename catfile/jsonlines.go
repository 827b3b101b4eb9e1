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
	"encoding/json"
	"fmt"
)

// JSONLinesOptions configures the JSON-lines adapter.
type JSONLinesOptions struct {
	// Columns declares which object keys become columns, and their types.
	Columns []ColumnDecl
}

// JSONLinesAdapter reads files with one JSON object per line, using the same
// row-boundary index strategy as the delimited-text adapter.
type JSONLinesAdapter struct {
	lf     *lineFile
	opts   JSONLinesOptions
	schema *Schema
	size   int64
	closed bool
}

var _ Adapter = (*JSONLinesAdapter)(nil)

// OpenJSONLines opens path as a JSON-lines adapter. A path ending in .gz is
// decompressed once at construction since gzip has no random access.
func OpenJSONLines(path string, opts JSONLinesOptions) (*JSONLinesAdapter, error) {
	if len(opts.Columns) == 0 {
		return nil, &ConfigurationError{Reason: "JSON lines requires declared columns"}
	}
	schema := NewSchema()
	for i, col := range opts.Columns {
		if col.Name == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("column %d has no name", i)}
		}
		if schema.HasColumn(col.Name) {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate column %q", col.Name)}
		}
		switch col.Type {
		case DataTypeBool, DataTypeInt32, DataTypeInt64, DataTypeFloat32, DataTypeFloat64, DataTypeString:
		default:
			return nil, &ConfigurationError{Reason: fmt.Sprintf("column %q has undeclared type", col.Name)}
		}
		schema.AddColumn(col.Name, ScalarType(col.Type))
	}

	lf, err := openLineFile(path, nil)
	if err != nil {
		return nil, err
	}

	filesOpenedCounter.Add(context.Background(), 1, formatAttr("jsonlines"))
	return &JSONLinesAdapter{lf: lf, opts: opts, schema: schema, size: lf.rows()}, nil
}

// Size returns the total number of rows.
func (a *JSONLinesAdapter) Size() int64 { return a.size }

// Schema returns the declared column layout.
func (a *JSONLinesAdapter) Schema() *Schema { return a.schema }

// ReadRange decodes only the selected lines.
func (a *JSONLinesAdapter) ReadRange(ctx context.Context, columns []string, start, stop, step int64) (ColumnBatch, error) {
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
		line, scratch, err = a.lf.readRow(row, scratch)
		if err != nil {
			return nil, err
		}
		bytesRead += int64(len(line))

		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, &FormatError{Path: a.lf.path, Row: row, Reason: "invalid JSON object", Err: err}
		}
		for _, name := range columns {
			val, ok := obj[name]
			if !ok {
				return nil, &FormatError{Path: a.lf.path, Row: row, Reason: fmt.Sprintf("missing key %q", name)}
			}
			if err := setJSONValue(out[name], i, val); err != nil {
				return nil, &FormatError{Path: a.lf.path, Row: row, Reason: fmt.Sprintf("key %q", name), Err: err}
			}
		}
	}

	rowsReadCounter.Add(ctx, nrows, formatAttr("jsonlines"))
	bytesReadCounter.Add(ctx, bytesRead, formatAttr("jsonlines"))
	return out, nil
}

// setJSONValue stores a decoded JSON value into a column slot, converting
// from the generic decode types (float64, bool, string).
func setJSONValue(col *Column, i int64, val any) error {
	switch col.Type().Elem {
	case DataTypeBool:
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("cannot convert %T to bool", val)
		}
		col.Bools()[i] = b
	case DataTypeInt32:
		f, ok := val.(float64)
		if !ok {
			return fmt.Errorf("cannot convert %T to int32", val)
		}
		col.Int32s()[i] = int32(f)
	case DataTypeInt64:
		f, ok := val.(float64)
		if !ok {
			return fmt.Errorf("cannot convert %T to int64", val)
		}
		col.Int64s()[i] = int64(f)
	case DataTypeFloat32:
		f, ok := val.(float64)
		if !ok {
			return fmt.Errorf("cannot convert %T to float32", val)
		}
		col.Float32s()[i] = float32(f)
	case DataTypeFloat64:
		f, ok := val.(float64)
		if !ok {
			return fmt.Errorf("cannot convert %T to float64", val)
		}
		col.Float64s()[i] = f
	case DataTypeString:
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("cannot convert %T to string", val)
		}
		col.Strings()[i] = s
	}
	return nil
}

// JSONLinesOpener returns an OpenFunc that applies opts to every path.
func JSONLinesOpener(opts JSONLinesOptions) OpenFunc {
	return func(path string) (Adapter, error) { return OpenJSONLines(path, opts) }
}

// Close releases the file handle. Close is idempotent.
func (a *JSONLinesAdapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.lf.close()
}
