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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// ParquetOptions configures the hierarchical-container adapter.
type ParquetOptions struct {
	// Exclude lists flattened column paths (or group prefixes) to drop.
	// Variable-length leaves must be excluded or construction fails.
	Exclude []string
}

// ParquetAdapter reads parquet files as a hierarchical container: every leaf
// column of the nested schema becomes one column under a path-flattened name
// (group/column). File key-value metadata is exposed as attrs, not columns.
type ParquetAdapter struct {
	path   string
	f      *os.File
	pf     *parquet.File
	size   int64
	schema *Schema
	attrs  Attrs
	closed bool
}

var _ Adapter = (*ParquetAdapter)(nil)
var _ AttrProvider = (*ParquetAdapter)(nil)

// OpenParquet opens path as a hierarchical-container adapter.
func OpenParquet(path string, opts ParquetOptions) (*ParquetAdapter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Reason: "cannot open file", Err: err}
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &ConfigurationError{Reason: "cannot stat file", Err: err}
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		_ = f.Close()
		return nil, &FormatError{Path: path, Row: -1, Reason: "cannot read parquet structure", Err: err}
	}

	exclude := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		exclude[name] = true
	}
	schema := NewSchema()
	if err := walkParquetNode(schema, pf.Schema(), "", false, exclude, path); err != nil {
		_ = f.Close()
		return nil, err
	}
	if schema.Len() == 0 {
		_ = f.Close()
		return nil, &SchemaError{Path: path, Reason: "no usable leaf columns"}
	}

	attrs := make(Attrs)
	if md := pf.Metadata(); md != nil {
		for _, kv := range md.KeyValueMetadata {
			attrs[kv.Key] = kv.Value
		}
	}

	filesOpenedCounter.Add(context.Background(), 1, formatAttr("parquet"))
	return &ParquetAdapter{
		path:   path,
		f:      f,
		pf:     pf,
		size:   pf.NumRows(),
		schema: schema,
		attrs:  attrs,
	}, nil
}

// walkParquetNode flattens the nested parquet schema into path-like column
// names. Leaves under a repeated node have no fixed per-row shape and must
// be excluded by the caller.
func walkParquetNode(schema *Schema, node parquet.Node, prefix string, repeated bool, exclude map[string]bool, path string) error {
	if !node.Leaf() {
		for _, field := range node.Fields() {
			full := field.Name()
			if prefix != "" {
				full = prefix + "/" + field.Name()
			}
			if exclude[full] {
				continue
			}
			if err := walkParquetNode(schema, field, full, repeated || field.Repeated(), exclude, path); err != nil {
				return err
			}
		}
		return nil
	}

	if prefix == "" {
		return nil
	}
	if repeated {
		return &SchemaError{
			Path:   path,
			Reason: fmt.Sprintf("column %q has no fixed per-row length and must be excluded", prefix),
		}
	}
	schema.AddColumn(prefix, ScalarType(parquetKindToDataType(node.Type())))
	return nil
}

// parquetKindToDataType maps a parquet physical/logical type to a DataType.
func parquetKindToDataType(ptype parquet.Type) DataType {
	if lt := ptype.LogicalType(); lt != nil && lt.UTF8 != nil {
		return DataTypeString
	}
	switch ptype.Kind() {
	case parquet.Boolean:
		return DataTypeBool
	case parquet.Int32:
		return DataTypeInt32
	case parquet.Int64:
		return DataTypeInt64
	case parquet.Float:
		return DataTypeFloat32
	case parquet.Double:
		return DataTypeFloat64
	default:
		return DataTypeString
	}
}

// Size returns the total number of rows.
func (a *ParquetAdapter) Size() int64 { return a.size }

// Schema returns the flattened column layout.
func (a *ParquetAdapter) Schema() *Schema { return a.schema }

// Attrs returns the file's key-value metadata.
func (a *ParquetAdapter) Attrs() Attrs { return a.attrs }

// ReadRange reads rows [start, stop) through a per-call row reader seeked to
// start, so concurrent reads never share a cursor.
func (a *ParquetAdapter) ReadRange(ctx context.Context, columns []string, start, stop, step int64) (ColumnBatch, error) {
	nrows, err := validateRead(a.schema, columns, start, stop, step, a.size)
	if err != nil {
		return nil, err
	}

	out := make(ColumnBatch, len(columns))
	for _, name := range columns {
		ct, _ := a.schema.ColumnType(name)
		out[name] = NewColumn(ct, int(nrows))
	}
	if nrows == 0 {
		return out, nil
	}

	pr := parquet.NewGenericReader[map[string]any](a.pf, a.pf.Schema())
	defer func() { _ = pr.Close() }()
	if start > 0 {
		if err := pr.SeekToRow(start); err != nil {
			return nil, &FormatError{Path: a.path, Row: start, Reason: "seek failed", Err: err}
		}
	}

	const chunk = 1024
	buf := make([]map[string]any, chunk)
	flat := make(map[string]any, a.schema.Len())
	remaining := stop - start
	consumed := int64(0)
	for remaining > 0 {
		want := remaining
		if want > chunk {
			want = chunk
		}
		for i := range want {
			buf[i] = make(map[string]any)
		}
		n, err := pr.Read(buf[:want])
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, &FormatError{Path: a.path, Row: start + consumed, Reason: "row decode failed", Err: err}
		}
		if n == 0 {
			return nil, &FormatError{Path: a.path, Row: start + consumed, Reason: "file ended before declared row count"}
		}
		for i := range int64(n) {
			c := consumed + i
			if c%step != 0 {
				continue
			}
			clear(flat)
			flattenParquetRow("", buf[i], flat)
			outRow := c / step
			for _, name := range columns {
				if err := setParquetValue(out[name], outRow, flat[name]); err != nil {
					return nil, &FormatError{Path: a.path, Row: start + c, Reason: fmt.Sprintf("column %q", name), Err: err}
				}
			}
		}
		consumed += int64(n)
		remaining -= int64(n)
	}

	rowsReadCounter.Add(ctx, nrows, formatAttr("parquet"))
	return out, nil
}

// flattenParquetRow flattens nested group values into path-like keys.
func flattenParquetRow(prefix string, obj map[string]any, flat map[string]any) {
	for k, v := range obj {
		full := k
		if prefix != "" {
			full = prefix + "/" + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenParquetRow(full, nested, flat)
			continue
		}
		flat[full] = v
	}
}

// setParquetValue stores one decoded parquet value into a column slot.
// Nulls from optional fields become zero values.
func setParquetValue(col *Column, i int64, val any) error {
	if val == nil {
		return nil
	}
	switch col.Type().Elem {
	case DataTypeBool:
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("cannot convert %T to bool", val)
		}
		col.Bools()[i] = b
	case DataTypeInt32:
		switch v := val.(type) {
		case int32:
			col.Int32s()[i] = v
		case int64:
			col.Int32s()[i] = int32(v)
		default:
			return fmt.Errorf("cannot convert %T to int32", val)
		}
	case DataTypeInt64:
		switch v := val.(type) {
		case int64:
			col.Int64s()[i] = v
		case int32:
			col.Int64s()[i] = int64(v)
		default:
			return fmt.Errorf("cannot convert %T to int64", val)
		}
	case DataTypeFloat32:
		switch v := val.(type) {
		case float32:
			col.Float32s()[i] = v
		case float64:
			col.Float32s()[i] = float32(v)
		default:
			return fmt.Errorf("cannot convert %T to float32", val)
		}
	case DataTypeFloat64:
		switch v := val.(type) {
		case float64:
			col.Float64s()[i] = v
		case float32:
			col.Float64s()[i] = float64(v)
		default:
			return fmt.Errorf("cannot convert %T to float64", val)
		}
	case DataTypeString:
		switch v := val.(type) {
		case string:
			col.Strings()[i] = v
		case []byte:
			col.Strings()[i] = string(v)
		default:
			return fmt.Errorf("cannot convert %T to string", val)
		}
	}
	return nil
}

// ParquetOpener returns an OpenFunc that applies opts to every path.
func ParquetOpener(opts ParquetOptions) OpenFunc {
	return func(path string) (Adapter, error) { return OpenParquet(path, opts) }
}

// Close releases the file handle. Close is idempotent.
func (a *ParquetAdapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.pf = nil
	f := a.f
	a.f = nil
	if f == nil {
		return nil
	}
	return f.Close()
}
