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
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// BinaryColumn declares one column of a raw column-major file.
type BinaryColumn struct {
	Name string
	Type DataType
	// Shape is the fixed per-row shape; nil for scalar columns
	Shape []int
}

// BinaryOptions configures the column-major raw binary adapter. The byte
// stream carries no structural metadata, so the full layout must be
// declared.
type BinaryOptions struct {
	// Columns declares the column layout in storage order. Required.
	Columns []BinaryColumn
	// Size declares the total row count. Required.
	Size int64
	// ByteOrder defaults to little-endian
	ByteOrder binary.ByteOrder
	// HeaderOffset is the byte offset at which column data begins
	HeaderOffset int64
}

// BinaryAdapter reads raw column-major binary files: each column's elements
// for all rows are stored consecutively, column after column. Offsets and
// strides are computed analytically from the declaration, so reads are
// direct positioned reads with no indexing pass.
type BinaryAdapter struct {
	path    string
	f       *os.File
	opts    BinaryOptions
	schema  *Schema
	offsets map[string]int64 // byte offset of each column's first element
	strides map[string]int64 // bytes per row within a column
	closed  bool
}

var _ Adapter = (*BinaryAdapter)(nil)

// OpenBinary opens path as a column-major binary adapter.
func OpenBinary(path string, opts BinaryOptions) (*BinaryAdapter, error) {
	if len(opts.Columns) == 0 {
		return nil, &ConfigurationError{Reason: "raw binary requires declared columns"}
	}
	if opts.Size <= 0 {
		return nil, &ConfigurationError{Reason: "raw binary requires a declared row count"}
	}
	if opts.HeaderOffset < 0 {
		return nil, &ConfigurationError{Reason: "header offset cannot be negative"}
	}
	if opts.ByteOrder == nil {
		opts.ByteOrder = binary.LittleEndian
	}

	schema := NewSchema()
	offsets := make(map[string]int64, len(opts.Columns))
	strides := make(map[string]int64, len(opts.Columns))
	pos := opts.HeaderOffset
	for i, col := range opts.Columns {
		if col.Name == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("column %d has no name", i)}
		}
		if schema.HasColumn(col.Name) {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate column %q", col.Name)}
		}
		elemSize := col.Type.ByteSize()
		if elemSize == 0 {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("column %q: type %s has no fixed-width encoding", col.Name, col.Type)}
		}
		ct := ColumnType{Elem: col.Type, Shape: col.Shape}
		stride := int64(elemSize) * int64(ct.ElemsPerRow())
		schema.AddColumn(col.Name, ct)
		offsets[col.Name] = pos
		strides[col.Name] = stride
		pos += stride * opts.Size
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Reason: "cannot open file", Err: err}
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &ConfigurationError{Reason: "cannot stat file", Err: err}
	}
	if st.Size() < pos {
		_ = f.Close()
		return nil, &FormatError{
			Path:   path,
			Row:    -1,
			Reason: fmt.Sprintf("file is %d bytes, declared layout needs %d", st.Size(), pos),
		}
	}

	filesOpenedCounter.Add(context.Background(), 1, formatAttr("binary"))
	return &BinaryAdapter{
		path:    path,
		f:       f,
		opts:    opts,
		schema:  schema,
		offsets: offsets,
		strides: strides,
	}, nil
}

// Size returns the declared row count.
func (a *BinaryAdapter) Size() int64 { return a.opts.Size }

// Schema returns the declared column layout.
func (a *BinaryAdapter) Schema() *Schema { return a.schema }

// ReadRange reads each requested column's bytes for [start, stop) in one
// positioned read and decodes only the rows selected by step.
func (a *BinaryAdapter) ReadRange(ctx context.Context, columns []string, start, stop, step int64) (ColumnBatch, error) {
	nrows, err := validateRead(a.schema, columns, start, stop, step, a.opts.Size)
	if err != nil {
		return nil, err
	}

	out := make(ColumnBatch, len(columns))
	var bytesRead int64
	for _, name := range columns {
		ct, _ := a.schema.ColumnType(name)
		col := NewColumn(ct, int(nrows))

		stride := a.strides[name]
		buf := make([]byte, (stop-start)*stride)
		if len(buf) > 0 {
			if _, err := a.f.ReadAt(buf, a.offsets[name]+start*stride); err != nil {
				return nil, &FormatError{Path: a.path, Row: start, Reason: fmt.Sprintf("positioned read of column %q failed", name), Err: err}
			}
		}
		bytesRead += int64(len(buf))

		a.decodeRows(col, buf, stride, step)
		out[name] = col
	}

	rowsReadCounter.Add(ctx, nrows, formatAttr("binary"))
	bytesReadCounter.Add(ctx, bytesRead, formatAttr("binary"))
	return out, nil
}

// decodeRows decodes every step-th row of buf into col.
func (a *BinaryAdapter) decodeRows(col *Column, buf []byte, stride, step int64) {
	bo := a.opts.ByteOrder
	epr := col.Type().ElemsPerRow()
	for r := 0; r < col.Rows(); r++ {
		rowBytes := buf[int64(r)*step*stride:]
		base := r * epr
		switch col.Type().Elem {
		case DataTypeBool:
			dst := col.Bools()
			for e := 0; e < epr; e++ {
				dst[base+e] = rowBytes[e] != 0
			}
		case DataTypeInt32:
			dst := col.Int32s()
			for e := 0; e < epr; e++ {
				dst[base+e] = int32(bo.Uint32(rowBytes[e*4:]))
			}
		case DataTypeInt64:
			dst := col.Int64s()
			for e := 0; e < epr; e++ {
				dst[base+e] = int64(bo.Uint64(rowBytes[e*8:]))
			}
		case DataTypeFloat32:
			dst := col.Float32s()
			for e := 0; e < epr; e++ {
				dst[base+e] = math.Float32frombits(bo.Uint32(rowBytes[e*4:]))
			}
		case DataTypeFloat64:
			dst := col.Float64s()
			for e := 0; e < epr; e++ {
				dst[base+e] = math.Float64frombits(bo.Uint64(rowBytes[e*8:]))
			}
		}
	}
}

// BinaryOpener returns an OpenFunc that applies opts to every path.
func BinaryOpener(opts BinaryOptions) OpenFunc {
	return func(path string) (Adapter, error) { return OpenBinary(path, opts) }
}

// Close releases the file handle. Close is idempotent.
func (a *BinaryAdapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	f := a.f
	a.f = nil
	if f == nil {
		return nil
	}
	return f.Close()
}
