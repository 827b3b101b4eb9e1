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
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// ArrowIPCAdapter reads Arrow IPC files as a binary-table container: the
// file's single table supplies the schema, fixed-size-list fields become
// shaped columns, and schema metadata is exposed as attrs. Record batches
// are the internal addressable units; a batch-offset table built at
// construction (a one-time pass over the file) gives random access without
// loading irrelevant batches on later reads.
type ArrowIPCAdapter struct {
	path    string
	f       *os.File
	fsize   int64
	size    int64
	schema  *Schema
	attrs   Attrs
	fields  map[string]int
	offsets []int64 // prefix sums of record batch row counts
	closed  bool
}

var _ Adapter = (*ArrowIPCAdapter)(nil)
var _ AttrProvider = (*ArrowIPCAdapter)(nil)

// OpenArrowIPC opens path as a binary-table adapter.
func OpenArrowIPC(path string) (*ArrowIPCAdapter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Reason: "cannot open file", Err: err}
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &ConfigurationError{Reason: "cannot stat file", Err: err}
	}

	fr, err := ipc.NewFileReader(io.NewSectionReader(f, 0, st.Size()))
	if err != nil {
		_ = f.Close()
		return nil, &FormatError{Path: path, Row: -1, Reason: "cannot read arrow file structure", Err: err}
	}

	schema := NewSchema()
	fields := make(map[string]int)
	for i, field := range fr.Schema().Fields() {
		ct, err := arrowFieldToColumnType(field)
		if err != nil {
			_ = fr.Close()
			_ = f.Close()
			return nil, &SchemaError{Path: path, Reason: fmt.Sprintf("field %q", field.Name), Err: err}
		}
		if schema.HasColumn(field.Name) {
			_ = fr.Close()
			_ = f.Close()
			return nil, &SchemaError{Path: path, Reason: fmt.Sprintf("duplicate field %q", field.Name)}
		}
		schema.AddColumn(field.Name, ct)
		fields[field.Name] = i
	}

	attrs := make(Attrs)
	md := fr.Schema().Metadata()
	for i, key := range md.Keys() {
		attrs[key] = md.Values()[i]
	}

	offsets := make([]int64, 1, fr.NumRecords()+1)
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			_ = fr.Close()
			_ = f.Close()
			return nil, &FormatError{Path: path, Row: offsets[i], Reason: fmt.Sprintf("cannot read record batch %d", i), Err: err}
		}
		offsets = append(offsets, offsets[i]+rec.NumRows())
	}
	if err := fr.Close(); err != nil {
		_ = f.Close()
		return nil, &FormatError{Path: path, Row: -1, Reason: "close after batch scan failed", Err: err}
	}

	filesOpenedCounter.Add(context.Background(), 1, formatAttr("arrow"))
	return &ArrowIPCAdapter{
		path:    path,
		f:       f,
		fsize:   st.Size(),
		size:    offsets[len(offsets)-1],
		schema:  schema,
		attrs:   attrs,
		fields:  fields,
		offsets: offsets,
	}, nil
}

// arrowFieldToColumnType maps an Arrow field to a ColumnType. Fixed-size
// lists become shaped columns; variable-length nesting is unsupported.
func arrowFieldToColumnType(field arrow.Field) (ColumnType, error) {
	if fsl, ok := field.Type.(*arrow.FixedSizeListType); ok {
		elem, err := arrowPrimitiveToDataType(fsl.Elem())
		if err != nil {
			return ColumnType{}, err
		}
		return ColumnType{Elem: elem, Shape: []int{int(fsl.Len())}}, nil
	}
	elem, err := arrowPrimitiveToDataType(field.Type)
	if err != nil {
		return ColumnType{}, err
	}
	return ScalarType(elem), nil
}

func arrowPrimitiveToDataType(atype arrow.DataType) (DataType, error) {
	switch atype.ID() {
	case arrow.BOOL:
		return DataTypeBool, nil
	case arrow.INT32:
		return DataTypeInt32, nil
	case arrow.INT64:
		return DataTypeInt64, nil
	case arrow.FLOAT32:
		return DataTypeFloat32, nil
	case arrow.FLOAT64:
		return DataTypeFloat64, nil
	case arrow.STRING:
		return DataTypeString, nil
	default:
		return DataTypeUnknown, fmt.Errorf("unsupported arrow type %s", atype)
	}
}

// Size returns the total number of rows across all record batches.
func (a *ArrowIPCAdapter) Size() int64 { return a.size }

// Schema returns the table's column layout.
func (a *ArrowIPCAdapter) Schema() *Schema { return a.schema }

// Attrs returns the schema metadata.
func (a *ArrowIPCAdapter) Attrs() Attrs { return a.attrs }

// ReadRange visits only the record batches overlapping [start, stop),
// through a per-call file reader over a section reader so concurrent reads
// never share a cursor.
func (a *ArrowIPCAdapter) ReadRange(ctx context.Context, columns []string, start, stop, step int64) (ColumnBatch, error) {
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

	fr, err := ipc.NewFileReader(io.NewSectionReader(a.f, 0, a.fsize))
	if err != nil {
		return nil, &FormatError{Path: a.path, Row: -1, Reason: "cannot reopen arrow file structure", Err: err}
	}
	defer func() { _ = fr.Close() }()

	for b := 0; b+1 < len(a.offsets); b++ {
		bLo, bHi := a.offsets[b], a.offsets[b+1]
		if bHi <= start {
			continue
		}
		if bLo >= stop {
			break
		}
		lo := start
		if bLo > lo {
			lo = bLo
			if rem := (lo - start) % step; rem != 0 {
				lo += step - rem
			}
		}
		hi := stop
		if bHi < hi {
			hi = bHi
		}
		if lo >= hi {
			continue
		}

		rec, err := fr.Record(b)
		if err != nil {
			return nil, &FormatError{Path: a.path, Row: bLo, Reason: fmt.Sprintf("cannot read record batch %d", b), Err: err}
		}
		for _, name := range columns {
			arr := rec.Column(a.fields[name])
			col := out[name]
			for g := lo; g < hi; g += step {
				if err := setArrowValue(col, (g-start)/step, arr, int(g-bLo)); err != nil {
					return nil, &FormatError{Path: a.path, Row: g, Reason: fmt.Sprintf("column %q", name), Err: err}
				}
			}
		}
	}

	rowsReadCounter.Add(ctx, nrows, formatAttr("arrow"))
	return out, nil
}

// setArrowValue copies row i of arr into row outRow of col. Null slots keep
// their zero value.
func setArrowValue(col *Column, outRow int64, arr arrow.Array, i int) error {
	if arr.IsNull(i) {
		return nil
	}
	epr := col.Type().ElemsPerRow()
	base := int(outRow) * epr

	if fsl, ok := arr.(*array.FixedSizeList); ok {
		n := epr
		child := fsl.ListValues()
		childBase := (fsl.Data().Offset() + i) * n
		for e := 0; e < n; e++ {
			if err := copyArrowElem(col, base+e, child, childBase+e); err != nil {
				return err
			}
		}
		return nil
	}
	return copyArrowElem(col, base, arr, i)
}

func copyArrowElem(col *Column, dst int, arr arrow.Array, i int) error {
	switch c := arr.(type) {
	case *array.Boolean:
		if col.Type().Elem != DataTypeBool {
			return fmt.Errorf("cannot convert bool to %s", col.Type().Elem)
		}
		col.Bools()[dst] = c.Value(i)
	case *array.Int32:
		if col.Type().Elem != DataTypeInt32 {
			return fmt.Errorf("cannot convert int32 to %s", col.Type().Elem)
		}
		col.Int32s()[dst] = c.Value(i)
	case *array.Int64:
		if col.Type().Elem != DataTypeInt64 {
			return fmt.Errorf("cannot convert int64 to %s", col.Type().Elem)
		}
		col.Int64s()[dst] = c.Value(i)
	case *array.Float32:
		if col.Type().Elem != DataTypeFloat32 {
			return fmt.Errorf("cannot convert float32 to %s", col.Type().Elem)
		}
		col.Float32s()[dst] = c.Value(i)
	case *array.Float64:
		if col.Type().Elem != DataTypeFloat64 {
			return fmt.Errorf("cannot convert float64 to %s", col.Type().Elem)
		}
		col.Float64s()[dst] = c.Value(i)
	case *array.String:
		if col.Type().Elem != DataTypeString {
			return fmt.Errorf("cannot convert string to %s", col.Type().Elem)
		}
		// Copy the string to avoid holding reference to Arrow buffer memory
		col.Strings()[dst] = strings.Clone(c.Value(i))
	default:
		return fmt.Errorf("unsupported arrow array %T", arr)
	}
	return nil
}

// ArrowIPCOpener returns an OpenFunc for Arrow IPC files.
func ArrowIPCOpener() OpenFunc {
	return func(path string) (Adapter, error) { return OpenArrowIPC(path) }
}

// Close releases the file handle. Close is idempotent.
func (a *ArrowIPCAdapter) Close() error {
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
