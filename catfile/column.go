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

import "fmt"

// DataType represents the element type of a column.
type DataType int

const (
	DataTypeUnknown DataType = iota // Unknown/uninitialized type - should not be used
	DataTypeBool
	DataTypeInt32
	DataTypeInt64
	DataTypeFloat32
	DataTypeFloat64
	DataTypeString
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeBool:
		return "bool"
	case DataTypeInt32:
		return "int32"
	case DataTypeInt64:
		return "int64"
	case DataTypeFloat32:
		return "float32"
	case DataTypeFloat64:
		return "float64"
	case DataTypeString:
		return "string"
	default:
		return "unknown"
	}
}

// ByteSize returns the on-disk size of one element in the raw column-major
// binary encoding, or 0 for types with no fixed-width encoding.
func (dt DataType) ByteSize() int {
	switch dt {
	case DataTypeBool:
		return 1
	case DataTypeInt32, DataTypeFloat32:
		return 4
	case DataTypeInt64, DataTypeFloat64:
		return 8
	default:
		return 0
	}
}

// ColumnType is an element type plus a fixed per-row shape.
// A nil or empty Shape means one scalar element per row.
type ColumnType struct {
	Elem  DataType
	Shape []int
}

// ScalarType returns the ColumnType for a scalar column of dt.
func ScalarType(dt DataType) ColumnType { return ColumnType{Elem: dt} }

// ElemsPerRow returns the number of elements each row occupies.
func (ct ColumnType) ElemsPerRow() int {
	n := 1
	for _, d := range ct.Shape {
		n *= d
	}
	return n
}

func (ct ColumnType) Equal(other ColumnType) bool {
	if ct.Elem != other.Elem || len(ct.Shape) != len(other.Shape) {
		return false
	}
	for i := range ct.Shape {
		if ct.Shape[i] != other.Shape[i] {
			return false
		}
	}
	return true
}

func (ct ColumnType) String() string {
	if len(ct.Shape) == 0 {
		return ct.Elem.String()
	}
	return fmt.Sprintf("%s%v", ct.Elem, ct.Shape)
}

// Column is a column-major value buffer holding rows*ElemsPerRow elements in
// one typed slice. Columns are produced by reads and are not shared with any
// adapter-internal state; callers may retain them freely.
type Column struct {
	typ  ColumnType
	rows int
	data any
}

// NewColumn allocates a zeroed column of the given type and row count.
func NewColumn(typ ColumnType, rows int) *Column {
	n := rows * typ.ElemsPerRow()
	c := &Column{typ: typ, rows: rows}
	switch typ.Elem {
	case DataTypeBool:
		c.data = make([]bool, n)
	case DataTypeInt32:
		c.data = make([]int32, n)
	case DataTypeInt64:
		c.data = make([]int64, n)
	case DataTypeFloat32:
		c.data = make([]float32, n)
	case DataTypeFloat64:
		c.data = make([]float64, n)
	case DataTypeString:
		c.data = make([]string, n)
	default:
		panic(fmt.Sprintf("catfile: cannot allocate column of type %s", typ))
	}
	return c
}

// NewBoolColumn wraps a scalar bool slice as a column.
func NewBoolColumn(data []bool) *Column {
	return &Column{typ: ScalarType(DataTypeBool), rows: len(data), data: data}
}

// NewInt64Column wraps a scalar int64 slice as a column.
func NewInt64Column(data []int64) *Column {
	return &Column{typ: ScalarType(DataTypeInt64), rows: len(data), data: data}
}

// NewFloat64Column wraps a scalar float64 slice as a column.
func NewFloat64Column(data []float64) *Column {
	return &Column{typ: ScalarType(DataTypeFloat64), rows: len(data), data: data}
}

// NewStringColumn wraps a scalar string slice as a column.
func NewStringColumn(data []string) *Column {
	return &Column{typ: ScalarType(DataTypeString), rows: len(data), data: data}
}

// NewShapedColumn wraps a typed flat slice as a column with the given type.
// len(data) must equal rows*typ.ElemsPerRow() and data's element type must
// match typ.Elem.
func NewShapedColumn(typ ColumnType, rows int, data any) (*Column, error) {
	want := rows * typ.ElemsPerRow()
	n := -1
	switch d := data.(type) {
	case []bool:
		if typ.Elem == DataTypeBool {
			n = len(d)
		}
	case []int32:
		if typ.Elem == DataTypeInt32 {
			n = len(d)
		}
	case []int64:
		if typ.Elem == DataTypeInt64 {
			n = len(d)
		}
	case []float32:
		if typ.Elem == DataTypeFloat32 {
			n = len(d)
		}
	case []float64:
		if typ.Elem == DataTypeFloat64 {
			n = len(d)
		}
	case []string:
		if typ.Elem == DataTypeString {
			n = len(d)
		}
	}
	if n < 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("slice type %T does not match column type %s", data, typ)}
	}
	if n != want {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("slice length %d does not match %d rows of %s", n, rows, typ)}
	}
	return &Column{typ: typ, rows: rows, data: data}, nil
}

// Type returns the column's type.
func (c *Column) Type() ColumnType { return c.typ }

// Rows returns the number of rows in the column.
func (c *Column) Rows() int { return c.rows }

// Data returns the backing typed slice ([]bool, []int32, []int64, []float32,
// []float64 or []string) of length Rows()*Type().ElemsPerRow().
func (c *Column) Data() any { return c.data }

// Bools returns the backing slice, or nil if the element type is not bool.
func (c *Column) Bools() []bool { v, _ := c.data.([]bool); return v }

// Int32s returns the backing slice, or nil if the element type is not int32.
func (c *Column) Int32s() []int32 { v, _ := c.data.([]int32); return v }

// Int64s returns the backing slice, or nil if the element type is not int64.
func (c *Column) Int64s() []int64 { v, _ := c.data.([]int64); return v }

// Float32s returns the backing slice, or nil if the element type is not float32.
func (c *Column) Float32s() []float32 { v, _ := c.data.([]float32); return v }

// Float64s returns the backing slice, or nil if the element type is not float64.
func (c *Column) Float64s() []float64 { v, _ := c.data.([]float64); return v }

// Strings returns the backing slice, or nil if the element type is not string.
func (c *Column) Strings() []string { v, _ := c.data.([]string); return v }

// copyRowsFrom copies all rows of src into c starting at row dstRow.
// Types must be equal.
func (c *Column) copyRowsFrom(dstRow int64, src *Column) error {
	if !c.typ.Equal(src.typ) {
		return &SchemaError{Reason: fmt.Sprintf("cannot copy %s rows into %s column", src.typ, c.typ)}
	}
	epr := int64(c.typ.ElemsPerRow())
	off := dstRow * epr
	switch dst := c.data.(type) {
	case []bool:
		copy(dst[off:], src.data.([]bool))
	case []int32:
		copy(dst[off:], src.data.([]int32))
	case []int64:
		copy(dst[off:], src.data.([]int64))
	case []float32:
		copy(dst[off:], src.data.([]float32))
	case []float64:
		copy(dst[off:], src.data.([]float64))
	case []string:
		copy(dst[off:], src.data.([]string))
	}
	return nil
}

// ColumnBatch maps column names to the buffers produced by one read.
type ColumnBatch map[string]*Column
