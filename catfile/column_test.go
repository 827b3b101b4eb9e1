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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeByteSize(t *testing.T) {
	tests := []struct {
		dt   DataType
		want int
	}{
		{DataTypeBool, 1},
		{DataTypeInt32, 4},
		{DataTypeInt64, 8},
		{DataTypeFloat32, 4},
		{DataTypeFloat64, 8},
		{DataTypeString, 0},
		{DataTypeUnknown, 0},
	}
	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dt.ByteSize())
		})
	}
}

func TestNewColumnAllocation(t *testing.T) {
	c := NewColumn(ColumnType{Elem: DataTypeFloat64, Shape: []int{3}}, 10)
	assert.Equal(t, 10, c.Rows())
	require.NotNil(t, c.Float64s())
	assert.Len(t, c.Float64s(), 30)
	assert.Nil(t, c.Int64s())

	assert.Panics(t, func() { NewColumn(ScalarType(DataTypeUnknown), 1) })
}

func TestNewShapedColumn(t *testing.T) {
	typ := ColumnType{Elem: DataTypeFloat32, Shape: []int{2}}

	c, err := NewShapedColumn(typ, 3, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Rows())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, c.Float32s())

	_, err = NewShapedColumn(typ, 3, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewShapedColumn(typ, 3, []float64{1, 2, 3, 4, 5, 6})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestColumnCopyRowsFrom(t *testing.T) {
	typ := ColumnType{Elem: DataTypeInt64, Shape: []int{2}}
	dst := NewColumn(typ, 4)
	src, err := NewShapedColumn(typ, 2, []int64{10, 11, 20, 21})
	require.NoError(t, err)

	require.NoError(t, dst.copyRowsFrom(1, src))
	assert.Equal(t, []int64{0, 0, 10, 11, 20, 21, 0, 0}, dst.Int64s())

	other := NewFloat64Column([]float64{1, 2})
	err = dst.copyRowsFrom(0, other)
	assert.ErrorIs(t, err, ErrSchema)
}
