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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memAdapter is a minimal custom in-memory format used to exercise the
// integration surface for third-party adapters.
type memAdapter struct {
	schema *Schema
	values []int64
}

func newMemAdapter(n int, base int64) *memAdapter {
	s := NewSchema()
	s.AddColumn("v", ScalarType(DataTypeInt64))
	values := make([]int64, n)
	for i := range values {
		values[i] = base + int64(i)
	}
	return &memAdapter{schema: s, values: values}
}

func (m *memAdapter) Size() int64     { return int64(len(m.values)) }
func (m *memAdapter) Schema() *Schema { return m.schema }
func (m *memAdapter) Close() error    { return nil }

func (m *memAdapter) ReadRange(_ context.Context, columns []string, start, stop, step int64) (ColumnBatch, error) {
	nrows, err := validateRead(m.schema, columns, start, stop, step, m.Size())
	if err != nil {
		return nil, err
	}
	out := make(ColumnBatch, len(columns))
	for _, name := range columns {
		col := NewColumn(ScalarType(DataTypeInt64), int(nrows))
		for i := int64(0); i < nrows; i++ {
			col.Int64s()[i] = m.values[start+i*step]
		}
		out[name] = col
	}
	return out, nil
}

func TestSourceOpenerWithCustomFormat(t *testing.T) {
	open := func(path string) (Adapter, error) {
		switch filepath.Base(path) {
		case "a.mem":
			return newMemAdapter(10, 0), nil
		case "b.mem":
			return newMemAdapter(10, 100), nil
		default:
			return nil, &ConfigurationError{Reason: "unknown member"}
		}
	}

	src, err := SourceOpener(open)(context.Background(), "a.mem", "b.mem")
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	assert.Equal(t, int64(20), src.Size())
	assert.Equal(t, []string{"v", "Selection", "Weight", "Value"}, src.Columns())

	batch, err := src.ReadRange(context.Background(), []string{"v"}, 8, 13, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 9, 100, 101, 102}, batch["v"].Int64s())
}

func TestRegistrySuffixDispatch(t *testing.T) {
	_, err := OpenerForPath("data.parquet")
	require.NoError(t, err)
	_, err = OpenerForPath("data.arrow")
	require.NoError(t, err)
	_, err = OpenerForPath("data.feather")
	require.NoError(t, err)

	_, err = OpenerForPath("data.unknown")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRegisterFormatLongestSuffixWins(t *testing.T) {
	RegisterFormat(".mem", func(path string) (Adapter, error) { return newMemAdapter(1, 0), nil })
	RegisterFormat(".big.mem", func(path string) (Adapter, error) { return newMemAdapter(5, 0), nil })

	open, err := OpenerForPath("data.big.mem")
	require.NoError(t, err)
	a, err := open("data.big.mem")
	require.NoError(t, err)
	assert.Equal(t, int64(5), a.Size())

	open, err = OpenerForPath("data.mem")
	require.NoError(t, err)
	a, err = open("data.mem")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Size())
}

func TestOpenSourceDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	writeArrowFile(t, dir, "data.arrow", []int{6}, nil)

	src, err := OpenSource(context.Background(), filepath.Join(dir, "data.arrow"))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	assert.Equal(t, int64(6), src.Size())
	batch, err := src.ReadRange(context.Background(), []string{"id"}, 0, 6, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 2, 4}, batch["id"].Int64s())
}
