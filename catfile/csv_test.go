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
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rows := seqRows(100, 5, 0)
	path := writeCSVFile(t, dir, "data.csv", rows)

	a, err := OpenCSV(path, CSVOptions{Columns: floatDecls(5)})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.Equal(t, int64(100), a.Size())
	assert.Equal(t, []string{"c0", "c1", "c2", "c3", "c4"}, a.Schema().Names())

	batch, err := a.ReadRange(context.Background(), []string{"c0", "c3"}, 0, 100, 1)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	c0 := batch["c0"].Float64s()
	c3 := batch["c3"].Float64s()
	require.Len(t, c0, 100)
	for r := 0; r < 100; r++ {
		assert.Equal(t, rows[r][0], c0[r])
		assert.Equal(t, rows[r][3], c3[r])
	}
}

func TestCSVRangeAndStep(t *testing.T) {
	dir := t.TempDir()
	rows := seqRows(50, 2, 100)
	path := writeCSVFile(t, dir, "data.csv", rows)

	a, err := OpenCSV(path, CSVOptions{Columns: floatDecls(2)})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	full := make([]float64, 50)
	for r := range full {
		full[r] = rows[r][1]
	}

	tests := []struct {
		name              string
		start, stop, step int64
	}{
		{"middle", 10, 40, 1},
		{"step 3", 0, 50, 3},
		{"step beyond stop", 45, 50, 7},
		{"empty", 20, 20, 1},
		{"single", 13, 14, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := a.ReadRange(context.Background(), []string{"c1"}, tt.start, tt.stop, tt.step)
			require.NoError(t, err)
			want := sliceRows(full, tt.start, tt.stop, tt.step)
			got := batch["c1"].Float64s()
			assert.Equal(t, len(want), len(got))
			for i := range want {
				assert.Equal(t, want[i], got[i])
			}
		})
	}
}

func TestCSVHeaderAndComments(t *testing.T) {
	dir := t.TempDir()
	content := "# generated\nx,y\n1,2\n# midway comment\n3,4\n\n5,6\n"
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	a, err := OpenCSV(path, CSVOptions{
		Columns: []ColumnDecl{{Name: "x", Type: DataTypeInt64}, {Name: "y", Type: DataTypeInt64}},
		Comment: "#",
		Header:  true,
	})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.Equal(t, int64(3), a.Size())
	batch, err := a.ReadRange(context.Background(), []string{"x"}, 0, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 5}, batch["x"].Int64s())
}

func TestCSVMixedTypes(t *testing.T) {
	dir := t.TempDir()
	content := "alpha, 1 ,1.5,true\nbeta,2,2.5,false\n"
	path := filepath.Join(dir, "mixed.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	a, err := OpenCSV(path, CSVOptions{Columns: []ColumnDecl{
		{Name: "name", Type: DataTypeString},
		{Name: "n", Type: DataTypeInt32},
		{Name: "v", Type: DataTypeFloat32},
		{Name: "ok", Type: DataTypeBool},
	}})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	batch, err := a.ReadRange(context.Background(), []string{"name", "n", "v", "ok"}, 0, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, batch["name"].Strings())
	assert.Equal(t, []int32{1, 2}, batch["n"].Int32s())
	assert.Equal(t, []float32{1.5, 2.5}, batch["v"].Float32s())
	assert.Equal(t, []bool{true, false}, batch["ok"].Bools())
}

func TestCSVFormatErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("wrong field count", func(t *testing.T) {
		path := filepath.Join(dir, "ragged.csv")
		require.NoError(t, os.WriteFile(path, []byte("1,2\n3\n"), 0o644))
		a, err := OpenCSV(path, CSVOptions{Columns: floatDecls(2)})
		require.NoError(t, err)
		defer func() { _ = a.Close() }()
		_, err = a.ReadRange(context.Background(), []string{"c0"}, 0, 2, 1)
		assert.ErrorIs(t, err, ErrFormat)
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, int64(1), fe.Row)
	})

	t.Run("unparseable field", func(t *testing.T) {
		path := filepath.Join(dir, "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte("1,2\nx,4\n"), 0o644))
		a, err := OpenCSV(path, CSVOptions{Columns: floatDecls(2)})
		require.NoError(t, err)
		defer func() { _ = a.Close() }()
		_, err = a.ReadRange(context.Background(), []string{"c0"}, 0, 2, 1)
		assert.ErrorIs(t, err, ErrFormat)
	})
}

func TestCSVConfigurationErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeCSVFile(t, dir, "data.csv", seqRows(3, 2, 0))

	tests := []struct {
		name string
		opts CSVOptions
	}{
		{"no columns", CSVOptions{}},
		{"unnamed column", CSVOptions{Columns: []ColumnDecl{{Type: DataTypeFloat64}}}},
		{"duplicate column", CSVOptions{Columns: []ColumnDecl{
			{Name: "a", Type: DataTypeFloat64}, {Name: "a", Type: DataTypeFloat64},
		}}},
		{"undeclared type", CSVOptions{Columns: []ColumnDecl{{Name: "a"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenCSV(path, tt.opts)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestCSVRangeErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeCSVFile(t, dir, "data.csv", seqRows(10, 2, 0))
	a, err := OpenCSV(path, CSVOptions{Columns: floatDecls(2)})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	_, err = a.ReadRange(ctx, []string{"c0"}, 0, 11, 1)
	assert.ErrorIs(t, err, ErrRange)
	_, err = a.ReadRange(ctx, []string{"c0"}, -1, 5, 1)
	assert.ErrorIs(t, err, ErrRange)
	_, err = a.ReadRange(ctx, []string{"c0"}, 0, 10, 0)
	assert.ErrorIs(t, err, ErrRange)
	_, err = a.ReadRange(ctx, []string{"nope"}, 0, 10, 1)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCSVGzip(t *testing.T) {
	dir := t.TempDir()
	rows := seqRows(20, 3, 7)
	plain := writeCSVFile(t, dir, "plain.csv", rows)
	raw, err := os.ReadFile(plain)
	require.NoError(t, err)

	gzPath := filepath.Join(dir, "data.csv.gz")
	f, err := os.Create(gzPath)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	a, err := OpenCSV(gzPath, CSVOptions{Columns: floatDecls(3)})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.Equal(t, int64(20), a.Size())
	batch, err := a.ReadRange(context.Background(), []string{"c2"}, 5, 15, 2)
	require.NoError(t, err)
	got := batch["c2"].Float64s()
	require.Len(t, got, 5)
	for i, r := range []int{5, 7, 9, 11, 13} {
		assert.Equal(t, rows[r][2], got[i])
	}
}
