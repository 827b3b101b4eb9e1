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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeCSVFile writes rows of float64 fields as a plain CSV file and
// returns its path.
func writeCSVFile(t *testing.T, dir, name string, rows [][]float64) string {
	t.Helper()
	var b strings.Builder
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// seqRows generates n rows of ncols float64 values with distinct,
// reproducible contents.
func seqRows(n, ncols int, base float64) [][]float64 {
	rows := make([][]float64, n)
	for r := range rows {
		row := make([]float64, ncols)
		for c := range row {
			row[c] = base + float64(r) + float64(c)/10
		}
		rows[r] = row
	}
	return rows
}

// floatDecls declares ncols scalar float64 columns named c0, c1, ...
func floatDecls(ncols int) []ColumnDecl {
	decls := make([]ColumnDecl, ncols)
	for i := range decls {
		decls[i] = ColumnDecl{Name: fmt.Sprintf("c%d", i), Type: DataTypeFloat64}
	}
	return decls
}

// sliceRows replicates a read in memory: rows [start, stop) of col stepped
// by step.
func sliceRows(col []float64, start, stop, step int64) []float64 {
	var out []float64
	for i := start; i < stop; i += step {
		out = append(out, col[i])
	}
	return out
}
