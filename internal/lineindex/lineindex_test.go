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

package lineindex

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSpans(t *testing.T) {
	content := "alpha\nbeta\n\ngamma\n"
	ix, err := Build(strings.NewReader(content), nil)
	require.NoError(t, err)

	require.Equal(t, int64(3), ix.Rows())
	for i, want := range []string{"alpha", "beta", "gamma"} {
		start, end := ix.Span(int64(i))
		assert.Equal(t, want, content[start:end])
	}
}

func TestBuildCRLFAndNoTrailingNewline(t *testing.T) {
	content := "one\r\ntwo\r\nthree"
	ix, err := Build(strings.NewReader(content), nil)
	require.NoError(t, err)

	require.Equal(t, int64(3), ix.Rows())
	for i, want := range []string{"one", "two", "three"} {
		start, end := ix.Span(int64(i))
		assert.Equal(t, want, content[start:end])
	}
}

func TestBuildKeepFilter(t *testing.T) {
	content := "# comment\ndata1\n# another\ndata2\n"
	keep := func(line []byte) bool {
		return len(line) > 0 && !bytes.HasPrefix(line, []byte("#"))
	}
	ix, err := Build(strings.NewReader(content), keep)
	require.NoError(t, err)

	require.Equal(t, int64(2), ix.Rows())
	start, end := ix.Span(0)
	assert.Equal(t, "data1", content[start:end])
	start, end = ix.Span(1)
	assert.Equal(t, "data2", content[start:end])
}

func TestBuildEmpty(t *testing.T) {
	ix, err := Build(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ix.Rows())
}
