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
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/cosmoworks/catstack/internal/lineindex"
)

// lineFile backs the line-oriented adapters. Plain files are indexed once
// and then served with positioned reads against the open handle. Gzipped
// files carry no random access, so the decompressed body is materialized
// once at construction and spans are served from memory; this is the
// documented degraded path, not an error.
type lineFile struct {
	path string
	f    *os.File
	body []byte
	ix   *lineindex.Index
}

func openLineFile(path string, keep func(line []byte) bool) (*lineFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Reason: "cannot open file", Err: err}
	}

	lf := &lineFile{path: path}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, &FormatError{Path: path, Row: -1, Reason: "not a valid gzip stream", Err: err}
		}
		body, err := io.ReadAll(gz)
		cerr := gz.Close()
		_ = f.Close()
		if err != nil {
			return nil, &FormatError{Path: path, Row: -1, Reason: "gzip decompression failed", Err: err}
		}
		if cerr != nil {
			return nil, &FormatError{Path: path, Row: -1, Reason: "gzip decompression failed", Err: cerr}
		}
		lf.body = body
		lf.ix, err = lineindex.Build(bytes.NewReader(body), keep)
		if err != nil {
			return nil, &FormatError{Path: path, Row: -1, Reason: "line indexing failed", Err: err}
		}
		return lf, nil
	}

	ix, err := lineindex.Build(f, keep)
	if err != nil {
		_ = f.Close()
		return nil, &FormatError{Path: path, Row: -1, Reason: "line indexing failed", Err: err}
	}
	lf.f = f
	lf.ix = ix
	return lf, nil
}

func (lf *lineFile) rows() int64 { return lf.ix.Rows() }

// readRow returns the bytes of row i. buf is reused when large enough; the
// returned slice is only valid until the next readRow call with the same buf.
func (lf *lineFile) readRow(i int64, buf []byte) ([]byte, []byte, error) {
	start, end := lf.ix.Span(i)
	n := end - start
	if lf.body != nil {
		return lf.body[start:end], buf, nil
	}
	if int64(cap(buf)) < n {
		buf = make([]byte, n)
	}
	b := buf[:n]
	if _, err := lf.f.ReadAt(b, start); err != nil {
		return nil, buf, &FormatError{Path: lf.path, Row: i, Reason: "positioned read failed", Err: err}
	}
	return b, buf, nil
}

func (lf *lineFile) close() error {
	lf.body = nil
	if lf.f == nil {
		return nil
	}
	f := lf.f
	lf.f = nil
	return f.Close()
}
