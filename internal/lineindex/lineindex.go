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

// Package lineindex builds a byte-offset index over the lines of a text
// stream, so that line-oriented formats can answer row-range reads by
// seeking instead of reparsing the whole file.
package lineindex

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Index maps row numbers to byte spans. Rows are the lines kept by the
// filter passed to Build, in stream order.
type Index struct {
	start []int64
	end   []int64
}

// Build scans r once, recording the byte span of every kept line. The span
// excludes the trailing newline (and carriage return). keep decides whether
// a line becomes a row; a nil keep keeps every non-empty line. The line
// slice passed to keep is only valid during the call.
func Build(r io.Reader, keep func(line []byte) bool) (*Index, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	ix := &Index{}
	var pos int64
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			span := int64(len(line))
			trimmed := bytes.TrimRight(line, "\r\n")
			ok := len(trimmed) > 0
			if keep != nil {
				ok = keep(trimmed)
			}
			if ok {
				ix.start = append(ix.start, pos)
				ix.end = append(ix.end, pos+int64(len(trimmed)))
			}
			pos += span
		}
		if err != nil {
			if err == io.EOF {
				return ix, nil
			}
			return nil, fmt.Errorf("line scan failed at byte %d: %w", pos, err)
		}
	}
}

// Rows returns the number of indexed rows.
func (ix *Index) Rows() int64 { return int64(len(ix.start)) }

// Span returns the byte span [start, end) of row i.
func (ix *Index) Span(i int64) (start, end int64) {
	return ix.start[i], ix.end[i]
}
