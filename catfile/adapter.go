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
)

// Attrs holds small key/value metadata attached to a file, such as parquet
// key-value metadata or Arrow schema metadata. Attrs are loaded eagerly at
// construction and are not columns.
type Attrs map[string]string

// Adapter is the per-format contract: a read-only, schema-bearing wrapper
// around one physical file exposing positional range reads.
//
// Size and Schema are fixed for the adapter's lifetime once constructed.
// ReadRange must be safe for concurrent use; adapters serve reads through
// positioned reads or per-call readers rather than a shared cursor.
type Adapter interface {
	// Size returns the total number of rows.
	Size() int64

	// Schema returns the column layout. Callers must not mutate it.
	Schema() *Schema

	// ReadRange returns, for each requested column, rows [start, stop)
	// subsampled by step. Each returned column has exactly
	// ceil((stop-start)/step) rows. Requests outside [0, Size()] or with
	// step < 1 fail with a RangeError; unknown columns fail with a
	// ConfigurationError.
	ReadRange(ctx context.Context, columns []string, start, stop, step int64) (ColumnBatch, error)

	// Close releases the underlying file handle. Close is idempotent.
	Close() error
}

// AttrProvider is an optional capability of adapters whose format carries
// attribute metadata.
type AttrProvider interface {
	Attrs() Attrs
}

// OpenFunc opens one physical file as an Adapter. Format-specific options
// are carried in the closure (see CSVOpener, BinaryOpener, ParquetOpener,
// ArrowIPCOpener, JSONLinesOpener).
type OpenFunc func(path string) (Adapter, error)

// validateRead checks a read request against a schema and size, returning
// the number of result rows.
func validateRead(schema *Schema, columns []string, start, stop, step, size int64) (int64, error) {
	if err := checkRange(start, stop, step, size); err != nil {
		return 0, err
	}
	for _, name := range columns {
		if !schema.HasColumn(name) {
			return 0, &ConfigurationError{Reason: fmt.Sprintf("unknown column %q", name)}
		}
	}
	return rangeRows(start, stop, step), nil
}
