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

// Package catfile unifies heterogeneous on-disk tabular formats behind one
// abstraction: a fixed-size, column-oriented dataset readable in arbitrary
// contiguous row ranges with stride.
//
// # Layers
//
// Format adapters wrap one physical file each and expose its row count,
// column schema and a positional ReadRange. Built-in adapters cover
// delimited text (CSVAdapter), raw column-major binary (BinaryAdapter),
// parquet as a hierarchical container (ParquetAdapter), Arrow IPC as a
// binary-table container (ArrowIPCAdapter) and JSON lines
// (JSONLinesAdapter).
//
// A Stack composes schema-identical adapters -- resolved from an explicit
// path list or sorted glob matches -- into one dataset with a global row
// index space, mapping global indices to members through a cumulative
// offset table. A Source wraps a stack and synthesizes the default columns
// every dataset carries (Selection, Weight, Value), each shadowed by a
// file-backed column of the same name.
//
// # Reading
//
// All reads are of the form ReadRange(ctx, columns, start, stop, step):
// rows [start, stop) subsampled by step, returned column-major. Adapters
// never share a read cursor, so concurrent reads over disjoint or
// overlapping ranges need no coordination.
//
// # Custom formats
//
// Implement Adapter for one file, wrap its constructor in an OpenFunc, and
// pass it to SourceOpener to obtain a constructor with stacking, glob
// resolution and default columns applied. No other integration is needed:
//
//	open := catfile.CSVOpener(catfile.CSVOptions{Columns: cols})
//	newSource := catfile.SourceOpener(open)
//	src, err := newSource(ctx, "data-*.csv")
//
// # Errors
//
// Failures classify into four sentinel groups checkable with errors.Is:
// ErrConfiguration (invalid input), ErrSchema (schema disagreement),
// ErrFormat (malformed content) and ErrRange (out-of-bounds request).
// Construction failures are fatal to the instance, read failures to the
// call; nothing is retried.
package catfile
