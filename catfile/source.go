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
	"log/slog"
)

// Names of the default columns synthesized by every source.
const (
	SelectionColumn = "Selection"
	WeightColumn    = "Weight"
	ValueColumn     = "Value"
)

// defaultColumn is a virtual column materialized on demand; it is never
// stored.
type defaultColumn struct {
	typ   ColumnType
	value any
}

type sourceConfig struct {
	order    []string
	defaults map[string]defaultColumn
}

// SourceOption customizes the default columns of a source.
type SourceOption func(*sourceConfig) error

// WithDefault adds a synthesized constant column, or changes the constant
// of a built-in default. value must be a bool, int64, float64 or string.
func WithDefault(name string, value any) SourceOption {
	return func(cfg *sourceConfig) error {
		var typ ColumnType
		switch value.(type) {
		case bool:
			typ = ScalarType(DataTypeBool)
		case int64:
			typ = ScalarType(DataTypeInt64)
		case float64:
			typ = ScalarType(DataTypeFloat64)
		case string:
			typ = ScalarType(DataTypeString)
		default:
			return &ConfigurationError{Reason: fmt.Sprintf("default column %q: unsupported value type %T", name, value)}
		}
		if _, ok := cfg.defaults[name]; !ok {
			cfg.order = append(cfg.order, name)
		}
		cfg.defaults[name] = defaultColumn{typ: typ, value: value}
		return nil
	}
}

// Source is the user-facing read-only columnar dataset: one stack plus
// synthesized default columns. A column provided by the backing files
// unconditionally shadows a same-named default.
type Source struct {
	stack    *Stack
	schema   *Schema
	defaults map[string]defaultColumn
	size     int64
}

// NewSource wraps a stack, taking ownership of it: closing the source
// closes the stack. A single file is represented as a one-member stack.
func NewSource(stack *Stack, opts ...SourceOption) (*Source, error) {
	cfg := &sourceConfig{defaults: make(map[string]defaultColumn)}
	builtin := []SourceOption{
		WithDefault(SelectionColumn, true),
		WithDefault(WeightColumn, 1.0),
		WithDefault(ValueColumn, 1.0),
	}
	for _, opt := range append(builtin, opts...) {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	schema := stack.Schema().Clone()
	defaults := make(map[string]defaultColumn)
	for _, name := range cfg.order {
		if schema.HasColumn(name) {
			continue // file-backed column shadows the default
		}
		schema.AddColumn(name, cfg.defaults[name].typ)
		defaults[name] = cfg.defaults[name]
	}

	slog.Debug("created dataset source",
		slog.Int64("rows", stack.Size()),
		slog.Int("columns", schema.Len()),
		slog.Int("members", stack.Members()))
	return &Source{
		stack:    stack,
		schema:   schema,
		defaults: defaults,
		size:     stack.Size(),
	}, nil
}

// Size returns the number of rows visible to this process.
func (s *Source) Size() int64 { return s.size }

// CSize returns the collective row count across all partitions of the
// dataset. Range partitioning happens outside this package, so CSize always
// equals Size here; it is exposed as a first-class property regardless of
// how ranges are later split.
func (s *Source) CSize() int64 { return s.size }

// Schema returns the merged layout: stack columns plus non-shadowed
// defaults.
func (s *Source) Schema() *Schema { return s.schema }

// Columns returns all column names, stack schema order first, then
// synthesized defaults.
func (s *Source) Columns() []string { return s.schema.Names() }

// IsDefault reports whether name resolves to a synthesized column rather
// than file data.
func (s *Source) IsDefault(name string) bool {
	_, ok := s.defaults[name]
	return ok
}

// Attrs returns the backing files' attribute metadata, when present.
func (s *Source) Attrs() Attrs { return s.stack.Attrs() }

// Stack returns the underlying stack.
func (s *Source) Stack() *Stack { return s.stack }

// ReadRange returns rows [start, stop) subsampled by step for the requested
// columns. File-backed columns are served by one delegated stack read;
// default columns are materialized without touching any file.
func (s *Source) ReadRange(ctx context.Context, columns []string, start, stop, step int64) (ColumnBatch, error) {
	nrows, err := validateRead(s.schema, columns, start, stop, step, s.size)
	if err != nil {
		return nil, err
	}

	var backed []string
	var virtual []string
	for _, name := range columns {
		if s.IsDefault(name) {
			virtual = append(virtual, name)
		} else {
			backed = append(backed, name)
		}
	}

	out := make(ColumnBatch, len(columns))
	if len(backed) > 0 {
		batch, err := s.stack.ReadRange(ctx, backed, start, stop, step)
		if err != nil {
			return nil, err
		}
		for name, col := range batch {
			out[name] = col
		}
	}
	for _, name := range virtual {
		out[name] = materializeDefault(s.defaults[name], int(nrows))
	}
	return out, nil
}

// ReadAll reads every row of the requested columns.
func (s *Source) ReadAll(ctx context.Context, columns []string) (ColumnBatch, error) {
	return s.ReadRange(ctx, columns, 0, s.size, 1)
}

// Slices partitions [0, Size()) into at most n contiguous [start, stop)
// ranges of near-equal length, in order and disjoint. It is the primitive
// for splitting work across external consumers.
func (s *Source) Slices(n int) [][2]int64 {
	if n <= 0 {
		return nil
	}
	if int64(n) > s.size {
		n = int(s.size)
	}
	out := make([][2]int64, 0, n)
	var start int64
	for i := 0; i < n; i++ {
		stop := start + s.size/int64(n)
		if int64(i) < s.size%int64(n) {
			stop++
		}
		out = append(out, [2]int64{start, stop})
		start = stop
	}
	return out
}

func materializeDefault(d defaultColumn, rows int) *Column {
	col := NewColumn(d.typ, rows)
	switch v := d.value.(type) {
	case bool:
		dst := col.Bools()
		for i := range dst {
			dst[i] = v
		}
	case int64:
		dst := col.Int64s()
		for i := range dst {
			dst[i] = v
		}
	case float64:
		dst := col.Float64s()
		for i := range dst {
			dst[i] = v
		}
	case string:
		dst := col.Strings()
		for i := range dst {
			dst[i] = v
		}
	}
	return col
}

// Close closes the underlying stack. Close is idempotent.
func (s *Source) Close() error { return s.stack.Close() }
