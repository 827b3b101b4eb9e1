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
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Stack composes an ordered list of schema-identical adapters into one
// logically contiguous dataset with a single global row index space.
// A Stack is itself an Adapter.
type Stack struct {
	members []Adapter
	paths   []string
	offsets []int64 // prefix sums of member sizes, len(members)+1
	schema  *Schema
	size    int64
	closed  bool
}

var _ Adapter = (*Stack)(nil)

// NewStack composes already-open adapters in the given order. All members
// must expose an identical schema. On error the members are left open; the
// caller still owns them.
func NewStack(members []Adapter) (*Stack, error) {
	if len(members) == 0 {
		return nil, &ConfigurationError{Reason: "stack requires at least one member"}
	}
	for i, m := range members {
		if m == nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("member %d is nil", i)}
		}
	}

	schema := members[0].Schema()
	offsets := make([]int64, len(members)+1)
	for i, m := range members {
		if i > 0 && !schema.Equal(m.Schema()) {
			return nil, &SchemaError{
				Member: i,
				Reason: fmt.Sprintf("member %d schema %s differs from member 0 schema %s", i, m.Schema(), schema),
			}
		}
		offsets[i+1] = offsets[i] + m.Size()
	}

	return &Stack{
		members: members,
		offsets: offsets,
		schema:  schema,
		size:    offsets[len(members)],
	}, nil
}

// ResolvePaths expands a path specification into an ordered file list.
// Entries with glob metacharacters are expanded and sorted
// lexicographically; plain entries are used as given, in order. Resolving
// to zero paths is a ConfigurationError.
func ResolvePaths(specs ...string) ([]string, error) {
	var paths []string
	for _, spec := range specs {
		if !strings.ContainsAny(spec, "*?[") {
			paths = append(paths, spec)
			continue
		}
		matches, err := filepath.Glob(spec)
		if err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("bad glob pattern %q", spec), Err: err}
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("no files resolved from %v", specs)}
	}
	return paths, nil
}

// OpenStack resolves the path specification, opens every member with open,
// and composes them. Members are opened concurrently; on any failure every
// already-open member is closed and no stack is returned.
func OpenStack(ctx context.Context, open OpenFunc, specs ...string) (*Stack, error) {
	paths, err := ResolvePaths(specs...)
	if err != nil {
		return nil, err
	}

	members := make([]Adapter, len(paths))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			a, err := open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			members[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		closeAdapters(members)
		return nil, err
	}

	st, err := NewStack(members)
	if err != nil {
		closeAdapters(members)
		var serr *SchemaError
		if errors.As(err, &serr) && serr.Path == "" && serr.Member < len(paths) {
			serr.Path = paths[serr.Member]
		}
		return nil, err
	}
	st.paths = paths
	slog.Debug("opened file stack", slog.Int("members", len(paths)), slog.Int64("rows", st.size))
	return st, nil
}

func closeAdapters(members []Adapter) {
	for _, m := range members {
		if m != nil {
			_ = m.Close()
		}
	}
}

// Size returns the global row count, the sum of all member sizes.
func (s *Stack) Size() int64 { return s.size }

// Schema returns the shared member schema.
func (s *Stack) Schema() *Schema { return s.schema }

// Members returns the number of member adapters.
func (s *Stack) Members() int { return len(s.members) }

// Paths returns the resolved member paths, or nil when the stack was built
// from already-open adapters.
func (s *Stack) Paths() []string { return s.paths }

// Locate maps a global row index to its member and member-local index.
func (s *Stack) Locate(global int64) (member int, local int64, err error) {
	if global < 0 || global >= s.size {
		return 0, 0, &RangeError{Start: global, Stop: global + 1, Step: 1, Size: s.size}
	}
	member = sort.Search(len(s.members), func(i int) bool { return s.offsets[i+1] > global })
	return member, global - s.offsets[member], nil
}

// Attrs returns the first member's attributes, when it provides any.
func (s *Stack) Attrs() Attrs {
	if ap, ok := s.members[0].(AttrProvider); ok {
		return ap.Attrs()
	}
	return nil
}

// ReadRange serves a global range by issuing member-local reads in member
// order and concatenating the results. Step is applied over the global
// index space: each member's first selected row is aligned to start modulo
// step, so a row may be skipped even when it falls inside a member's range.
func (s *Stack) ReadRange(ctx context.Context, columns []string, start, stop, step int64) (ColumnBatch, error) {
	nrows, err := validateRead(s.schema, columns, start, stop, step, s.size)
	if err != nil {
		return nil, err
	}

	out := make(ColumnBatch, len(columns))
	for _, name := range columns {
		ct, _ := s.schema.ColumnType(name)
		out[name] = NewColumn(ct, int(nrows))
	}
	if nrows == 0 {
		return out, nil
	}

	first := sort.Search(len(s.members), func(i int) bool { return s.offsets[i+1] > start })
	for m := first; m < len(s.members); m++ {
		mLo, mHi := s.offsets[m], s.offsets[m+1]
		if mLo >= stop {
			break
		}
		lo := start
		if mLo > lo {
			lo = mLo
			if rem := (lo - start) % step; rem != 0 {
				lo += step - rem
			}
		}
		hi := stop
		if mHi < hi {
			hi = mHi
		}
		if lo >= hi {
			continue
		}

		batch, err := s.members[m].ReadRange(ctx, columns, lo-mLo, hi-mLo, step)
		if err != nil {
			return nil, fmt.Errorf("stack member %d: %w", m, err)
		}
		dstRow := (lo - start) / step
		for _, name := range columns {
			if err := out[name].copyRowsFrom(dstRow, batch[name]); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// Close closes every member. Close is idempotent.
func (s *Stack) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for i, m := range s.members {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close member %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
