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
	"strings"
	"sync"
)

// formatRegistry maps filename suffixes to openers. Only self-describing
// formats are pre-registered; formats that need declarations (delimited
// text, raw binary, JSON lines) are used through their typed openers, or
// registered by the caller with options baked in.
type formatRegistry struct {
	mu       sync.RWMutex
	bySuffix map[string]OpenFunc
}

var defaultRegistry = &formatRegistry{bySuffix: make(map[string]OpenFunc)}

func init() {
	RegisterFormat(".parquet", ParquetOpener(ParquetOptions{}))
	RegisterFormat(".arrow", ArrowIPCOpener())
	RegisterFormat(".feather", ArrowIPCOpener())
}

// RegisterFormat associates a filename suffix (e.g. ".parquet") with an
// opener. Registering an existing suffix replaces it.
func RegisterFormat(suffix string, open OpenFunc) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.bySuffix[suffix] = open
}

// OpenerForPath returns the registered opener whose suffix matches path,
// preferring the longest match.
func OpenerForPath(path string) (OpenFunc, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	var best string
	var open OpenFunc
	for suffix, fn := range defaultRegistry.bySuffix {
		if strings.HasSuffix(path, suffix) && len(suffix) > len(best) {
			best = suffix
			open = fn
		}
	}
	if open == nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("no registered format for %q", path)}
	}
	return open, nil
}

// SourceConstructor builds a complete dataset source from a path
// specification: an explicit ordered path list, or entries with glob
// metacharacters expanded and sorted lexicographically.
type SourceConstructor func(ctx context.Context, specs ...string) (*Source, error)

// SourceOpener turns any per-file opener into a SourceConstructor that
// applies glob/list resolution, stacking and default columns. This is the
// entire integration surface for a custom format: implement Adapter, wrap
// its constructor in an OpenFunc, and pass it here.
func SourceOpener(open OpenFunc, opts ...SourceOption) SourceConstructor {
	return func(ctx context.Context, specs ...string) (*Source, error) {
		stack, err := OpenStack(ctx, open, specs...)
		if err != nil {
			return nil, err
		}
		src, err := NewSource(stack, opts...)
		if err != nil {
			_ = stack.Close()
			return nil, err
		}
		return src, nil
	}
}

// OpenSource builds a dataset source dispatching each resolved path through
// the format registry, so a stack may even mix container formats as long as
// every member exposes an identical schema.
func OpenSource(ctx context.Context, specs ...string) (*Source, error) {
	open := func(path string) (Adapter, error) {
		fn, err := OpenerForPath(path)
		if err != nil {
			return nil, err
		}
		return fn(path)
	}
	return SourceOpener(open)(ctx, specs...)
}
