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
	"errors"
	"fmt"
)

// Sentinel errors for the four failure classes. Use errors.Is against these
// to classify a failure; use errors.As with the concrete types below to
// extract details.
var (
	// ErrConfiguration indicates invalid construction or request input,
	// such as an empty file list or a missing required declaration.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrSchema indicates a schema disagreement, either across stack
	// members or across datasets within one container file.
	ErrSchema = errors.New("schema mismatch")

	// ErrFormat indicates malformed file content.
	ErrFormat = errors.New("malformed file content")

	// ErrRange indicates a read request outside the valid row range.
	ErrRange = errors.New("read range out of bounds")
)

// ConfigurationError reports invalid construction input.
type ConfigurationError struct {
	// Reason describes what was invalid
	Reason string
	// Err is the underlying error if any
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrConfiguration, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// SchemaError reports a schema disagreement detected at construction time.
type SchemaError struct {
	// Path is the file whose schema disagreed, when known
	Path string
	// Member is the stack member index whose schema disagreed, when the
	// error comes from stack composition; 0 otherwise
	Member int
	// Reason describes the disagreement
	Reason string
	// Err is the underlying error if any
	Err error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrSchema, e.Reason)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s: %s", ErrSchema, e.Path, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// FormatError reports malformed content in a backing file.
type FormatError struct {
	// Path is the offending file
	Path string
	// Row is the zero-based row index at which the problem was detected,
	// or -1 when the problem is not row-specific
	Row int64
	// Reason describes what was malformed
	Reason string
	// Err is the underlying error if any
	Err error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", ErrFormat, e.Path, e.Reason)
	if e.Row >= 0 {
		msg = fmt.Sprintf("%s: %s: row %d: %s", ErrFormat, e.Path, e.Row, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// RangeError reports a read request outside [0, Size) or with a
// non-positive step.
type RangeError struct {
	Start int64
	Stop  int64
	Step  int64
	Size  int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: [%d,%d) step %d against size %d", ErrRange, e.Start, e.Stop, e.Step, e.Size)
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }

// checkRange validates a (start, stop, step) request against size.
func checkRange(start, stop, step, size int64) error {
	if step < 1 || start < 0 || stop < start || stop > size {
		return &RangeError{Start: start, Stop: stop, Step: step, Size: size}
	}
	return nil
}

// rangeRows returns the number of rows selected by [start, stop) with the
// given step, i.e. ceil((stop-start)/step).
func rangeRows(start, stop, step int64) int64 {
	if stop <= start {
		return 0
	}
	return (stop - start + step - 1) / step
}
