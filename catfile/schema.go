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
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Schema is the ordered set of columns exposed by an adapter, stack or
// source. Order is insertion order and is significant for equality.
type Schema struct {
	names []string
	types map[string]ColumnType
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{types: make(map[string]ColumnType)}
}

// AddColumn appends a column. Adding a name that already exists replaces its
// type in place without changing the order.
func (s *Schema) AddColumn(name string, typ ColumnType) {
	if _, ok := s.types[name]; !ok {
		s.names = append(s.names, name)
	}
	s.types[name] = typ
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.names) }

// Names returns the column names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// ColumnType returns the type of the named column.
func (s *Schema) ColumnType(name string) (ColumnType, bool) {
	ct, ok := s.types[name]
	return ct, ok
}

// HasColumn returns true if the schema has the named column.
func (s *Schema) HasColumn(name string) bool {
	_, ok := s.types[name]
	return ok
}

// Fingerprint returns a 64-bit digest of the canonical schema encoding.
// Two schemas with equal fingerprints are compared fully before being
// treated as equal.
func (s *Schema) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, name := range s.names {
		_, _ = h.WriteString(name)
		ct := s.types[name]
		binary.LittleEndian.PutUint64(buf[:], uint64(ct.Elem))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(len(ct.Shape)))
		_, _ = h.Write(buf[:])
		for _, d := range ct.Shape {
			binary.LittleEndian.PutUint64(buf[:], uint64(d))
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}

// Equal reports whether two schemas have the same columns, in the same
// order, with the same types.
func (s *Schema) Equal(other *Schema) bool {
	if s == other {
		return true
	}
	if other == nil || len(s.names) != len(other.names) {
		return false
	}
	if s.Fingerprint() != other.Fingerprint() {
		return false
	}
	for i, name := range s.names {
		if other.names[i] != name {
			return false
		}
		if !s.types[name].Equal(other.types[name]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	out := NewSchema()
	for _, name := range s.names {
		out.AddColumn(name, s.types[name])
	}
	return out
}

func (s *Schema) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", name, s.types[name])
	}
	b.WriteByte('}')
	return b.String()
}
