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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	rowsReadCounter    otelmetric.Int64Counter
	bytesReadCounter   otelmetric.Int64Counter
	filesOpenedCounter otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cosmoworks/catstack/catfile")

	var err error
	rowsReadCounter, err = meter.Int64Counter(
		"catstack.adapter.rows.read",
		otelmetric.WithDescription("Number of rows returned by adapter range reads"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rows.read counter: %w", err))
	}

	bytesReadCounter, err = meter.Int64Counter(
		"catstack.adapter.bytes.read",
		otelmetric.WithDescription("Number of bytes read from backing files"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create bytes.read counter: %w", err))
	}

	filesOpenedCounter, err = meter.Int64Counter(
		"catstack.adapter.files.opened",
		otelmetric.WithDescription("Number of physical files opened by adapter constructors"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create files.opened counter: %w", err))
	}
}

func formatAttr(format string) otelmetric.AddOption {
	return otelmetric.WithAttributes(attribute.String("format", format))
}
