/*
ASTriage: Android SMS triage and acquisition tool

Copyright (c) 2023 Dan O'Day <d@4n68r.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package smstriage

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// extractDirect pulls the variant's store off the device, runs the variant's
// fixed query against a local copy and accumulates every retained row.
// Errors are returned to the selector; a privilege denial from the transport
// stays recognizable through the wrapping.
func (e *Extractor) extractDirect(ctx context.Context, variant SchemaVariant, res *Result) error {
	data, err := e.cmd.CopyFile(ctx, variant.DevicePath())
	if err != nil {
		return fmt.Errorf("copying %s: %w", variant.DevicePath(), err)
	}
	e.log.Debug().Str("path", variant.DevicePath()).Int("size", len(data)).Msg("pulled message store")

	local, err := os.CreateTemp("", "smstriage-*.db")
	if err != nil {
		return fmt.Errorf("creating local store copy: %w", err)
	}
	defer os.Remove(local.Name())
	if _, err := local.Write(data); err != nil {
		local.Close()
		return fmt.Errorf("writing local store copy: %w", err)
	}
	if err := local.Close(); err != nil {
		return fmt.Errorf("writing local store copy: %w", err)
	}

	before := len(res.Records)
	if err := parseStore(ctx, local.Name(), variant, res); err != nil {
		return err
	}
	e.log.Info().Int("count", len(res.Records)-before).Msg("extracted SMS messages containing links")
	return nil
}

// parseStore opens a local copy of a message store read-only, issues the
// variant's query and feeds every row through normalization and the
// retention filter. The connection lives exactly as long as this call.
func parseStore(ctx context.Context, dbPath string, variant SchemaVariant, res *Result) error {
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("opening %s store: %w", variant, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, variant.query())
	if err != nil {
		return fmt.Errorf("querying %s store: %w", variant, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("reading %s store columns: %w", variant, err)
	}

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return fmt.Errorf("scanning %s store row: %w", variant, err)
		}

		msg := normalizeRow(columns, values)
		if Retain(msg.Body) {
			res.Append(msg)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s store rows: %w", variant, err)
	}
	return nil
}
