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
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
)

// GenerateMessageOutput writes the run's records to the output directory as
// "messages.json" (full normalized records) and "timeline.tsv" (tab-delimited
// event rows).
func GenerateMessageOutput(res *Result, outputDir string) error {
	encoded, err := json.MarshalIndent(res.Records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding messages.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "messages.json"), encoded, 0o644); err != nil {
		return fmt.Errorf("unable to create file: messages.json: %w", err)
	}

	timelineFile, err := os.Create(filepath.Join(outputDir, "timeline.tsv"))
	if err != nil {
		return fmt.Errorf("unable to create file: timeline.tsv: %w", err)
	}
	defer timelineFile.Close()

	out, err := NewTimelineOutput(timelineFile)
	if err != nil {
		return err
	}
	for i := range res.Records {
		if err := out.Write(&res.Records[i]); err != nil {
			return err
		}
	}
	return nil
}

// GenerateDetectedOutput writes the indicator-matched records to
// "detected.json" in the output directory. Call CheckIndicators first.
func GenerateDetectedOutput(res *Result, outputDir string) error {
	detected := res.Detected
	if detected == nil {
		detected = []Message{}
	}
	encoded, err := json.MarshalIndent(detected, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding detected.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "detected.json"), encoded, 0o644); err != nil {
		return fmt.Errorf("unable to create file: detected.json: %w", err)
	}
	return nil
}

// TimelineOutput streams messages as tab-delimited timeline rows.
type TimelineOutput struct {
	f   io.Writer
	idx int
}

// NewTimelineOutput writes the header row to f and returns a writer for the
// message rows.
func NewTimelineOutput(f io.Writer) (*TimelineOutput, error) {
	headers := []string{
		"Message Index #",
		"Timestamp",
		"Module",
		"Event",
		"Data",
	}
	if _, err := fmt.Fprintln(f, strings.Join(headers, "\t")); err != nil {
		return nil, err
	}
	return &TimelineOutput{f: f}, nil
}

// Write appends one message as a timeline row.
func (o *TimelineOutput) Write(m *Message) error {
	ev := m.Event()
	row := []string{
		strconv.Itoa(o.idx),
		ev.Timestamp,
		ev.Module,
		ev.Event,
		ev.Data,
	}
	o.idx++
	_, err := fmt.Fprintln(o.f, strings.Join(row, "\t"))
	return err
}

// GenerateSQLiteOutput writes records into a SQLite evidence database at
// dbPath, creating the messages table if needed. Inserts run in a single
// transaction.
func GenerateSQLiteOutput(records []Message, dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("opening evidence database: %w", err)
	}
	defer db.Close()

	query := `
		CREATE TABLE IF NOT EXISTS messages (
			id integer primary key autoincrement,
			address text,
			timestamp long,
			isodate text,
			direction text,
			body text
		)
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO messages (address, timestamp, isodate, direction, body)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		m := &records[i]
		if _, err := stmt.Exec(m.Address, m.Timestamp, m.ISODate, string(m.Direction), m.Body); err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}
	return tx.Commit()
}
