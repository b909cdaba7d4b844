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
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danzek/android-sms-triage/adb"
)

// DeviceCommander is the device-command transport the extractor drives. The
// adb package provides the real implementation; tests substitute fakes.
//
// Implementations must return adb.ErrInsufficientPrivileges (possibly
// wrapped) when the device shell denies access, and adb.ErrNotFound when a
// path does not exist, so the extractor can tell a locked-down device from a
// store that simply is not there.
type DeviceCommander interface {
	// FileExists reports whether path exists on the device.
	FileExists(ctx context.Context, path string) (bool, error)

	// CopyFile returns the raw content of a device file.
	CopyFile(ctx context.Context, path string) ([]byte, error)

	// Shell runs a shell command on the device and returns its output.
	Shell(ctx context.Context, command string) ([]byte, error)
}

// DomainMatcher checks extracted hyperlinks against an indicator list. The
// indicators package provides the real implementation.
type DomainMatcher interface {
	MatchesAnyDomain(links []string) bool
}

// Diagnostic records a non-fatal failure encountered during a run. The run
// itself never aborts on these; they are kept for post-mortem triage.
type Diagnostic struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Result accumulates everything one extraction run produced. Records are
// append-only and preserve source-store iteration order, which is not
// chronological order.
type Result struct {
	// Variant is the schema found by probing, or zero when direct access
	// never located a store.
	Variant SchemaVariant `json:"-"`

	Records     []Message    `json:"records"`
	Detected    []Message    `json:"detected,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// NewResult returns an empty, run-owned accumulator. Every run constructs
// its own; results are never shared between runs.
func NewResult() *Result {
	return &Result{Records: make([]Message, 0)}
}

// Append adds one record to the accumulator.
func (r *Result) Append(m Message) {
	r.Records = append(r.Records, m)
}

func (r *Result) addDiagnostic(stage, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	})
}

// CheckIndicators scans every retained record's links against the matcher
// and collects the matching records into Detected.
func (r *Result) CheckIndicators(matcher DomainMatcher) {
	for _, m := range r.Records {
		links := FindLinks(m.Body)
		if len(links) == 0 {
			continue
		}
		if matcher.MatchesAnyDomain(links) {
			r.Detected = append(r.Detected, m)
		}
	}
}

// Extractor recovers SMS records from an Android device, preferring a direct
// read of the on-device message store and falling back to the Android backup
// flow when the shell lacks the privileges for a direct read.
type Extractor struct {
	cmd DeviceCommander
	log zerolog.Logger
}

func NewExtractor(cmd DeviceCommander, log zerolog.Logger) *Extractor {
	return &Extractor{cmd: cmd, log: log}
}

// Run performs one acquisition. It probes for each known message store in
// fixed priority order and extracts directly from the first one present; a
// privilege denial at any point switches to the backup fallback instead.
// When no store path is present at all, the run ends having taken no action.
//
// Run never fails: every failure is logged and recorded as a diagnostic,
// and whatever records were accumulated before it are returned.
func (e *Extractor) Run(ctx context.Context) *Result {
	res := NewResult()

	fallback := false
probe:
	for _, variant := range schemaProbeOrder {
		path := variant.DevicePath()
		exists, err := e.cmd.FileExists(ctx, path)
		if err != nil {
			if errors.Is(err, adb.ErrInsufficientPrivileges) {
				fallback = true
				break probe
			}
			e.log.Error().Err(err).Str("path", path).Msg("probing message store failed")
			res.addDiagnostic("probe", "probing %s: %v", path, err)
			continue
		}
		if !exists {
			continue
		}

		res.Variant = variant
		e.log.Info().Str("schema", variant.String()).Str("path", path).Msg("found message store")

		if err := e.extractDirect(ctx, variant, res); err != nil {
			if errors.Is(err, adb.ErrInsufficientPrivileges) {
				fallback = true
				break probe
			}
			e.log.Error().Err(err).Str("schema", variant.String()).Msg("direct extraction failed")
			res.addDiagnostic("direct", "extracting %s store: %v", variant, err)
		}
		return res
	}

	if !fallback {
		e.log.Warn().Msg("no known SMS database found on device")
		return res
	}

	e.log.Warn().Msg("insufficient privileges to read SMS database directly, trying Android backup extraction")
	e.extractBackup(ctx, res)
	return res
}
