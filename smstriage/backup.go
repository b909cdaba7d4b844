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
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors classifying why a backup stream was rejected.
var (
	// ErrMalformedContainer marks a stream that is structurally not an
	// Android backup: wrong magic or a truncated header.
	ErrMalformedContainer = errors.New("malformed backup container")

	// ErrUnsupportedContainer marks a well-formed backup this tool cannot
	// parse: encrypted or compressed streams are out of scope.
	ErrUnsupportedContainer = errors.New("unsupported backup container")
)

// backupMagic is the fixed ASCII literal opening every Android backup stream.
const backupMagic = "ANDROID BACKUP"

// backupCommand triggers an on-device backup of the telephony package. The
// -nocompress flag disables the non-standard Java deflater framing, leaving a
// plain tar payload, and base64 keeps the bytes intact across the shell
// transport. The device shows an interactive confirmation prompt; the
// operator must accept it without setting an encryption password.
const backupCommand = "/system/bin/bu backup -nocompress com.android.providers.telephony | base64"

// BackupContainer is the decoded header of an Android backup stream plus its
// embedded tar payload. It is a one-shot parse result.
type BackupContainer struct {
	MagicHeader  string
	Version      string
	IsCompressed bool
	Encryption   string
	Payload      []byte
}

// DecodeBackupContainer validates a raw (already base64-decoded) backup
// stream and splits off its tar payload. Checks run in header order and the
// first failure rejects the whole stream; there is no partial recovery on
// this hand-rolled framing.
func DecodeBackupContainer(raw []byte) (*BackupContainer, error) {
	if !bytes.HasPrefix(raw, []byte(backupMagic)) {
		return nil, fmt.Errorf("%w: no valid backup data found", ErrMalformedContainer)
	}

	parts := bytes.SplitN(raw, []byte("\n"), 5)
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: truncated header, got %d of 5 fields", ErrMalformedContainer, len(parts))
	}

	version := string(parts[1])
	compressedField := string(parts[2])
	encryption := string(parts[3])

	compressed, err := strconv.Atoi(compressedField)
	if err != nil {
		return nil, fmt.Errorf("%w: compression flag %q is not an integer", ErrMalformedContainer, compressedField)
	}
	if encryption != "none" || compressed != 0 {
		return nil, fmt.Errorf("%w: encrypted or compressed backups cannot be parsed [version: %s, encryption: %s, compression: %s]",
			ErrUnsupportedContainer, version, encryption, compressedField)
	}

	return &BackupContainer{
		MagicHeader:  string(parts[0]),
		Version:      version,
		IsCompressed: compressed != 0,
		Encryption:   encryption,
		Payload:      parts[4],
	}, nil
}

// extractBackup runs the backup fallback end to end: trigger the on-device
// backup, decode the transport base64, validate the container and hand the
// tar payload to the archive decoder. Every failure is terminal for this
// path but never for the run; whatever was accumulated stays.
func (e *Extractor) extractBackup(ctx context.Context, res *Result) {
	e.log.Warn().Msg("please check the device and accept the Android backup prompt; do NOT set an encryption password \a")

	output, err := e.cmd.Shell(ctx, backupCommand)
	if err != nil {
		e.log.Error().Err(err).Msg("running Android backup command failed")
		res.addDiagnostic("backup", "running backup command: %v", err)
		return
	}

	raw, err := DecodeTransportBase64(output)
	if err != nil {
		e.log.Error().Err(err).Int("size", len(output)).Msg("backup output is not valid base64")
		res.addDiagnostic("backup", "decoding backup transport base64: %v", err)
		return
	}

	container, err := DecodeBackupContainer(raw)
	if err != nil {
		e.log.Error().Err(err).Int("size", len(raw)).Msg("extracting SMS via Android backup failed")
		res.addDiagnostic("backup", "decoding backup container: %v", err)
		return
	}
	e.log.Debug().
		Str("version", container.Version).
		Str("encryption", container.Encryption).
		Int("payload_size", len(container.Payload)).
		Msg("decoded backup container")

	before := len(res.Records)
	if err := e.decodeArchive(container.Payload, res); err != nil {
		e.log.Error().Err(err).Msg("decoding backup archive failed")
		res.addDiagnostic("archive", "decoding backup archive: %v", err)
		return
	}
	e.log.Info().Int("count", len(res.Records)-before).Msg("extracted SMS messages containing links")
}

// DecodeTransportBase64 undoes the base64 framing applied when a backup is
// piped through the device shell. The shell wraps base64 output in lines, so
// all whitespace is stripped before decoding.
func DecodeTransportBase64(output []byte) ([]byte, error) {
	compact := bytes.Join(bytes.Fields(output), nil)
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(compact)))
	n, err := base64.StdEncoding.Decode(raw, compact)
	if err != nil {
		return nil, err
	}
	return raw[:n], nil
}
