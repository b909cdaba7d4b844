package smstriage

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zlib"
)

// ErrDecodeFailure marks an archive member whose payload could not be
// inflated or parsed. Decoding stops at the first such member; records from
// earlier members are kept.
var ErrDecodeFailure = errors.New("archive member decode failure")

// smsBackupSuffix selects the tar members carrying SMS payloads. The backup
// agent names them per conversation, always with this suffix.
const smsBackupSuffix = "_sms_backup"

// epochValue absorbs the loose typing of backup JSON timestamps, which appear
// as numbers or as strings depending on the agent version. Null or empty
// decodes to zero.
type epochValue int64

func (v *epochValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*v = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("epoch string %q: %w", s, err)
		}
		*v = epochValue(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = epochValue(n)
	return nil
}

// backupSMS is one message as serialized by the telephony backup agent.
type backupSMS struct {
	Address  string     `json:"address"`
	Date     epochValue `json:"date"`
	DateSent epochValue `json:"date_sent"`
	Body     string     `json:"body"`
}

// ArchiveDecoder walks a backup tar payload and yields the link-bearing
// messages found in its SMS members. Set the On* callbacks to stream results;
// leave them nil to collect into Records instead.
type ArchiveDecoder struct {
	tr *tar.Reader

	// Records accumulates decoded messages when OnMessage is nil.
	Records []Message

	// OnMember, if set, is called with each SMS member name before its
	// payload is decoded. Returning an error aborts the walk.
	OnMember func(name string) error

	// OnMessage, if set, receives each retained message instead of it being
	// appended to Records. Returning an error aborts the walk.
	OnMessage func(m *Message) error
}

// NewArchiveDecoder returns a decoder reading a plain (uncompressed,
// unencrypted) backup tar stream from r.
func NewArchiveDecoder(r io.Reader) *ArchiveDecoder {
	return &ArchiveDecoder{tr: tar.NewReader(r)}
}

// Decode walks the tar stream to completion. Members without the SMS suffix
// are skipped. Each SMS member is zlib-inflated and parsed as a JSON list of
// messages; those carrying links (or with empty bodies) are retained. The
// first member that fails to decode aborts the walk with ErrDecodeFailure,
// keeping everything decoded before it.
func (d *ArchiveDecoder) Decode() error {
	for {
		hdr, err := d.tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar header: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !strings.HasSuffix(hdr.Name, smsBackupSuffix) {
			continue
		}
		if d.OnMember != nil {
			if err := d.OnMember(hdr.Name); err != nil {
				return err
			}
		}
		if err := d.decodeMember(hdr.Name); err != nil {
			return err
		}
	}
}

func (d *ArchiveDecoder) decodeMember(name string) error {
	compressed, err := io.ReadAll(d.tr)
	if err != nil {
		return fmt.Errorf("%w: reading member %s: %w", ErrDecodeFailure, name, err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("%w: opening zlib stream in %s: %w", ErrDecodeFailure, name, err)
	}
	payload, err := io.ReadAll(zr)
	zr.Close()
	if err != nil {
		return fmt.Errorf("%w: inflating %s: %w", ErrDecodeFailure, name, err)
	}

	var messages []backupSMS
	if err := json.Unmarshal(payload, &messages); err != nil {
		return fmt.Errorf("%w: parsing %s: %w", ErrDecodeFailure, name, err)
	}

	for i := range messages {
		m := normalizeBackupMessage(&messages[i])
		if !Retain(m.Body) {
			continue
		}
		if d.OnMessage != nil {
			if err := d.OnMessage(&m); err != nil {
				return err
			}
			continue
		}
		d.Records = append(d.Records, m)
	}
	return nil
}

// normalizeBackupMessage maps one backup JSON record onto the common message
// shape. Backup timestamps are epoch milliseconds; a nonzero date_sent marks
// the message as sent, everything else is received.
func normalizeBackupMessage(raw *backupSMS) Message {
	m := Message{
		Address:   raw.Address,
		Timestamp: int64(raw.Date),
		Direction: DirectionReceived,
		Body:      raw.Body,
	}
	if raw.DateSent != 0 {
		m.Direction = DirectionSent
	}
	if m.Timestamp != 0 {
		m.ISODate = time.UnixMilli(m.Timestamp).UTC().Format(isoLayout)
	}
	return m
}

// decodeArchive feeds a backup tar payload through an ArchiveDecoder wired
// into the run's result.
func (e *Extractor) decodeArchive(payload []byte, res *Result) error {
	dec := NewArchiveDecoder(bytes.NewReader(payload))
	dec.OnMember = func(name string) error {
		e.log.Debug().Str("member", name).Msg("decoding SMS backup member")
		return nil
	}
	dec.OnMessage = func(m *Message) error {
		res.Append(*m)
		return nil
	}
	return dec.Decode()
}
