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

// Package smstriage recovers SMS/MMS message history from an Android device
// and normalizes it into timeline-ready records for forensic triage. Messages
// are extracted either directly from the on-device message store (when the
// shell has sufficient privileges) or from an unencrypted, uncompressed
// Android backup of the telephony provider. Only messages containing
// hyperlinks, or with empty bodies, are retained as evidence.
package smstriage

import (
	"strings"
	"time"
)

// ModuleName tags serialized events with the producing module.
const ModuleName = "SMS"

// Direction indicates whether the device owner sent or received a message.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Message is one normalized SMS record, independent of which source schema or
// acquisition path produced it.
type Message struct {
	// Address is the peer phone number or identifier. May be empty when the
	// source store does not record one.
	Address string `json:"address"`

	// Timestamp is the raw device-reported epoch value. Its unit varies by
	// source store; ISODate is the canonical form.
	Timestamp int64 `json:"timestamp"`

	// ISODate is Timestamp rendered as a UTC "YYYY-MM-DD HH:MM:SS.ffffff"
	// string, the canonical timeline key.
	ISODate string `json:"isodate"`

	Direction Direction `json:"direction"`

	// Body is the raw message text. May be empty; empty bodies are retained
	// as a truncation signal.
	Body string `json:"body"`
}

// Event is the serialized timeline form of a Message, consumed by the
// downstream timeline/indicator layer.
type Event struct {
	Timestamp string `json:"timestamp"`
	Module    string `json:"module"`
	Event     string `json:"event"`
	Data      string `json:"data"`
}

// Event serializes the message into its timeline event. Literal newlines in
// the body are escaped so every event stays on one line.
func (m *Message) Event() Event {
	body := strings.ReplaceAll(m.Body, "\n", "\\n")
	return Event{
		Timestamp: m.ISODate,
		Module:    ModuleName,
		Event:     "sms_" + string(m.Direction),
		Data:      m.Address + ": \"" + body + "\"",
	}
}

const isoLayout = "2006-01-02 15:04:05.000000"

// ToISO8601 renders a device-reported epoch value as a UTC
// "YYYY-MM-DD HH:MM:SS.ffffff" string. Source stores disagree on units
// (seconds, milliseconds, microseconds or nanoseconds), so the unit is
// inferred from magnitude; anything below 10^11 is taken as seconds, which
// holds for dates up to the year 5138.
func ToISO8601(epoch int64) string {
	return epochToTime(epoch).Format(isoLayout)
}

func epochToTime(epoch int64) time.Time {
	abs := epoch
	if abs < 0 {
		abs = -abs
	}
	var t time.Time
	switch {
	case abs < 1e11:
		t = time.Unix(epoch, 0)
	case abs < 1e14:
		t = time.UnixMilli(epoch)
	case abs < 1e17:
		t = time.UnixMicro(epoch)
	default:
		t = time.Unix(0, epoch)
	}
	return t.UTC()
}

// directionFromIncoming maps a source "incoming" flag to a Direction. Both
// source schemas emit 1 for incoming messages; any other value means the
// device owner sent it.
func directionFromIncoming(incoming int64) Direction {
	if incoming == 1 {
		return DirectionReceived
	}
	return DirectionSent
}
