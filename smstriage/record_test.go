package smstriage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToISO8601_Seconds(t *testing.T) {
	assert.Equal(t, "2021-07-14 09:30:00.000000", ToISO8601(1626255000))
}

func TestToISO8601_Milliseconds(t *testing.T) {
	assert.Equal(t, "2021-07-14 09:30:00.123000", ToISO8601(1626255000123))
}

func TestToISO8601_Microseconds(t *testing.T) {
	assert.Equal(t, "2021-07-14 09:30:00.123456", ToISO8601(1626255000123456))
}

func TestToISO8601_Nanoseconds(t *testing.T) {
	assert.Equal(t, "2021-07-14 09:30:00.123456", ToISO8601(1626255000123456789))
}

func TestToISO8601_ZeroEpoch(t *testing.T) {
	assert.Equal(t, "1970-01-01 00:00:00.000000", ToISO8601(0))
}

func TestDirectionFromIncoming(t *testing.T) {
	assert.Equal(t, DirectionReceived, directionFromIncoming(1))
	assert.Equal(t, DirectionSent, directionFromIncoming(2))
	assert.Equal(t, DirectionSent, directionFromIncoming(0))
}

func TestMessageEvent_Shape(t *testing.T) {
	m := Message{
		Address:   "+15550001111",
		Timestamp: 1626255000123,
		ISODate:   "2021-07-14 09:30:00.123000",
		Direction: DirectionReceived,
		Body:      "tap https://evil.example/a",
	}
	ev := m.Event()
	assert.Equal(t, "2021-07-14 09:30:00.123000", ev.Timestamp)
	assert.Equal(t, "SMS", ev.Module)
	assert.Equal(t, "sms_received", ev.Event)
	assert.Equal(t, "+15550001111: \"tap https://evil.example/a\"", ev.Data)
}

func TestMessageEvent_EscapesNewlines(t *testing.T) {
	m := Message{
		Address:   "+15550001111",
		Direction: DirectionSent,
		Body:      "line one\nline two",
	}
	ev := m.Event()
	assert.Equal(t, "sms_sent", ev.Event)
	assert.Equal(t, "+15550001111: \"line one\\nline two\"", ev.Data)
}
