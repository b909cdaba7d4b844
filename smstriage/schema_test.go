package smstriage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaVariant_DevicePaths(t *testing.T) {
	assert.Equal(t, "/data/data/com.google.android.apps.messaging/databases/bugle_db",
		SchemaChatApp.DevicePath())
	assert.Equal(t, "/data/data/com.android.providers.telephony/databases/mmssms.db",
		SchemaLegacyTelephony.DevicePath())
}

func TestSchemaProbeOrder_ChatAppFirst(t *testing.T) {
	assert.Equal(t, []SchemaVariant{SchemaChatApp, SchemaLegacyTelephony}, schemaProbeOrder)
}

func TestNormalizeRow_IncomingRow(t *testing.T) {
	columns := []string{"address", "timestamp", "incoming", "body"}
	values := []any{"+15550001111", int64(1626255000123), int64(1), "tap https://evil.example/a"}

	m := normalizeRow(columns, values)
	assert.Equal(t, "+15550001111", m.Address)
	assert.Equal(t, int64(1626255000123), m.Timestamp)
	assert.Equal(t, "2021-07-14 09:30:00.123000", m.ISODate)
	assert.Equal(t, DirectionReceived, m.Direction)
	assert.Equal(t, "tap https://evil.example/a", m.Body)
}

func TestNormalizeRow_OutgoingRow(t *testing.T) {
	columns := []string{"address", "timestamp", "incoming", "body"}
	values := []any{"+15550001111", int64(1626255000), int64(2), "on my way"}

	m := normalizeRow(columns, values)
	assert.Equal(t, DirectionSent, m.Direction)
	assert.Equal(t, "2021-07-14 09:30:00.000000", m.ISODate)
}

func TestNormalizeRow_DriverByteSlices(t *testing.T) {
	columns := []string{"address", "timestamp", "incoming", "body"}
	values := []any{[]byte("+15550001111"), []byte("1626255000"), int64(1), []byte("www.evil.example")}

	m := normalizeRow(columns, values)
	assert.Equal(t, "+15550001111", m.Address)
	assert.Equal(t, int64(1626255000), m.Timestamp)
	assert.Equal(t, "www.evil.example", m.Body)
}

func TestNormalizeRow_NullColumns(t *testing.T) {
	columns := []string{"address", "timestamp", "incoming", "body"}
	values := []any{nil, nil, nil, nil}

	m := normalizeRow(columns, values)
	assert.Equal(t, "", m.Address)
	assert.Equal(t, int64(0), m.Timestamp)
	assert.Equal(t, DirectionSent, m.Direction)
	assert.Equal(t, "", m.Body)
}

func TestNormalizeRow_Deterministic(t *testing.T) {
	columns := []string{"address", "timestamp", "incoming", "body"}
	values := []any{"+15550001111", int64(1626255000123), int64(1), "tap https://evil.example/a"}

	first := normalizeRow(columns, values)
	second := normalizeRow(columns, values)
	assert.Equal(t, first, second)
}

func TestCoerceInt64_Forms(t *testing.T) {
	assert.Equal(t, int64(7), coerceInt64(int64(7)))
	assert.Equal(t, int64(7), coerceInt64(7))
	assert.Equal(t, int64(7), coerceInt64(7.0))
	assert.Equal(t, int64(7), coerceInt64("7"))
	assert.Equal(t, int64(7), coerceInt64([]byte("7")))
	assert.Equal(t, int64(1), coerceInt64(true))
	assert.Equal(t, int64(0), coerceInt64(nil))
	assert.Equal(t, int64(0), coerceInt64("junk"))
}
