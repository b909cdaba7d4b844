package smstriage

import (
	"fmt"
	"strconv"
	"strings"
)

// SchemaVariant identifies which known on-device message store layout is
// present. The variant is determined once per run by probing device paths in
// a fixed order (chat app first) and owns its device path, query text and
// incoming-flag rule.
type SchemaVariant int

const (
	// SchemaChatApp is the Google Messages (bugle) store: a normalized
	// conversation/participant/message join.
	SchemaChatApp SchemaVariant = iota + 1

	// SchemaLegacyTelephony is the stock telephony provider store: a flat
	// message table.
	SchemaLegacyTelephony
)

const (
	chatAppStorePath         = "/data/data/com.google.android.apps.messaging/databases/bugle_db"
	legacyTelephonyStorePath = "/data/data/com.android.providers.telephony/databases/mmssms.db"
)

// chatAppQuery flattens the bugle conversation join into per-message rows.
// The incoming flag is 1 when the sender participant is not matched to any
// contact (the synthetic contact_id=-1 set), which marks a message from an
// outside peer.
const chatAppQuery = `
SELECT
    ppl.normalized_destination AS address,
    p.timestamp AS timestamp,
    CASE WHEN m.sender_id IN
        (SELECT _id FROM participants WHERE contact_id=-1)
    THEN 1 ELSE 2 END incoming,
    p.text AS body
FROM messages m, conversations c, parts p,
        participants ppl, conversation_participants cp
WHERE (m.conversation_id = c._id)
    AND (m._id = p.message_id)
    AND (cp.conversation_id = c._id)
    AND (cp.participant_id = ppl._id);
`

// legacyTelephonyQuery reads the flat sms table. The type column is 1 for
// messages in the inbox.
const legacyTelephonyQuery = `
SELECT
    address AS address,
    date_sent AS timestamp,
    type AS incoming,
    body AS body
FROM sms;
`

// schemaProbeOrder is the fixed probe priority: the chat app store is checked
// before the legacy telephony store.
var schemaProbeOrder = []SchemaVariant{SchemaChatApp, SchemaLegacyTelephony}

func (v SchemaVariant) String() string {
	switch v {
	case SchemaChatApp:
		return "chatapp"
	case SchemaLegacyTelephony:
		return "legacy-telephony"
	default:
		return fmt.Sprintf("SchemaVariant(%d)", int(v))
	}
}

// DevicePath is the store's package-data path on the device.
func (v SchemaVariant) DevicePath() string {
	switch v {
	case SchemaChatApp:
		return chatAppStorePath
	case SchemaLegacyTelephony:
		return legacyTelephonyStorePath
	default:
		return ""
	}
}

func (v SchemaVariant) query() string {
	switch v {
	case SchemaChatApp:
		return chatAppQuery
	case SchemaLegacyTelephony:
		return legacyTelephonyQuery
	default:
		return ""
	}
}

// normalizeRow maps one result-set row to a Message. Both schema queries
// alias their columns to the same four names, so a single mapper serves both
// variants; the values are coerced from whatever loose types the driver
// produced.
func normalizeRow(columns []string, values []any) Message {
	fields := make(map[string]any, len(columns))
	for i, name := range columns {
		if i < len(values) {
			fields[name] = values[i]
		}
	}

	timestamp := coerceInt64(fields["timestamp"])
	return Message{
		Address:   coerceString(fields["address"]),
		Timestamp: timestamp,
		ISODate:   ToISO8601(timestamp),
		Direction: directionFromIncoming(coerceInt64(fields["incoming"])),
		Body:      coerceString(fields["body"]),
	}
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func coerceInt64(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case []byte:
		return parseInt64(string(t))
	case string:
		return parseInt64(t)
	default:
		return 0
	}
}

func parseInt64(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
