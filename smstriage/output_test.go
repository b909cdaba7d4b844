package smstriage

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	res := NewResult()
	res.Append(Message{
		Address:   "+15550001111",
		Timestamp: 1626255000123,
		ISODate:   "2021-07-14 09:30:00.123000",
		Direction: DirectionReceived,
		Body:      "tap https://evil.example/a\nnow",
	})
	res.Append(Message{
		Address:   "+15559998888",
		Timestamp: 1626255060000,
		ISODate:   "2021-07-14 09:31:00.000000",
		Direction: DirectionSent,
		Body:      "mine https://me.example/b",
	})
	return res
}

func TestGenerateMessageOutput_WritesJSONAndTSV(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult()
	require.NoError(t, GenerateMessageOutput(res, dir))

	raw, err := os.ReadFile(filepath.Join(dir, "messages.json"))
	require.NoError(t, err)
	var decoded []Message
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, res.Records, decoded)

	tsv, err := os.ReadFile(filepath.Join(dir, "timeline.tsv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(tsv), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Message Index #\tTimestamp\tModule\tEvent\tData", lines[0])
	assert.Equal(t, "0\t2021-07-14 09:30:00.123000\tSMS\tsms_received\t+15550001111: \"tap https://evil.example/a\\nnow\"", lines[1])
	assert.Equal(t, "1\t2021-07-14 09:31:00.000000\tSMS\tsms_sent\t+15559998888: \"mine https://me.example/b\"", lines[2])
}

func TestGenerateMessageOutput_EmptyResult(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, GenerateMessageOutput(NewResult(), dir))

	raw, err := os.ReadFile(filepath.Join(dir, "messages.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)))

	tsv, err := os.ReadFile(filepath.Join(dir, "timeline.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "Message Index #\tTimestamp\tModule\tEvent\tData\n", string(tsv))
}

func TestGenerateDetectedOutput_EmptyWithoutMatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, GenerateDetectedOutput(sampleResult(), dir))

	raw, err := os.ReadFile(filepath.Join(dir, "detected.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)))
}

func TestGenerateDetectedOutput_WritesDetected(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult()
	res.Detected = append(res.Detected, res.Records[0])
	require.NoError(t, GenerateDetectedOutput(res, dir))

	raw, err := os.ReadFile(filepath.Join(dir, "detected.json"))
	require.NoError(t, err)
	var decoded []Message
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, res.Records[0], decoded[0])
}

func TestTimelineOutput_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewTimelineOutput(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Message Index #\tTimestamp\tModule\tEvent\tData\n", buf.String())
}

func TestGenerateSQLiteOutput_Roundtrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "messages.db")
	res := sampleResult()
	require.NoError(t, GenerateSQLiteOutput(res.Records, dbPath))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT address, timestamp, isodate, direction, body FROM messages ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var got []Message
	for rows.Next() {
		var m Message
		var direction string
		require.NoError(t, rows.Scan(&m.Address, &m.Timestamp, &m.ISODate, &direction, &m.Body))
		m.Direction = Direction(direction)
		got = append(got, m)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, res.Records, got)
}
