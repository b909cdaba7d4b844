package smstriage

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBackupStream(payload []byte) []byte {
	return append([]byte("ANDROID BACKUP\n5\n0\nnone\n"), payload...)
}

func TestDecodeBackupContainer_Valid(t *testing.T) {
	payload := []byte("TAR\nDATA\nWITH\nNEWLINES")
	c, err := DecodeBackupContainer(validBackupStream(payload))
	require.NoError(t, err)
	assert.Equal(t, "ANDROID BACKUP", c.MagicHeader)
	assert.Equal(t, "5", c.Version)
	assert.False(t, c.IsCompressed)
	assert.Equal(t, "none", c.Encryption)
	assert.Equal(t, payload, c.Payload)
}

func TestDecodeBackupContainer_NotABackup(t *testing.T) {
	_, err := DecodeBackupContainer([]byte("adb: error: device offline\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedContainer)
	assert.Contains(t, err.Error(), "no valid backup data found")
}

func TestDecodeBackupContainer_TruncatedHeader(t *testing.T) {
	_, err := DecodeBackupContainer([]byte("ANDROID BACKUP\n5\n0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedContainer)
}

func TestDecodeBackupContainer_BadCompressionFlag(t *testing.T) {
	_, err := DecodeBackupContainer([]byte("ANDROID BACKUP\n5\nmaybe\nnone\npayload"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedContainer)
}

func TestDecodeBackupContainer_EncryptedRejected(t *testing.T) {
	_, err := DecodeBackupContainer([]byte("ANDROID BACKUP\n5\n0\nAES-256\npayload"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedContainer)
	assert.Contains(t, err.Error(), "AES-256")
	assert.Contains(t, err.Error(), "version: 5")
}

func TestDecodeBackupContainer_CompressedRejected(t *testing.T) {
	_, err := DecodeBackupContainer([]byte("ANDROID BACKUP\n5\n1\nnone\npayload"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedContainer)
}

func TestDecodeBackupContainer_RejectIgnoresPayload(t *testing.T) {
	_, err1 := DecodeBackupContainer([]byte("ANDROID BACKUP\n5\n1\nnone\naaaa"))
	_, err2 := DecodeBackupContainer([]byte("ANDROID BACKUP\n5\n1\nnone\nbbbb"))
	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, err1.Error(), err2.Error())
}

func TestDecodeTransportBase64_StripsLineWrapping(t *testing.T) {
	data := []byte("hello backup transport")
	enc := base64.StdEncoding.EncodeToString(data)
	wrapped := enc[:8] + "\n" + enc[8:16] + "\r\n " + enc[16:] + "\n"

	got, err := DecodeTransportBase64([]byte(wrapped))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecodeTransportBase64_RejectsGarbage(t *testing.T) {
	_, err := DecodeTransportBase64([]byte("!!! not base64 !!!"))
	assert.Error(t, err)
}
