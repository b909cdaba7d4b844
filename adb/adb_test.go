package adb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyOutput_PermissionDenied(t *testing.T) {
	out := []byte("ls: /data/data/com.android.providers.telephony/databases/mmssms.db: Permission denied")
	assert.ErrorIs(t, classifyOutput(out), ErrInsufficientPrivileges)
}

func TestClassifyOutput_AccessDenied(t *testing.T) {
	assert.ErrorIs(t, classifyOutput([]byte("opendir failed, Access denied")), ErrInsufficientPrivileges)
}

func TestClassifyOutput_NoSuchFile(t *testing.T) {
	out := []byte("ls: /data/data/com.google.android.apps.messaging/databases/bugle_db: No such file or directory")
	assert.ErrorIs(t, classifyOutput(out), ErrNotFound)
}

func TestClassifyOutput_CleanOutput(t *testing.T) {
	assert.NoError(t, classifyOutput([]byte("/data/data/com.android.providers.telephony/databases/mmssms.db")))
}

func TestNewClient_DefaultPath(t *testing.T) {
	c := NewClient("", "")
	assert.Equal(t, "adb", c.Path)
	assert.Equal(t, "", c.Serial)
}

func TestDeviceArgs_WithSerial(t *testing.T) {
	c := NewClient("adb", "emulator-5554")
	got := c.deviceArgs([]string{"shell", "ls /sdcard"})
	assert.Equal(t, []string{"-s", "emulator-5554", "shell", "ls /sdcard"}, got)
}

func TestDeviceArgs_WithoutSerial(t *testing.T) {
	c := NewClient("/usr/local/bin/adb", "")
	got := c.deviceArgs([]string{"exec-out", "cat /x"})
	assert.Equal(t, []string{"exec-out", "cat /x"}, got)
}
