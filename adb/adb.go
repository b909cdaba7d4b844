// Package adb shells out to the Android Debug Bridge executable and
// classifies its failures so callers can tell privilege problems from
// missing files.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Sentinel errors distinguishing device-side failure classes. Callers test
// with errors.Is.
var (
	ErrInsufficientPrivileges = errors.New("adb: insufficient privileges to access the requested resource")
	ErrNotFound               = errors.New("adb: no such file or directory")
)

// Client runs commands against a device through the adb executable.
type Client struct {
	// Path is the adb executable, looked up on PATH when not absolute.
	Path string

	// Serial selects a device when more than one is attached. Empty means
	// whatever adb picks by default.
	Serial string
}

// NewClient returns a Client for the given adb executable and optional
// device serial. An empty path falls back to "adb" on PATH.
func NewClient(path, serial string) *Client {
	if path == "" {
		path = "adb"
	}
	return &Client{Path: path, Serial: serial}
}

// Shell runs a shell command on the device and returns its stdout. A nonzero
// exit wraps the stderr text into the returned error.
func (c *Client) Shell(ctx context.Context, command string) ([]byte, error) {
	return c.run(ctx, "shell", command)
}

// FileExists reports whether path exists on the device. A missing file is
// (false, nil); a path the shell user may not traverse is (false,
// ErrInsufficientPrivileges). Error text from the device shell lands on
// stdout or stderr depending on the adb version, so both are inspected.
func (c *Client) FileExists(ctx context.Context, path string) (bool, error) {
	out, runErr := c.combined(ctx, "shell", "ls "+path)
	if err := classifyOutput(out); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if runErr != nil {
		return false, fmt.Errorf("adb: checking %s: %w", path, runErr)
	}
	return true, nil
}

// CopyFile streams a device file's raw bytes over exec-out. Privilege and
// missing-file failures map to the package sentinels.
func (c *Client) CopyFile(ctx context.Context, path string) ([]byte, error) {
	out, err := c.run(ctx, "exec-out", "cat "+path)
	if err != nil {
		if clsErr := classifyOutput([]byte(err.Error())); clsErr != nil {
			return nil, clsErr
		}
		return nil, fmt.Errorf("adb: copying %s: %w", path, err)
	}
	// Some device shells report cat errors on stdout. A short all-text
	// result naming a failure is not file content.
	if len(out) < 512 {
		if clsErr := classifyOutput(out); clsErr != nil {
			return nil, clsErr
		}
	}
	return out, nil
}

// run invokes adb with the device selector and returns stdout. Stderr text is
// folded into the error on failure.
func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.deviceArgs(args)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("adb %s: %w: %s", args[0], err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("adb %s: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}

// combined invokes adb and returns interleaved stdout and stderr, for
// commands whose output is inspected rather than parsed.
func (c *Client) combined(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.deviceArgs(args)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("adb %s: %w", args[0], err)
	}
	return out, nil
}

func (c *Client) deviceArgs(args []string) []string {
	if c.Serial == "" {
		return args
	}
	return append([]string{"-s", c.Serial}, args...)
}

// classifyOutput maps device shell error text onto the package sentinels.
// Returns nil when the text carries neither failure marker.
func classifyOutput(out []byte) error {
	text := string(out)
	if strings.Contains(text, "Permission denied") || strings.Contains(text, "Access denied") {
		return ErrInsufficientPrivileges
	}
	if strings.Contains(text, "No such file or directory") {
		return ErrNotFound
	}
	return nil
}
