package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kobuki-controller/kobuki"
)

func loadTestOptions(t *testing.T, args ...string) (*Options, error) {
	t.Helper()
	return LoadOptions(NewFlagSet("test"), args)
}

func TestLoadOptions_Defaults(t *testing.T) {
	opts, err := loadTestOptions(t)
	require.NoError(t, err)

	assert.Equal(t, "192.168.240.1", opts.IP)
	assert.Equal(t, 5555, opts.Port)
	assert.Equal(t, "script.txt", opts.ScriptFile)
	assert.Equal(t, 115200, opts.BaudRate)
	assert.Equal(t, LogLevelError, opts.LogLevel)
	assert.Equal(t, TransportUDP, opts.Transport)
	assert.Equal(t, kobuki.ChecksumXOR, opts.Checksum)
	assert.Equal(t, uint32(0x0C1), opts.CANFrameID)
	assert.Equal(t, "can0", opts.CANDevice)
	assert.Equal(t, time.Second, opts.StartupPause)
	assert.Equal(t, uint16(6379), opts.RedisServerPort)
	assert.Empty(t, opts.RedisServerAddr)
	assert.Zero(t, opts.MaxFrameRate)
	assert.False(t, opts.DryRun)
}

func TestLoadOptions_Flags(t *testing.T) {
	opts, err := loadTestOptions(t,
		"--ip", "10.0.0.2",
		"--port", "6000",
		"--script", "demo.txt",
		"--dbg", "4",
		"--checksum", "zero",
		"--transport", "CAN",
		"--can_id", "0x123",
		"--max_frame_rate", "20",
		"--startup_pause", "250ms",
		"--dry_run",
	)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2", opts.IP)
	assert.Equal(t, 6000, opts.Port)
	assert.Equal(t, "demo.txt", opts.ScriptFile)
	assert.Equal(t, LogLevelDebug, opts.LogLevel)
	assert.Equal(t, kobuki.ChecksumZero, opts.Checksum)
	assert.Equal(t, TransportCAN, opts.Transport)
	assert.Equal(t, uint32(0x123), opts.CANFrameID)
	assert.Equal(t, 20.0, opts.MaxFrameRate)
	assert.Equal(t, 250*time.Millisecond, opts.StartupPause)
	assert.True(t, opts.DryRun)
}

func TestLoadOptions_Environment(t *testing.T) {
	t.Setenv("KOBUKI_PORT", "7000")
	t.Setenv("KOBUKI_IP", "10.9.9.9")
	t.Setenv("KOBUKI_REDIS_SERVER", "127.0.0.1")

	opts, err := loadTestOptions(t, "--ip", "10.0.0.3")
	require.NoError(t, err)

	assert.Equal(t, 7000, opts.Port)
	assert.Equal(t, "10.0.0.3", opts.IP, "flag wins over env")
	assert.Equal(t, "127.0.0.1", opts.RedisServerAddr)
}

func TestLoadOptions_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kobuki.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"ip: 10.1.1.1\n"+
			"script: from-config.txt\n"+
			"dbg: 3\n"+
			"max_frame_rate: 5\n"), 0o644))

	t.Setenv("KOBUKI_SCRIPT", "from-env.txt")

	opts, err := loadTestOptions(t, "--config", path)
	require.NoError(t, err)

	assert.Equal(t, "10.1.1.1", opts.IP)
	assert.Equal(t, "from-env.txt", opts.ScriptFile, "env wins over config file")
	assert.Equal(t, LogLevelInfo, opts.LogLevel)
	assert.Equal(t, 5.0, opts.MaxFrameRate)
}

func TestLoadOptions_HelpAndVersion(t *testing.T) {
	opts, err := loadTestOptions(t, "--help", "--dbg", "9")
	require.NoError(t, err, "help skips validation")
	assert.True(t, opts.Help)

	opts, err = loadTestOptions(t, "--version")
	require.NoError(t, err)
	assert.True(t, opts.Version)
}

func TestLoadOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"log level too high", []string{"--dbg", "5"}},
		{"negative log level", []string{"--dbg", "-1"}},
		{"port zero", []string{"--port", "0"}},
		{"port too high", []string{"--port", "70000"}},
		{"unknown transport", []string{"--transport", "serial"}},
		{"unknown checksum", []string{"--checksum", "crc"}},
		{"can id not hex", []string{"--can_id", "abc"}},
		{"can id beyond 11 bits", []string{"--can_id", "0x800"}},
		{"negative rate", []string{"--max_frame_rate", "-1"}},
		{"negative startup pause", []string{"--startup_pause", "-1s"}},
		{"redis port", []string{"--redis_port", "70000"}},
		{"empty script", []string{"--script", ""}},
		{"missing config", []string{"--config", "/nonexistent/kobuki.yaml"}},
		{"unknown flag", []string{"--bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadTestOptions(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
