package hardware

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"line-follower/internal/clock"
	"line-follower/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(nil, logger.LogLevelError)
}

func TestScaleDuty(t *testing.T) {
	assert.Equal(t, 0, ScaleDuty(-5, 1000000))
	assert.Equal(t, 0, ScaleDuty(0, 1000000))
	assert.Equal(t, 1000000, ScaleDuty(MaxDutyValue, 1000000))
	assert.Equal(t, 1000000, ScaleDuty(2000, 1000000))
	assert.Equal(t, 650, ScaleDuty(650, MaxDutyValue))
}

func readAttr(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.TrimSpace(string(b))
}

func TestPwmChannelLifecycle(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "pwmchip0", "pwm2")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, attr := range []string{"period", "duty_cycle", "enable"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, attr), nil, 0o644))
	}

	p, err := OpenPwmChannel(root, 0, 2, 1023)
	require.NoError(t, err)

	assert.Equal(t, "1023", readAttr(t, filepath.Join(dir, "period")))
	assert.Equal(t, "1", readAttr(t, filepath.Join(dir, "enable")))
	assert.Equal(t, "0", readAttr(t, filepath.Join(dir, "duty_cycle")))

	require.NoError(t, p.SetDuty(650))
	assert.Equal(t, "650", readAttr(t, filepath.Join(dir, "duty_cycle")))

	require.NoError(t, p.Close())
	assert.Equal(t, "0", readAttr(t, filepath.Join(dir, "enable")))
}

func TestPwmChannelExportFailure(t *testing.T) {
	_, err := OpenPwmChannel(t.TempDir(), 3, 0, 1000)
	assert.Error(t, err)
}

func TestReadAdcValue(t *testing.T) {
	root := t.TempDir()
	saved := iioRoot
	iioRoot = root
	t.Cleanup(func() { iioRoot = saved })

	dev := filepath.Join(root, "iio:device0")
	require.NoError(t, os.MkdirAll(dev, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "in_voltage1_raw"), []byte("400\n"), 0o644))

	v, err := ReadAdcValue("iio:device0", 1)
	require.NoError(t, err)
	assert.Equal(t, 400, v)

	mm, err := NewAdcRangefinder("iio:device0", 1, 0.25).ReadDistance()
	require.NoError(t, err)
	assert.Equal(t, 100, mm)

	_, err = ReadAdcValue("iio:device0", 7)
	assert.Error(t, err)
}

func TestParseDistanceLine(t *testing.T) {
	for line, want := range map[string]int{"123": 123, " 70mm\r": 70, "d=8": 8} {
		got, err := parseDistanceLine(line)
		require.NoError(t, err, line)
		assert.Equal(t, want, got, line)
	}
	for _, line := range []string{"", "abc", "-4", "99999"} {
		_, err := parseDistanceLine(line)
		assert.Error(t, err, line)
	}
}

func TestSerialRangefinderKeepsLatest(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	pr, pw := io.Pipe()
	r := NewSerialRangefinder(pr, 200*time.Millisecond, clk, testLogger())

	_, err := r.ReadDistance()
	assert.True(t, errors.Is(err, ErrStaleReading), "no reading yet")

	_, err = io.WriteString(pw, "150\ngarbage\n65\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mm, err := r.ReadDistance()
		return err == nil && mm == 65
	}, time.Second, 5*time.Millisecond)

	clk.Advance(time.Second)
	_, err = r.ReadDistance()
	assert.ErrorIs(t, err, ErrStaleReading)

	pw.Close()
	assert.NoError(t, r.Close())
}
