package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "FATAL", FatalLevel.String())
	assert.Equal(t, "LEVEL(99)", Level(99).String())
}

func TestLoggerFiltersBelowItsLevel(t *testing.T) {
	logger := New(nil, InfoLevel)
	assert.Nil(t, logger.Debug())
	require.NotNil(t, logger.Info())
	require.NotNil(t, logger.Warn())
	require.NotNil(t, logger.Error())
	require.NotNil(t, logger.Fatal())

	logger.SetLevel(DebugLevel)
	assert.NotNil(t, logger.Debug())
}

func TestNilEventAbsorbsCalls(t *testing.T) {
	var e *Event
	assert.NotPanics(t, func() {
		e.Msg("should not panic")
		e.Msgf("should not %s", "panic")
		e.Err(errors.New("boom"))
	})
}

func TestMsgWritesLevelAndMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, DebugLevel)

	logger.Debug().Msg("test message")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "test message")
}

func TestMsgfFormatsVerbs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, DebugLevel)

	logger.Info().Msgf("%s connected, %d bytes", "client", 42)
	assert.Contains(t, buf.String(), "client connected, 42 bytes")
}

func TestErrIsAppendedAfterMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, DebugLevel)

	logger.Error().Err(errors.New("boom")).Msg("write failed")
	assert.Contains(t, buf.String(), "write failed: boom")
}

func TestDefaultLoggerLevelFiltering(t *testing.T) {
	originalWriter := defaultLogger.writer
	originalLevel := defaultLogger.level
	defer func() {
		defaultLogger.writer = originalWriter
		defaultLogger.level = originalLevel
	}()

	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetLevel(ErrorLevel)

	Debug().Msg("should not appear")
	Info().Msg("should not appear")
	assert.Empty(t, buf.String())

	Error().Msg("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestAppendInt(t *testing.T) {
	cases := map[int64]string{
		0:                    "0",
		123:                  "123",
		-123:                 "-123",
		9223372036854775807:  "9223372036854775807",
		-9223372036854775807: "-9223372036854775807",
	}
	for n, want := range cases {
		buf := strconvAppendInt(make([]byte, 0, 32), n)
		assert.Equal(t, want, string(buf))
	}
}
