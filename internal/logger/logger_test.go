package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewLevels(t *testing.T) {
	cases := map[string]zerolog.Level{
		"DEBUG": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"":      zerolog.InfoLevel,
		"bogus": zerolog.InfoLevel,
	}
	for in, want := range cases {
		log := New(in, "json", &bytes.Buffer{})
		assert.Equal(t, want, log.GetLevel(), "level %q", in)
	}
}

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf)
	log.Info().Str("path", "/community").Msg("request")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request", line["message"])
	assert.Equal(t, "/community", line["path"])
	assert.Contains(t, line, "time")
}

func TestNewConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "console", &buf)
	log.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestGormTrace(t *testing.T) {
	var buf bytes.Buffer
	g := NewGorm(New("debug", "json", &buf))

	g.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	assert.Contains(t, buf.String(), "SELECT 1")

	buf.Reset()
	g.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM users", 0
	}, gormlogger.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "query failed")

	buf.Reset()
	g.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT", 0
	}, errors.New("boom"))
	assert.Contains(t, buf.String(), "query failed")
}

func TestGormSilent(t *testing.T) {
	var buf bytes.Buffer
	g := NewGorm(New("debug", "json", &buf)).LogMode(gormlogger.Silent)

	g.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	assert.Empty(t, buf.String())
}
