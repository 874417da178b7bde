package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMakeWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logData, err := New().FromWriter(&buf).Level("debug").Make()
	require.NoError(t, err)

	logData.Logger.Debug().Str("key", "value").Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "value", line["key"])
	assert.Equal(t, "debug", line["level"])
	assert.Contains(t, line, "time")
	assert.NoError(t, logData.Close())
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logData, err := New().FromWriter(&buf).Level("warn").Make()
	require.NoError(t, err)

	logData.Logger.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	logData.Logger.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logData, err := New().FromWriter(&buf).Level("loud").Make()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logData.Logger.GetLevel())
}

func TestFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quill.log")
	logData, err := New().FromPath(path).Make()
	require.NoError(t, err)

	logData.Logger.Info().Msg("to file")
	require.NoError(t, logData.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logData, err := New().FromWriter(&buf).Console(true).Make()
	require.NoError(t, err)

	logData.Logger.Info().Msg("readable")
	assert.Contains(t, buf.String(), "readable")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestGormLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), sql, errors.New("boom"))
	assert.Contains(t, buf.String(), "query failed")
	assert.Contains(t, buf.String(), "SELECT 1")

	buf.Reset()
	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(ctx, time.Now(), sql, errors.New("boom"))
	silent.Error(ctx, "nope %d", 1)
	assert.Empty(t, buf.String())

	l.Warn(ctx, "careful %s", "now")
	assert.Contains(t, buf.String(), "careful now")
}

func TestBadgerLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewBadgerLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	l.Infof("compaction %d\n", 3)
	assert.Empty(t, buf.String())

	l.Errorf("disk %s\n", "full")
	assert.Contains(t, buf.String(), `"message":"disk full"`)
	assert.Contains(t, buf.String(), `"component":"badger"`)
}
