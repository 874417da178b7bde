package logging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold is the duration above which GORM queries are logged as
// warnings.
const SlowQueryThreshold = 200 * time.Millisecond

// GormLogger routes GORM's log output through zerolog.
type GormLogger struct {
	log   zerolog.Logger
	level gormlogger.LogLevel
}

// NewGormLogger returns a GORM logger writing to log under the "gorm"
// component.
func NewGormLogger(log zerolog.Logger) *GormLogger {
	return &GormLogger{
		log:   log.With().Str("component", "gorm").Logger(),
		level: gormlogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.Warn().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case elapsed > SlowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
	}
}

// BadgerLogger implements badger.Logger on top of zerolog.
type BadgerLogger struct {
	log zerolog.Logger
}

// NewBadgerLogger returns a badger logger. Badger's info chatter is logged at
// debug level.
func NewBadgerLogger(log zerolog.Logger) *BadgerLogger {
	return &BadgerLogger{log: log.With().Str("component", "badger").Logger()}
}

func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msg(trimLine(format, args...))
}

func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msg(trimLine(format, args...))
}

func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msg(trimLine(format, args...))
}

func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msg(trimLine(format, args...))
}

func trimLine(format string, args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
