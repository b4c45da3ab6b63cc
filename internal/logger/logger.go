package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
)

var baseLogger = logrus.New()

// Options controls the process-wide logger configuration.
type Options struct {
	Level      string
	Format     string // "json" or "text"
	FilePath   string // empty means stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init configures the process-wide logger. Safe to call once at startup.
func Init(opts Options) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	baseLogger.SetLevel(level)

	if opts.Format == "json" {
		baseLogger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		baseLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		baseLogger.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}
}

// WithRequestID returns a context whose logger carries the given request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	entry := GetLogger(ctx).WithField("request_id", requestID)
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return context.WithValue(ctx, loggerKey, entry)
}

// WithField returns a context whose logger carries an extra structured field.
func WithField(ctx context.Context, key string, value interface{}) context.Context {
	entry := GetLogger(ctx).WithField(key, value)
	return context.WithValue(ctx, loggerKey, entry)
}

// GetLogger returns the logger bound to the context, or the base logger.
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(loggerKey).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(baseLogger)
}

// GetRequestID returns the request ID bound to the context, if any.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Debugf(format, args...)
}

func Info(ctx context.Context, args ...interface{}) {
	GetLogger(ctx).Info(args...)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Errorf(format, args...)
}
