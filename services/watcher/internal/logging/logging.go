package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. level accepts the logrus level names plus
// "off"; dir selects a daily log file sink (<dir>/yyyymmdd.log, UTC days) and
// falls back to the console when it cannot be used.
func New(level, dir string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "02.01. 15:04:05.000",
	})

	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "", "info":
		logger.SetLevel(logrus.InfoLevel)
	case "off", "none":
		logger.SetOutput(io.Discard)
		logger.SetLevel(logrus.PanicLevel)
		return logger, nil
	default:
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		logger.SetLevel(lvl)
	}

	if dir == "" {
		return logger, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.WithError(err).Warn("log directory unusable, logging to console")
		return logger, nil
	}
	w, err := newDailyWriter(dir, rotatelogs.UTC)
	if err != nil {
		logger.WithError(err).Warn("log file unusable, logging to console")
		return logger, nil
	}
	logger.SetOutput(w)
	return logger, nil
}

// Close releases the log file behind l; console loggers are left alone.
func Close(l *logrus.Logger) error {
	if w, ok := l.Out.(*rotatelogs.RotateLogs); ok {
		return w.Close()
	}
	return nil
}

// Files are never purged.
func newDailyWriter(dir string, clock rotatelogs.Clock) (*rotatelogs.RotateLogs, error) {
	return rotatelogs.New(
		filepath.Join(dir, "%Y%m%d.log"),
		rotatelogs.WithClock(clock),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(-1),
	)
}
