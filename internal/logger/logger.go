package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the application-wide logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Options configures the global logger
type Options struct {
	Level  string // trace|debug|info|warn|error
	Format string // text|json
	File   string // optional file that receives a copy of stdout output
}

// Init configures the global logger. The returned closer releases the log file, if any.
func Init(opts Options) (io.Closer, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if opts.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		l.SetOutput(io.MultiWriter(os.Stdout, file))
		closer = file
	} else {
		l.SetOutput(os.Stdout)
	}

	Log = l
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
