package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config defines the configuration options for the logger
type Config struct {
	// LogLevel sets the minimum enabled logging level. Valid levels are
	// "debug", "info", "warning" and "error".
	LogLevel string

	// LogFile is the path of the rotated log file. Empty disables file output.
	LogFile string

	// LogFileSize is the maximum size in megabytes of the log file before it gets
	// rotated. It defaults to 10 megabytes.
	LogFileSize int

	// LogFileCount is the maximum number of old log files to retain.
	// The default is 5.
	LogFileCount uint8

	// LogCompress determines if the rotated log files should be compressed
	// using gzip. The default is false.
	LogCompress bool

	// LogColorize enables output with colors
	LogColorize bool

	// TimeFormat sets the format for timestamp in logs. Valid formats are
	// "rfc3339", "iso8601", etc. The default is RFC3339.
	TimeFormat string

	// LogToFileOnly disables logging to stdout.
	LogToFileOnly bool
}

const (
	StrDebug   = "debug"
	StrInfo    = "info"
	StrWarn    = "warn"
	StrError   = "error"
	StrFatal   = "fatal"
	StrTable   = "table"
	StrRow     = "row"
	StrField   = "field"
	StrCatalog = "catalog"
	StrQuery   = "query"
	StrUser    = "user"
	StrPath    = "path"

	// StatusError is the JSON key used for error responses.
	StatusError = "error"
)

var (
	log        = zerolog.New(os.Stdout).With().Timestamp().Logger()
	timeFormat = time.RFC3339Nano
)

// InitLogger initializes the global logger based on the provided Config.
// It sets the log level, output format and rotation options.
func InitLogger(config Config) {
	if config.LogFileSize == 0 {
		config.LogFileSize = 10
	}
	if config.LogFileCount == 0 {
		config.LogFileCount = 5
	}
	switch config.TimeFormat {
	case "rfc3339", "":
		timeFormat = time.RFC3339Nano
	case "iso8601":
		timeFormat = "2006-01-02T15:04:05.000Z0700"
	case "rfc1123":
		timeFormat = time.RFC1123
	default:
		timeFormat = config.TimeFormat
	}
	zerolog.TimeFieldFormat = timeFormat

	var dbug bool
	level := zerolog.InfoLevel
	switch {
	case strings.EqualFold(config.LogLevel, StrDebug):
		level = zerolog.DebugLevel
		dbug = true
	case strings.EqualFold(config.LogLevel, "warning"), strings.EqualFold(config.LogLevel, StrWarn):
		level = zerolog.WarnLevel
	case strings.EqualFold(config.LogLevel, StrError):
		level = zerolog.ErrorLevel
	}

	var writers []io.Writer
	if !config.LogToFileOnly || config.LogFile == "" {
		if config.LogColorize {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat})
		} else {
			writers = append(writers, os.Stdout)
		}
	}
	if config.LogFile != "" {
		_ = os.MkdirAll(filepath.Dir(config.LogFile), 0o755)
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    config.LogFileSize, // megabytes
			MaxBackups: int(config.LogFileCount),
			MaxAge:     28, //days
			Compress:   config.LogCompress,
		})
	}

	logctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp()
	if dbug {
		log = logctx.Caller().Logger()
	} else {
		log = logctx.Logger()
	}
}

// SetOutput replaces the logger output. Used by tests to capture log lines.
func SetOutput(w io.Writer) {
	log = zerolog.New(w).With().Timestamp().Logger()
}

// Logtype returns a log event for the given level name. skip adds caller frames
// to skip when the caller is reported.
func Logtype(typev string, skip int) *zerolog.Event {
	var logv *zerolog.Event
	switch typev {
	case StrDebug:
		logv = log.Debug()
	case StrError:
		logv = log.Error()
	case StrFatal:
		logv = log.Fatal()
	case StrWarn:
		logv = log.Warn()
	default:
		logv = log.Info()
	}
	if skip > 0 {
		logv = logv.CallerSkipFrame(skip)
	}
	return logv
}

// LogDynamicany logs a message with dynamic fields. fields is a variadic list
// of key-value pairs; an error value is attached without a key.
func LogDynamicany(typev string, msg string, fields ...any) {
	logv := Logtype(typev, 1)

	var n string
	for i := range fields {
		switch tt := fields[i].(type) {
		case error:
			logv.Err(tt)
			n = ""
		case string:
			if n == "" {
				n = tt
			} else {
				logv.Str(n, tt)
				n = ""
			}
		case int:
			if n != "" {
				logv.Int(n, tt)
				n = ""
			}
		case int64:
			if n != "" {
				logv.Int64(n, tt)
				n = ""
			}
		case bool:
			if n != "" {
				logv.Bool(n, tt)
				n = ""
			}
		case time.Duration:
			if n != "" {
				logv.Dur(n, tt)
				n = ""
			}
		case []string:
			if n != "" {
				logv.Strs(n, tt)
				n = ""
			}
		default:
			if n != "" {
				logv.Any(n, tt)
				n = ""
			}
		}
	}
	logv.Msg(msg)
}

// LogDynamicanyErr logs msg with err attached.
func LogDynamicanyErr(typev string, msg string, err error) {
	Logtype(typev, 1).Err(err).Msg(msg)
}

// GetLogger returns the global zerolog logger instance.
func GetLogger() *zerolog.Logger {
	return &log
}
