package utils

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerOptions configures the process logger
type LoggerOptions struct {
	Level      string
	Format     string // json, text
	Output     string // stdout, file, both
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
	AddSource  bool
}

// NewLogger builds a slog logger and the writer behind it. The returned closer
// flushes the rotating file, if any.
func NewLogger(opts LoggerOptions) (*slog.Logger, io.Writer, io.Closer) {
	var (
		writer io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)

	if opts.Output == "file" || opts.Output == "both" {
		rotating := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		}
		closer = rotating
		writer = rotating
		if opts.Output == "both" {
			writer = io.MultiWriter(os.Stdout, rotating)
		}
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLogLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(writer, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	}

	return slog.New(handler), writer, closer
}

// InstallLogger makes logger the process default and routes the std log package to writer
func InstallLogger(logger *slog.Logger, writer io.Writer) {
	slog.SetDefault(logger)
	log.SetOutput(writer)
	log.SetFlags(log.LstdFlags | log.LUTC)
}

func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerFromContext returns the default logger annotated with the request values stored in ctx
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if ctx == nil {
		return logger
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		logger = logger.With(slog.String("request_id", requestID))
	}
	if endpoint, ok := ctx.Value(EndpointKey).(string); ok && endpoint != "" {
		logger = logger.With(slog.String("endpoint", endpoint))
	}
	return logger
}
