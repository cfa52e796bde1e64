// logging/logger.go

// Package logging builds the zap loggers the library's components
// accept. The engine itself defaults to a no-op logger, so configuring
// logging is entirely optional.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production logger writing to stdout/stderr and, when
// logDirPath is non-empty, to pdp.log/pdp_error.log under that
// directory. The level comes from LOG_LEVEL when set.
func New(logDirPath string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		level, err := zapcore.ParseLevel(logLevel)
		if err == nil {
			config.Level.SetLevel(level)
		}
	}

	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	if logDirPath != "" {
		logFilePath := logDirPath + "/pdp.log"
		if err := ensureFile(logFilePath); err != nil {
			return nil, err
		}
		errorFilePath := logDirPath + "/pdp_error.log"
		if err := ensureFile(errorFilePath); err != nil {
			return nil, err
		}
		config.OutputPaths = append(config.OutputPaths, logFilePath)
		config.ErrorOutputPaths = append(config.ErrorOutputPaths, errorFilePath)
	}

	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.StacktraceKey = "stacktrace"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build()
}

// Nop returns the no-op logger used wherever no logger is configured.
func Nop() *zap.Logger {
	return zap.NewNop()
}

func ensureFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		return file.Close()
	}
	return nil
}
