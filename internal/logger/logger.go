package logger

import (
	"log"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"vehicledetect/internal/config"
)

const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to rotated files and stdout/stderr.
type Logger struct {
	sugar  *zap.SugaredLogger
	files  map[string]*lumberjack.Logger
	logDir string
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	l := &Logger{
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}
	l.setupCores()
	return l
}

// FromZap wraps an existing zap logger without any files; Directory is
// empty and CleanLogs only warns.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{
		sugar: z.Sugar(),
		files: map[string]*lumberjack.Logger{},
	}
}

// setupCores builds one console core and one file core per level.
func (l *Logger) setupCores() {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	encoder := zapcore.NewConsoleEncoder(encCfg)

	below := func(limit zapcore.Level) zap.LevelEnablerFunc {
		return func(lvl zapcore.Level) bool { return lvl >= zapcore.InfoLevel && lvl < limit }
	}
	exactly := func(want zapcore.Level) zap.LevelEnablerFunc {
		return func(lvl zapcore.Level) bool { return lvl == want }
	}
	atLeast := func(floor zapcore.Level) zap.LevelEnablerFunc {
		return func(lvl zapcore.Level) bool { return lvl >= floor }
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), below(zapcore.ErrorLevel)),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), atLeast(zapcore.ErrorLevel)),
		zapcore.NewCore(encoder, l.openLogFile(InfoFile), exactly(zapcore.InfoLevel)),
		zapcore.NewCore(encoder, l.openLogFile(WarningFile), exactly(zapcore.WarnLevel)),
		zapcore.NewCore(encoder, l.openLogFile(ErrorFile), atLeast(zapcore.ErrorLevel)),
	}

	l.sugar = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// openLogFile returns a rotating writer for a file inside the log directory.
func (l *Logger) openLogFile(filename string) zapcore.WriteSyncer {
	lj := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, filename),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28,
	}
	l.files[filename] = lj
	return zapcore.AddSync(lj)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Directory is where the per-level files live; empty for test loggers.
func (l *Logger) Directory() string {
	return l.logDir
}

// CleanLogs rotates the given log file so the active file starts empty.
func (l *Logger) CleanLogs(fileName string) {
	lj, ok := l.files[fileName]
	if !ok {
		l.Warning("Unknown log file: %s", fileName)
		return
	}
	if err := lj.Rotate(); err != nil {
		l.Error("Error rotating %s: %v", fileName, err)
		return
	}

	l.Info("File content has been cleared: %s", fileName)
}

// Close flushes buffered entries and closes the files.
func (l *Logger) Close() error {
	// Sync on a terminal fails with EINVAL; nothing to report there.
	_ = l.sugar.Sync()

	var errs error
	for _, lj := range l.files {
		errs = multierr.Append(errs, lj.Close())
	}
	return errs
}
