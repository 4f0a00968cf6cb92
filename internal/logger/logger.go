package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"distancemeter/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"

	maxLogSizeMB  = 10
	maxLogBackups = 3
)

// Logger provides leveled logging (info/warning/error) to rotated files and stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      map[string]*lumberjack.Logger
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}

	logger.setupLoggers(os.Stdout, os.Stderr)
	return logger
}

// NewWithWriters builds a Logger that writes to the given console writers and
// to rotated files under logDir. Used by the CLI to keep stdout clean.
func NewWithWriters(logDir string, stdout, stderr io.Writer) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}
	logger := &Logger{
		logDir: logDir,
		files:  make(map[string]*lumberjack.Logger),
	}
	logger.setupLoggers(stdout, stderr)
	return logger, nil
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers(stdout, stderr io.Writer) {
	infoWriter := io.MultiWriter(stdout, l.rotatingFile(InfoFile))
	warningWriter := io.MultiWriter(stdout, l.rotatingFile(WarningFile))
	errorWriter := io.MultiWriter(stderr, l.rotatingFile(ErrorFile))

	l.infoLog = log.New(infoWriter, "ℹ️  INFO    ", log.Ldate|log.Ltime|log.Lshortfile)
	l.warningLog = log.New(warningWriter, "⚠️  WARNING ", log.Ldate|log.Ltime|log.Lshortfile)
	l.errorLog = log.New(errorWriter, "❌ ERROR   ", log.Ldate|log.Ltime|log.Lshortfile)
}

func (l *Logger) rotatingFile(name string) *lumberjack.Logger {
	f := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, name),
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		Compress:   true,
	}
	l.files[name] = f
	return f
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Output(2, sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Output(2, sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Output(2, sprintf(format, v...))
}

// Dir returns the directory holding the log files.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.files[fileName]; ok {
		// lumberjack keeps the file open; close it so the truncate is not undone.
		f.Close()
	}

	filePath := filepath.Join(l.logDir, fileName)
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	return file.Close()
}

// Close flushes and closes all log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
