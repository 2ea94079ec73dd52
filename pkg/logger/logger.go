// Package logger provides the levelled logging system of the bot.
// Entries go to a coloured console, to log files under logs/ and, for
// error levels, to an optional alert sink such as the Telegram admin group.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelCritical LogLevel = iota
	LevelError
	LevelWarn
	LevelSuccess
	LevelInfo
	LevelDebug
	LevelSystem
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelCritical:
		return "CRITICAL"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelSuccess:
		return "SUCCESS"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Color returns the ANSI color code for the log level
func (l LogLevel) Color() string {
	switch l {
	case LevelCritical:
		return "\033[1;31m" // Bold Red
	case LevelError:
		return "\033[31m" // Red
	case LevelWarn:
		return "\033[33m" // Yellow
	case LevelSuccess:
		return "\033[32m" // Green
	case LevelInfo:
		return "\033[36m" // Cyan
	case LevelDebug:
		return "\033[35m" // Magenta
	case LevelSystem:
		return "\033[34m" // Blue
	default:
		return "\033[0m" // Reset
	}
}

// Emoji returns the marker used when the entry is forwarded to a chat
func (l LogLevel) Emoji() string {
	switch l {
	case LevelCritical:
		return "🛑"
	case LevelError:
		return "❌"
	case LevelWarn:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// logrusLevel maps our levels onto logrus ones. Critical never maps to
// Fatal/Panic because those terminate the process.
func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LevelCritical, LevelError:
		return logrus.ErrorLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelDebug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

const (
	colorReset      = "\033[0m"
	timestampFormat = "2006-01-02 15:04:05"
	fieldLevel      = "marvin_level"
	fieldPrefix     = "prefix"
)

// AlertSink receives entries at or above the alert level
type AlertSink func(level LogLevel, prefix, message string)

// Logger is the main logging structure
type Logger struct {
	logrus     *logrus.Logger
	logFile    *os.File
	errorFile  *os.File
	alert      AlertSink
	alertLevel LogLevel
	mu         sync.RWMutex
}

var (
	logger *Logger
	once   sync.Once
)

// Init initializes the global logger instance
func Init(logsDir string) *Logger {
	once.Do(func() {
		logger = NewLogger(logsDir)
	})
	return logger
}

// Get returns the global logger instance
func Get() *Logger {
	once.Do(func() {
		logger = NewLogger(filepath.Join(".", "logs"))
	})
	return logger
}

// NewLogger creates a new Logger writing files under logsDir.
// An empty logsDir disables file output.
func NewLogger(logsDir string) *Logger {
	l := &Logger{
		logrus:     logrus.New(),
		alertLevel: LevelError,
	}

	l.logrus.SetLevel(logrus.DebugLevel)
	l.logrus.SetOutput(os.Stdout)
	l.logrus.SetFormatter(&lineFormatter{colors: true})

	if logsDir == "" {
		return l
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Printf("Error creating logs directory: %v\n", err)
		return l
	}

	var err error
	l.logFile, err = os.OpenFile(filepath.Join(logsDir, "combined.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Error opening combined log file: %v\n", err)
	}

	l.errorFile, err = os.OpenFile(filepath.Join(logsDir, "error.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Error opening error log file: %v\n", err)
	}

	l.logrus.AddHook(&fileHook{combined: l.logFile, errors: l.errorFile})
	return l
}

// SetOutput redirects console output
func (l *Logger) SetOutput(w io.Writer) {
	l.logrus.SetOutput(w)
}

// SetAlertSink installs the sink receiving entries at or above level
func (l *Logger) SetAlertSink(level LogLevel, sink AlertSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alert = sink
	l.alertLevel = level
}

// log is the internal logging function
func (l *Logger) log(level LogLevel, message string, prefix string) {
	l.logrus.WithFields(logrus.Fields{
		fieldLevel:  level,
		fieldPrefix: prefix,
	}).Log(level.logrusLevel(), message)

	l.mu.RLock()
	sink, threshold := l.alert, l.alertLevel
	l.mu.RUnlock()

	if sink != nil && level <= threshold {
		go sink(level, prefix, message)
	}
}

// Close closes the log files
func (l *Logger) Close() {
	if l.logFile != nil {
		l.logFile.Close()
	}
	if l.errorFile != nil {
		l.errorFile.Close()
	}
}

// lineFormatter renders "[ts] [LEVEL] [prefix]: message"
type lineFormatter struct {
	colors bool
}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	level, _ := e.Data[fieldLevel].(LogLevel)
	prefix, _ := e.Data[fieldPrefix].(string)

	var b bytes.Buffer
	if f.colors {
		fmt.Fprintf(&b, "[%s] [%s%s%s] [%s]: %s\n",
			e.Time.Format(timestampFormat), level.Color(), level.String(), colorReset, prefix, e.Message)
	} else {
		fmt.Fprintf(&b, "[%s] [%s] [%s]: %s\n",
			e.Time.Format(timestampFormat), level.String(), prefix, e.Message)
	}
	return b.Bytes(), nil
}

// fileHook mirrors every entry to combined.log and errors to error.log
type fileHook struct {
	combined  io.Writer
	errors    io.Writer
	formatter lineFormatter
	mu        sync.Mutex
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(e *logrus.Entry) error {
	line, err := h.formatter.Format(e)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.combined != nil {
		if _, err := h.combined.Write(line); err != nil {
			return err
		}
	}
	if level, _ := e.Data[fieldLevel].(LogLevel); level <= LevelError && h.errors != nil {
		if _, err := h.errors.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// FormatAlert renders an entry for chat delivery
func FormatAlert(level LogLevel, prefix, message string) string {
	return fmt.Sprintf("%s [%s] %s\n%s\n%s", level.Emoji(), level.String(), prefix, message, time.Now().Format(time.RFC3339))
}

// Logging methods

// Critical logs a critical message
func (l *Logger) Critical(message string, prefix string) {
	l.log(LevelCritical, message, prefix)
}

// Error logs an error message
func (l *Logger) Error(message string, prefix string) {
	l.log(LevelError, message, prefix)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, prefix string) {
	l.log(LevelWarn, message, prefix)
}

// Success logs a success message
func (l *Logger) Success(message string, prefix string) {
	l.log(LevelSuccess, message, prefix)
}

// Info logs an info message
func (l *Logger) Info(message string, prefix string) {
	l.log(LevelInfo, message, prefix)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, prefix string) {
	l.log(LevelDebug, message, prefix)
}

// System logs a system message
func (l *Logger) System(message string, prefix string) {
	l.log(LevelSystem, message, prefix)
}

// Package-level functions for convenience

// Critical logs a critical message using the global logger
func Critical(message string, prefix string) {
	Get().Critical(message, prefix)
}

// Error logs an error message using the global logger
func Error(message string, prefix string) {
	Get().Error(message, prefix)
}

// Warn logs a warning message using the global logger
func Warn(message string, prefix string) {
	Get().Warn(message, prefix)
}

// Success logs a success message using the global logger
func Success(message string, prefix string) {
	Get().Success(message, prefix)
}

// Info logs an info message using the global logger
func Info(message string, prefix string) {
	Get().Info(message, prefix)
}

// Debug logs a debug message using the global logger
func Debug(message string, prefix string) {
	Get().Debug(message, prefix)
}

// System logs a system message using the global logger
func System(message string, prefix string) {
	Get().System(message, prefix)
}
