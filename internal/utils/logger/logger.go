package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Logger struct {
	serviceName string
}

var (
	INFO_EMOJI    = "ℹ️ "
	SUCCESS_EMOJI = "✅ "
	WARN_EMOJI    = "⚠️ "
	ERROR_EMOJI   = "❌ "
	DEBUG_EMOJI   = "🔍 "
)

var (
	outputMu      sync.RWMutex
	defaultOutput = color.Output
	debugEnabled  = strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug")
)

func New(serviceName string) *Logger {
	return &Logger{
		serviceName: serviceName,
	}
}

// Named returns a child logger whose service name is suffixed with name.
func (l *Logger) Named(name string) *Logger {
	return New(l.serviceName + "." + name)
}

// SetOutput redirects all loggers, mainly so tests can capture lines. A nil writer restores stdout.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	if w == nil {
		w = defaultOutput
	}
	color.Output = w
}

// SetDebug toggles Debug output.
func SetDebug(enabled bool) {
	outputMu.Lock()
	defer outputMu.Unlock()
	debugEnabled = enabled
}

func (l *Logger) formatMessage(level, emoji, msg string) string {
	_, file, line, _ := runtime.Caller(2)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fileName := filepath.Base(file)

	return fmt.Sprintf("%s | %s | %s | %s:%d | %s | %s",
		emoji,
		timestamp,
		level,
		fileName,
		line,
		l.serviceName,
		msg,
	)
}

func emit(fn func(format string, a ...interface{}), line string) {
	outputMu.RLock()
	defer outputMu.RUnlock()
	fn("%s", line)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	emit(color.Cyan, l.formatMessage("INFO", INFO_EMOJI, fmt.Sprintf(msg, args...)))
}

func (l *Logger) Success(msg string, args ...interface{}) {
	emit(color.Green, l.formatMessage("SUCCESS", SUCCESS_EMOJI, fmt.Sprintf(msg, args...)))
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	emit(color.Yellow, l.formatMessage("WARN", WARN_EMOJI, fmt.Sprintf(msg, args...)))
}

// Error logs msg followed by err and returns err wrapped with the formatted msg.
func (l *Logger) Error(msg string, err error, args ...interface{}) error {
	formatted := fmt.Sprintf(msg, args...)
	emit(color.Red, l.formatMessage("ERROR", ERROR_EMOJI, fmt.Sprintf("%s: %v", formatted, err)))
	return fmt.Errorf("%s: %w", formatted, err)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	outputMu.RLock()
	enabled := debugEnabled
	outputMu.RUnlock()
	if !enabled {
		return
	}
	emit(color.Magenta, l.formatMessage("DEBUG", DEBUG_EMOJI, fmt.Sprintf(msg, args...)))
}
