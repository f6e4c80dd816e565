// Package logger provides structured logging to console and, optionally, to
// OpenSearch.
package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/sokopay/daraja/infra/opensearch"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelFatal LogLevel = "fatal"
)

// SystemLog represents a structured system log entry
type SystemLog struct {
	Timestamp   time.Time      `json:"timestamp"`
	Level       LogLevel       `json:"level"`
	Message     string         `json:"message"`
	Component   string         `json:"component"`
	Function    string         `json:"function"`
	File        string         `json:"file"`
	Line        int            `json:"line"`
	Shortcode   string         `json:"shortcode,omitempty"`
	Operation   string         `json:"operation,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	Error       string         `json:"error,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	Environment string         `json:"environment"`
	Service     string         `json:"service"`
	Version     string         `json:"version"`
}

// SystemLogger handles structured logging to OpenSearch and console
type SystemLogger struct {
	openSearchLogger *opensearch.Logger
	enableConsole    bool
	enableOpenSearch bool
	minLevel         LogLevel
	service          string
	version          string
	environment      string
}

// SystemLoggerConfig represents configuration for system logger
type SystemLoggerConfig struct {
	EnableConsole    bool
	EnableOpenSearch bool
	MinLevel         LogLevel
	Service          string
	Version          string
	Environment      string
}

// NewSystemLogger creates a new system logger
func NewSystemLogger(openSearchLogger *opensearch.Logger, config SystemLoggerConfig) *SystemLogger {
	return &SystemLogger{
		openSearchLogger: openSearchLogger,
		enableConsole:    config.EnableConsole,
		enableOpenSearch: config.EnableOpenSearch && openSearchLogger != nil,
		minLevel:         config.MinLevel,
		service:          config.Service,
		version:          config.Version,
		environment:      config.Environment,
	}
}

// LogContext holds contextual information for logging
type LogContext struct {
	Shortcode string
	Operation string
	RequestID string
	Fields    map[string]any
}

// Debug logs a debug message
func (sl *SystemLogger) Debug(message string, ctx ...LogContext) {
	sl.log(LevelDebug, message, ctx...)
}

// Info logs an info message
func (sl *SystemLogger) Info(message string, ctx ...LogContext) {
	sl.log(LevelInfo, message, ctx...)
}

// Warn logs a warning message
func (sl *SystemLogger) Warn(message string, ctx ...LogContext) {
	sl.log(LevelWarn, message, ctx...)
}

// Error logs an error message
func (sl *SystemLogger) Error(message string, err error, ctx ...LogContext) {
	logCtx := LogContext{}
	if len(ctx) > 0 {
		logCtx = ctx[0]
	}

	if logCtx.Fields == nil {
		logCtx.Fields = make(map[string]any)
	}

	if err != nil {
		logCtx.Fields["error"] = err.Error()
	}

	sl.log(LevelError, message, logCtx)
}

// Fatal logs a fatal message and exits
func (sl *SystemLogger) Fatal(message string, err error, ctx ...LogContext) {
	sl.Error(message, err, ctx...)
	os.Exit(1)
}

// log is the core logging function
func (sl *SystemLogger) log(level LogLevel, message string, ctx ...LogContext) {
	if !sl.shouldLog(level) {
		return
	}

	// Get caller information
	pc, file, line, ok := runtime.Caller(3)
	if !ok {
		file = "unknown"
		line = 0
	}

	function := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			function = fn.Name()
			if idx := strings.LastIndex(function, "."); idx != -1 {
				function = function[idx+1:]
			}
		}
	}

	component := sl.extractComponent(file)

	logEntry := SystemLog{
		Timestamp:   time.Now().UTC(),
		Level:       level,
		Message:     message,
		Component:   component,
		Function:    function,
		File:        file,
		Line:        line,
		Environment: sl.environment,
		Service:     sl.service,
		Version:     sl.version,
	}

	if len(ctx) > 0 {
		logCtx := ctx[0]
		logEntry.Shortcode = logCtx.Shortcode
		logEntry.Operation = logCtx.Operation
		logEntry.RequestID = logCtx.RequestID
		logEntry.Fields = logCtx.Fields

		if logCtx.Fields != nil {
			if errMsg, ok := logCtx.Fields["error"].(string); ok {
				logEntry.Error = errMsg
			}
		}
	}

	if sl.enableConsole {
		sl.logToConsole(logEntry)
	}

	if sl.enableOpenSearch {
		go sl.logToOpenSearch(logEntry)
	}
}

// shouldLog checks if the log level should be logged
func (sl *SystemLogger) shouldLog(level LogLevel) bool {
	levelOrder := map[LogLevel]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
		LevelFatal: 4,
	}

	return levelOrder[level] >= levelOrder[sl.minLevel]
}

// extractComponent extracts component name from file path
func (sl *SystemLogger) extractComponent(file string) string {
	parts := strings.Split(file, "/")

	for i, part := range parts {
		if part == "daraja" && i+1 < len(parts) {
			if i+2 < len(parts) {
				return parts[i+1] + "/" + parts[i+2]
			}
			return parts[i+1]
		}
	}

	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}

	return "unknown"
}

// logToConsole logs to console with colored output
func (sl *SystemLogger) logToConsole(entry SystemLog) {
	colors := map[LogLevel]string{
		LevelDebug: "\033[36m", // Cyan
		LevelInfo:  "\033[32m", // Green
		LevelWarn:  "\033[33m", // Yellow
		LevelError: "\033[31m", // Red
		LevelFatal: "\033[35m", // Magenta
	}

	reset := "\033[0m"

	timestamp := entry.Timestamp.Format("2006-01-02 15:04:05")

	var contextParts []string
	if entry.Shortcode != "" {
		contextParts = append(contextParts, fmt.Sprintf("shortcode=%s", entry.Shortcode))
	}
	if entry.Operation != "" {
		contextParts = append(contextParts, fmt.Sprintf("op=%s", entry.Operation))
	}
	if entry.RequestID != "" {
		reqID := entry.RequestID
		if len(reqID) > 8 {
			reqID = reqID[:8]
		}
		contextParts = append(contextParts, fmt.Sprintf("req_id=%s", reqID))
	}

	context := ""
	if len(contextParts) > 0 {
		context = " [" + strings.Join(contextParts, " ") + "]"
	}

	errSuffix := ""
	if entry.Error != "" {
		errSuffix = " error=" + entry.Error
	}

	log.Printf("%s%s [%s] %s%s%s%s",
		colors[entry.Level],
		timestamp,
		strings.ToUpper(string(entry.Level)),
		entry.Message,
		context,
		errSuffix,
		reset,
	)
}

// logToOpenSearch ships the entry to the OpenSearch sink.
func (sl *SystemLogger) logToOpenSearch(entry SystemLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gatewayLog := opensearch.GatewayLog{
		Timestamp: entry.Timestamp,
		Level:     string(entry.Level),
		Message:   entry.Message,
		Component: entry.Component,
		Operation: entry.Operation,
		Shortcode: entry.Shortcode,
		RequestID: entry.RequestID,
		Error:     entry.Error,
		Fields:    entry.Fields,
	}

	if err := sl.openSearchLogger.LogGatewayEvent(ctx, gatewayLog); err != nil {
		log.Printf("Failed to ship log to OpenSearch: %v", err)
	}
}

// WithContext creates a context logger bound to a fixed LogContext.
func (sl *SystemLogger) WithContext(ctx LogContext) *ContextLogger {
	return &ContextLogger{logger: sl, ctx: ctx}
}

// ContextLogger carries a fixed LogContext for every entry.
type ContextLogger struct {
	logger *SystemLogger
	ctx    LogContext
}

// Debug logs a debug message with the bound context.
func (cl *ContextLogger) Debug(message string) {
	cl.logger.Debug(message, cl.ctx)
}

// Info logs an info message with the bound context.
func (cl *ContextLogger) Info(message string) {
	cl.logger.Info(message, cl.ctx)
}

// Warn logs a warning message with the bound context.
func (cl *ContextLogger) Warn(message string) {
	cl.logger.Warn(message, cl.ctx)
}

// Error logs an error message with the bound context.
func (cl *ContextLogger) Error(message string, err error) {
	cl.logger.Error(message, err, cl.ctx)
}
