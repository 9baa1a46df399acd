// Package logging provides config-driven categorized file-based logging for
// wolfMIND. Logs are written to .wolfmind/logs/ with separate files per
// category. Logging is controlled by debug_mode in the engine config - when
// false, no logs are written.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot      Category = "boot"      // Boot/initialization
	CategorySession   Category = "session"   // Belief session lifecycle, event batches
	CategoryEnhancer  Category = "enhancer"  // Speech enhancement
	CategoryTrust     Category = "trust"     // Trust scoring
	CategoryBayes     Category = "bayes"     // Identity inference
	CategoryDeception Category = "deception" // Deception detection
	CategoryThinker   Category = "thinker"   // Strategic context building
	CategoryRetrieval Category = "retrieval" // Contradiction / verification queries
	CategoryKernel    Category = "kernel"    // Mangle fact kernel
	CategoryValidator Category = "validator" // Decision validation and retries
	CategorySanitizer Category = "sanitizer" // Belief-table sanitation
	CategoryStore     Category = "store"     // Audit store operations
	CategoryAPI       Category = "api"       // Generation requests / model fallback
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers    = make(map[Category]*Logger)
	loggersMu  sync.RWMutex
	logsDir    string
	debugMode  bool
	categories map[string]bool
	logLevel   int
	configMu   sync.RWMutex
)

// Initialize sets up the logging directory. Should be called once at startup
// with the workspace path and the logging tunables from config.
func Initialize(workspace string, debug bool, level string, enabled map[string]bool) error {
	configMu.Lock()
	debugMode = debug
	categories = enabled
	switch level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	configMu.Unlock()

	if !debug {
		return nil // silent no-op in production mode
	}
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	logsDir = filepath.Join(workspace, ".wolfmind", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== wolfMIND logging initialized ===")
	boot.Info("Logs directory: %s", logsDir)
	boot.Info("Log level: %s", level)
	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return debugMode
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !debugMode {
		return false
	}
	if categories == nil {
		return true // all enabled by default in debug mode
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix keeps rotation trivial.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message (only if level <= debug).
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info).
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn).
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged if logger exists).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first.
// These are no-ops if the category is disabled.
// =============================================================================

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// Session logs to the session category.
func Session(format string, args ...interface{}) { Get(CategorySession).Info(format, args...) }

// SessionDebug logs debug to the session category.
func SessionDebug(format string, args ...interface{}) { Get(CategorySession).Debug(format, args...) }

// SessionWarn logs warning to the session category.
func SessionWarn(format string, args ...interface{}) { Get(CategorySession).Warn(format, args...) }

// Enhancer logs to the enhancer category.
func Enhancer(format string, args ...interface{}) { Get(CategoryEnhancer).Info(format, args...) }

// EnhancerDebug logs debug to the enhancer category.
func EnhancerDebug(format string, args ...interface{}) { Get(CategoryEnhancer).Debug(format, args...) }

// Trust logs to the trust category.
func Trust(format string, args ...interface{}) { Get(CategoryTrust).Info(format, args...) }

// TrustDebug logs debug to the trust category.
func TrustDebug(format string, args ...interface{}) { Get(CategoryTrust).Debug(format, args...) }

// Bayes logs to the bayes category.
func Bayes(format string, args ...interface{}) { Get(CategoryBayes).Info(format, args...) }

// BayesDebug logs debug to the bayes category.
func BayesDebug(format string, args ...interface{}) { Get(CategoryBayes).Debug(format, args...) }

// Deception logs to the deception category.
func Deception(format string, args ...interface{}) { Get(CategoryDeception).Info(format, args...) }

// DeceptionDebug logs debug to the deception category.
func DeceptionDebug(format string, args ...interface{}) {
	Get(CategoryDeception).Debug(format, args...)
}

// Thinker logs to the thinker category.
func Thinker(format string, args ...interface{}) { Get(CategoryThinker).Info(format, args...) }

// Retrieval logs to the retrieval category.
func Retrieval(format string, args ...interface{}) { Get(CategoryRetrieval).Info(format, args...) }

// Kernel logs to the kernel category.
func Kernel(format string, args ...interface{}) { Get(CategoryKernel).Info(format, args...) }

// KernelDebug logs debug to the kernel category.
func KernelDebug(format string, args ...interface{}) { Get(CategoryKernel).Debug(format, args...) }

// KernelWarn logs warning to the kernel category.
func KernelWarn(format string, args ...interface{}) { Get(CategoryKernel).Warn(format, args...) }

// Validator logs to the validator category.
func Validator(format string, args ...interface{}) { Get(CategoryValidator).Info(format, args...) }

// ValidatorWarn logs warning to the validator category.
func ValidatorWarn(format string, args ...interface{}) { Get(CategoryValidator).Warn(format, args...) }

// Sanitizer logs to the sanitizer category.
func Sanitizer(format string, args ...interface{}) { Get(CategorySanitizer).Info(format, args...) }

// Store logs to the store category.
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }

// StoreError logs error to the store category.
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

// API logs to the api category.
func API(format string, args ...interface{}) { Get(CategoryAPI).Info(format, args...) }

// APIWarn logs warning to the api category.
func APIWarn(format string, args ...interface{}) { Get(CategoryAPI).Warn(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}
