// Package errors provides the error taxonomy of the bot and its anti-crash handler.
// The handler counts errors in a rolling interval and shuts the bot down when
// too many happen in a row.
package errors

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/logger"
)

// ReportFunc delivers a crash report to the operators (usually the admin group)
type ReportFunc func(title, message string)

// ErrorHandler manages error counting and reporting
type ErrorHandler struct {
	errorCount    int32
	report        ReportFunc
	stopChan      chan struct{}
	stopOnce      sync.Once
	shutdownFunc  func()
	exitFunc      func(code int)
	maxErrors     int32
	resetInterval time.Duration
	checkInterval time.Duration
}

// ReportErrorOptions contains options for reporting an error
type ReportErrorOptions struct {
	Error   string
	Message string
}

var (
	handler *ErrorHandler
	once    sync.Once
)

// Init initializes the global error handler
func Init(report ReportFunc, shutdownFunc func()) *ErrorHandler {
	once.Do(func() {
		handler = NewErrorHandler(report, shutdownFunc)
	})
	return handler
}

// Get returns the global error handler instance
func Get() *ErrorHandler {
	return handler
}

// NewErrorHandler creates a new ErrorHandler instance
func NewErrorHandler(report ReportFunc, shutdownFunc func()) *ErrorHandler {
	h := &ErrorHandler{
		report:        report,
		stopChan:      make(chan struct{}),
		shutdownFunc:  shutdownFunc,
		exitFunc:      exitProcess,
		maxErrors:     15,
		resetInterval: 5 * time.Second,
		checkInterval: 1 * time.Second,
	}

	h.start()
	return h
}

// start begins the error monitoring goroutines
func (h *ErrorHandler) start() {
	go func() {
		ticker := time.NewTicker(h.resetInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				atomic.StoreInt32(&h.errorCount, 0)
			case <-h.stopChan:
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(h.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if h.Exceeded() {
					h.shutdown()
					return
				}
			case <-h.stopChan:
				return
			}
		}
	}()
}

// Exceeded reports whether the error count is above the threshold
func (h *ErrorHandler) Exceeded() bool {
	return atomic.LoadInt32(&h.errorCount) > h.maxErrors
}

func (h *ErrorHandler) shutdown() {
	start := time.Now()
	logger.Warn("Too many errors in a short time", "AntiCrash")
	logger.Warn("Shutting down...", "AntiCrash")

	h.Report(ReportErrorOptions{
		Error:   "Critical Error",
		Message: "Unusual number of errors. Shutting down...",
	})

	if h.shutdownFunc != nil {
		h.shutdownFunc()
	}

	logger.Warn(fmt.Sprintf("Process finished. Total shutdown time: %v", time.Since(start)), "AntiCrash")
	h.exitFunc(1)
}

// Stop stops the error monitoring goroutines
func (h *ErrorHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// IncrementError increments the error count
func (h *ErrorHandler) IncrementError() {
	count := atomic.AddInt32(&h.errorCount, 1)
	logger.Error(fmt.Sprintf("Error count: %d", count), "AntiCrash")
}

// Count returns the errors counted in the current interval
func (h *ErrorHandler) Count() int32 {
	return atomic.LoadInt32(&h.errorCount)
}

// HandlePanic handles a recovered panic
func (h *ErrorHandler) HandlePanic(recovered interface{}) {
	h.IncrementError()
	logger.Debug("Unhandled panic recovered", "AntiCrash")
	logger.Error(fmt.Sprintf("%v", recovered), "SYS")
}

// Report sends an error report to the operators
func (h *ErrorHandler) Report(data ReportErrorOptions) {
	if h.report == nil {
		return
	}
	h.report(fmt.Sprintf("Error %s", data.Error), data.Message)
	logger.Warn("Sent error report to admin group", "AntiCrash")
}

func exitProcess(code int) {
	os.Exit(code)
}

// RecoverMiddleware returns a recovery function for use in deferred calls
func RecoverMiddleware() func() {
	return func() {
		if r := recover(); r != nil {
			if handler != nil {
				handler.HandlePanic(r)
			} else {
				logger.Error(fmt.Sprintf("Panic recovered (no handler): %v", r), "AntiCrash")
			}
		}
	}
}
