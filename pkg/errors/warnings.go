package errors

import (
	"fmt"
	"sync"

	"github.com/ezoic/qnglm/pkg/log"
)

// ConvergenceWarning is emitted when an optimizer stops without meeting its
// convergence criterion. It is reported through Warn, never returned.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

// NewConvergenceWarning creates a ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("%s did not converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
}

var (
	warnMu      sync.RWMutex
	warnHandler func(error)
)

// SetWarningHandler replaces the function Warn forwards to. Passing nil
// restores the default, which logs the warning.
func SetWarningHandler(h func(error)) {
	warnMu.Lock()
	defer warnMu.Unlock()
	warnHandler = h
}

// Warn reports a non-fatal condition.
func Warn(w error) {
	if w == nil {
		return
	}
	warnMu.RLock()
	h := warnHandler
	warnMu.RUnlock()
	if h != nil {
		h(w)
		return
	}
	log.GetLoggerWithName("warnings").Warn(w.Error())
}
