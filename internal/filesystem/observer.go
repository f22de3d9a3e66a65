package filesystem

// Observer records filesystem retry metrics. Implementations are provided
// by the metrics package to break the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveRetry records retry-specific metrics for NFS resilience.
	// retryOp is the retry operation: "stat", "open", "readfile".
	// volume is the resolved mount label (e.g., "source", "blob", "database").
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped (safe for tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

// nopObserver makes the recording call sites nil-safe.
type nopObserver struct{}

func (nopObserver) ObserveRetryAttempt(string, string)            {}
func (nopObserver) ObserveRetrySuccess(string, string)            {}
func (nopObserver) ObserveRetryFailure(string, string)            {}
func (nopObserver) ObserveRetryDuration(string, string, float64)  {}
func (nopObserver) ObserveStaleError(retryOp, volume string)      {}

// observe returns the configured observer, or a no-op when none is set.
func observe() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}
