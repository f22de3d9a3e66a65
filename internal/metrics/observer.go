package metrics

import (
	"photo-ingest/internal/filesystem"
	"photo-ingest/internal/progress"
)

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem retry
// metrics into the Prometheus counters and histograms declared in metrics.go.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(retryOp, volume string) {
	FilesystemRetryFailures.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryDuration(retryOp, volume string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(retryOp, volume).Observe(durationSeconds)
}

func (o *filesystemObserver) ObserveStaleError(retryOp, volume string) {
	FilesystemStaleErrors.WithLabelValues(retryOp, volume).Inc()
}

// progressObserver implements progress.Observer, mirroring tracker state
// into the progress gauges and outcome counters.
type progressObserver struct{}

// NewProgressObserver creates an observer for registration with a
// progress.Tracker.
func NewProgressObserver() progress.Observer {
	return &progressObserver{}
}

func (o *progressObserver) ObserveProgress(s progress.Snapshot) {
	ProgressFiles.WithLabelValues("seen").Set(float64(s.FilesSeen))
	ProgressFiles.WithLabelValues("done").Set(float64(s.FilesDone))
	ProgressBytes.WithLabelValues("seen").Set(float64(s.BytesSeen))
	ProgressBytes.WithLabelValues("done").Set(float64(s.BytesDone))
	ProgressPercent.Set(float64(s.Percent))
}

func (o *progressObserver) ObserveOutcome(e progress.OutcomeEvent) {
	PipelineItemsTotal.WithLabelValues(e.Outcome).Inc()
	if e.Outcome == "failed" && e.Kind != "" {
		PipelineFailuresTotal.WithLabelValues(e.Kind).Inc()
	}
}
