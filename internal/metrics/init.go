package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Pipeline outcomes and failure kinds ---
	for _, outcome := range []string{"cataloged", "skipped", "failed"} {
		PipelineItemsTotal.WithLabelValues(outcome)
	}
	for _, kind := range []string{"hash", "decode", "encode", "quota", "upload", "catalog"} {
		PipelineFailuresTotal.WithLabelValues(kind)
	}
	for _, stage := range []string{"hash", "dedup", "metadata", "render", "reserve", "upload", "commit"} {
		PipelineStageDuration.WithLabelValues(stage)
	}

	// --- Progress gauges ---
	for _, state := range []string{"seen", "done"} {
		ProgressFiles.WithLabelValues(state)
		ProgressBytes.WithLabelValues(state)
	}

	// --- Quota reservation statuses ---
	for _, status := range []string{"reserved", "rejected", "released"} {
		QuotaReservationsTotal.WithLabelValues(status)
	}

	// --- Rendition engines ---
	for _, engine := range []string{"imaging", "vips"} {
		RendersTotal.WithLabelValues(engine, "success")
		RendersTotal.WithLabelValues(engine, "error")
		RenderDuration.WithLabelValues(engine)
	}

	// --- Filesystem retry metrics (per retry-operation × volume) ---
	retryOps := []string{"stat", "open", "readfile"}
	volumes := []string{"source", "blob", "database", "unknown"}

	for _, op := range retryOps {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	// --- DB query operations ---
	for _, op := range []string{"create_collection", "get_collection", "list_collections", "rename_collection",
		"has_fingerprint", "insert_item", "count_items", "get_item",
		"ensure_account", "quota_reserve", "quota_release", "quota_usage",
		"quota_set_limit", "quota_reset_used"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
