package metrics

// InitializeMetrics pre-populates every expected label combination so each
// series is exported from the first scrape. Call once at startup.
func InitializeMetrics() {
	for _, outcome := range []string{"completed", "cancelled", "failed"} {
		ScanRunsTotal.WithLabelValues(outcome)
	}
	for _, outcome := range []string{"completed", "failed", "not_started"} {
		AnalysisItemsTotal.WithLabelValues(outcome)
	}
	for _, verdict := range []string{"keep", "reject", "none", "locked"} {
		AnalysisVerdicts.WithLabelValues(verdict)
	}
	for _, status := range []string{"pending", "keep", "reject"} {
		RecordsByStatus.WithLabelValues(status)
		CuratorDecisions.WithLabelValues(status)
	}
	for _, stack := range []string{"undo", "redo"} {
		JournalDepth.WithLabelValues(stack)
	}
	for _, decoder := range []string{"imaging", "vips"} {
		PreviewDecodeDuration.WithLabelValues(decoder)
	}
	for _, op := range []string{"save_decision", "delete_decision", "fetch_folder", "folder_summary", "reset_folder"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
	for _, op := range []string{"stat", "open", "read"} {
		FilesystemRetryAttempts.WithLabelValues(op, "photos")
		FilesystemRetrySuccess.WithLabelValues(op, "photos")
		FilesystemRetryFailures.WithLabelValues(op, "photos")
		FilesystemStaleErrors.WithLabelValues(op, "photos")
		FilesystemRetryDuration.WithLabelValues(op, "photos")
	}
}
