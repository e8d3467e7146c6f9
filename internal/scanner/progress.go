package scanner

// ProgressReporter provides callbacks for reporting scan progress.
// OnFileScanned is called from worker goroutines and must be safe for
// concurrent use.
type ProgressReporter interface {
	// OnScanStart is called once the file list is known.
	OnScanStart(totalFiles int)

	// OnFileScanned is called after each file is analyzed or served from cache.
	OnFileScanned(path string)

	// OnScanComplete is called when the scan finishes successfully.
	OnScanComplete(report *Report)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnScanStart(totalFiles int)     {}
func (n *NoOpProgressReporter) OnFileScanned(path string)      {}
func (n *NoOpProgressReporter) OnScanComplete(report *Report) {}
