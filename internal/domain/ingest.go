package domain

import "time"

// IngestReport summarizes one ingestion run. A run completes even when some
// documents fail; Failed counts them.
type IngestReport struct {
	Scanned  int
	Ingested int
	Skipped  int
	Failed   int
	Chunks   int
	Duration time.Duration
}
