package domain

import "time"

// RunStats holds statistics about a single archive run.
type RunStats struct {
	Source         string
	Fetched        int
	Archived       int
	Skipped        int
	Published      int
	Errors         int
	HeaderInserted bool
	LastSeenID     string
	Duration       time.Duration
}
