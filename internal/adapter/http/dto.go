// Package http serves the operator status API of a collection run.
package http

// ProgressResponse is the body of GET /api/v1/progress.
type ProgressResponse struct {
	// Done and Total count (pair, day, direction) fetch units
	Done    int     `json:"done"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`

	// ETA is human readable; ETASeconds is -1 while unknown
	ETA        string `json:"eta"`
	ETASeconds int64  `json:"eta_seconds"`

	// Line is the progress line as rendered on the terminal
	Line string `json:"line"`

	Pairs        int `json:"pairs"`
	FilesWritten int `json:"files_written"`
	Skipped      int `json:"skipped"`
	Warnings     int `json:"warnings"`
	Ignored      int `json:"ignored"`
}

// IgnoredResponse is the body of GET /api/v1/ignored.
type IgnoredResponse struct {
	Count int      `json:"count"`
	Pairs []string `json:"pairs"`
}
