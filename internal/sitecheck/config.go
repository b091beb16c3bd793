package sitecheck

import (
	"time"

	"github.com/okian/dingerzone/pkg/logger"
)

// Config holds configuration for a site check.
type Config struct {
	BaseURL  string        // Base URL of the deployment
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // Per-request timeout
	ShareIDs []string      // Share ids whose viewer pages are checked as well
	Verbose  bool          // Log every fetched URL

	Logger logger.Logger // Defaults to logger.Get()
}

// Source tells where a checked URL came from.
type Source string

const (
	SourceSeed Source = "seed"
	SourceLink Source = "link"
)

// Result is the outcome of fetching one URL.
type Result struct {
	URL         string
	Source      Source
	Status      int
	ContentType string
	Duration    time.Duration
	Err         error

	// links holds same-origin links found in an HTML seed page.
	links []string
}

// OK reports whether the URL answered without a client or server error.
func (r Result) OK() bool {
	return r.Err == nil && r.Status > 0 && r.Status < 400
}

// Report collects every result of a run.
type Report struct {
	Results   []Result
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Failed returns the results that did not pass.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}
