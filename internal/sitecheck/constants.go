package sitecheck

import "time"

// Defaults used by the command.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 10 * time.Second
	DefaultWorkers = 4
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Response bodies of seed pages are parsed up to this size.
const maxPageBytes = 2 << 20

// SeedPaths are the pages every deployment serves.
var SeedPaths = []string{ //nolint:gochecknoglobals // fixed page list
	"/",
	"/privacy",
	"/terms",
	"/support",
	"/subscription-success",
}
