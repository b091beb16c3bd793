// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and environment variables.
// - External errors are wrapped with this package's sentinel errors.
package config

// Default values.
const (
	DefaultAddr           = ":9080"
	DefaultSiteURL        = "https://www.dingerzone.com"
	DefaultAppDeepLink    = "dingerzone://subscription-success"
	DefaultAppStoreURL    = "https://apps.apple.com/us/app/dingerzone"
	DefaultSupportEmail   = "support@dingerzone.com"
	DefaultFeedbackEmail  = "feedback@dingerzone.ai"
	DefaultAPITimeoutMS   = 10_000
	DefaultShareCacheTTL  = 60_000
	DefaultShareCacheSize = 1_000

	DefaultShareCacheCleanupMS = 300_000
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// APIBaseURL is the remote API root; share lookups POST to
	// {APIBaseURL}/get-shared-video-details. Empty disables the viewer.
	APIBaseURL string `koanf:"api_base_url"`

	// APITimeoutMS bounds a single remote API call.
	APITimeoutMS int `koanf:"api_timeout_ms"`

	// SiteURL is the canonical marketing site, used for "Back to DingerZone".
	SiteURL string `koanf:"site_url"`

	// AppStoreURL is the download call-to-action on the landing page.
	AppStoreURL string `koanf:"app_store_url"`

	// AppDeepLink reopens the mobile app after checkout.
	AppDeepLink string `koanf:"app_deep_link"`

	SupportEmail  string `koanf:"support_email"`
	FeedbackEmail string `koanf:"feedback_email"`

	// ShareCacheTTLMS caps how long a share lookup is reused. 0 disables caching.
	ShareCacheTTLMS int `koanf:"share_cache_ttl_ms"`

	// ShareCacheSize bounds the number of cached share lookups.
	ShareCacheSize int `koanf:"share_cache_size"`

	// ShareCacheCleanupMS is how often expired lookups are purged.
	ShareCacheCleanupMS int `koanf:"share_cache_cleanup_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            DefaultAddr,
		APITimeoutMS:    DefaultAPITimeoutMS,
		SiteURL:         DefaultSiteURL,
		AppStoreURL:     DefaultAppStoreURL,
		AppDeepLink:     DefaultAppDeepLink,
		SupportEmail:    DefaultSupportEmail,
		FeedbackEmail:   DefaultFeedbackEmail,
		ShareCacheTTLMS: DefaultShareCacheTTL,
		ShareCacheSize:  DefaultShareCacheSize,

		ShareCacheCleanupMS: DefaultShareCacheCleanupMS,
	}
}
