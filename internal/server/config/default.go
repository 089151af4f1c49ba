// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr    = "127.0.0.1:8080"
	DefaultAcceptBurst = 64

	DefaultSessionTTL     = 60 * time.Minute
	DefaultSweepThreshold = 1000

	DefaultDataDir    = "/var/lib/rawhttpd/data"
	DefaultGCInterval = 10 * time.Minute

	DefaultStaticRoot  = "/var/lib/rawhttpd/static"
	DefaultStaticIndex = "index.html"

	DefaultMetricsPath = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultRestricted returns the default restricted static path fragments.
func DefaultRestricted() []string {
	return []string{"user-area", "profile"}
}

// Default returns the default server configuration. The connection
// guards (max_connections, accept_rate, read_timeout, write_timeout) are
// off until configured.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:        DefaultHTTPAddr,
				AcceptBurst: DefaultAcceptBurst,
			},
		},
		Session: SessionSection{
			TTL:            DefaultSessionTTL,
			SweepThreshold: DefaultSweepThreshold,
		},
		Storage: StorageSection{
			DataDir:    DefaultDataDir,
			SyncWrites: true,
			GCInterval: DefaultGCInterval,
		},
		Static: StaticSection{
			Root:       DefaultStaticRoot,
			Index:      DefaultStaticIndex,
			Restricted: DefaultRestricted(),
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
