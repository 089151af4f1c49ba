// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for rawhttpd.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Session SessionSection `koanf:"session"`
	Storage StorageSection `koanf:"storage"`
	Static  StaticSection  `koanf:"static"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP/1.1 listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`

	// MaxConnections caps concurrently served connections. Zero means no cap.
	MaxConnections int `koanf:"max_connections"`

	// AcceptRate limits accepted connections per second. Zero means no limit.
	AcceptRate  float64 `koanf:"accept_rate"`
	AcceptBurst int     `koanf:"accept_burst"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// SessionSection configures the in-memory session store.
type SessionSection struct {
	TTL time.Duration `koanf:"ttl"`

	// SweepThreshold is the number of creations between expiry sweeps.
	// Zero disables sweeping.
	SweepThreshold int `koanf:"sweep_threshold"`
}

// StorageSection configures the user store.
type StorageSection struct {
	DataDir    string        `koanf:"data_dir"`
	InMemory   bool          `koanf:"in_memory"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`

	// EncryptionKey is the AES key for data at rest (16, 24 or 32 bytes).
	EncryptionKey string `koanf:"encryption_key"`
}

// StaticSection configures static file serving.
type StaticSection struct {
	Root  string `koanf:"root"`
	Index string `koanf:"index"`

	// Restricted lists path fragments that require a session.
	Restricted []string `koanf:"restricted"`
}

// MetricsSection configures the Prometheus text endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
