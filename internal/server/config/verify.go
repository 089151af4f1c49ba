// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/rawhttpd/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifySession(&cfg.Session); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyStatic(&cfg.Static); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	h := cfg.HTTP
	if h.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if _, _, err := net.SplitHostPort(h.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", h.Addr, err)
	}
	if h.MaxConnections < 0 {
		return errors.New("server.http.max_connections must not be negative")
	}
	if h.AcceptRate < 0 {
		return errors.New("server.http.accept_rate must not be negative")
	}
	if h.AcceptRate > 0 && h.AcceptBurst < 1 {
		return errors.New("server.http.accept_burst must be at least 1 when accept_rate is set")
	}
	if h.ReadTimeout < 0 || h.WriteTimeout < 0 {
		return errors.New("server.http timeouts must not be negative")
	}
	return nil
}

func verifySession(cfg *SessionSection) error {
	if cfg.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if cfg.SweepThreshold < 0 {
		return errors.New("session.sweep_threshold must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch len(cfg.EncryptionKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("storage.encryption_key must be 16, 24 or 32 bytes, got %d", len(cfg.EncryptionKey))
	}
	if cfg.GCInterval < 0 {
		return errors.New("storage.gc_interval must not be negative")
	}
	if cfg.InMemory {
		return nil
	}
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	// Check if data directory exists or can be created
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	return nil
}

func verifyStatic(cfg *StaticSection) error {
	if cfg.Root == "" {
		return errors.New("static.root is required")
	}
	if cfg.Index == "" || strings.ContainsRune(cfg.Index, '/') {
		return fmt.Errorf("static.index %q must be a bare file name", cfg.Index)
	}
	for _, r := range cfg.Restricted {
		if r == "" {
			return errors.New("static.restricted must not contain empty entries")
		}
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", cfg.Path)
	}
	if cfg.Path == "/users" || strings.HasPrefix(cfg.Path, "/users/") {
		return fmt.Errorf("metrics.path %q collides with the API", cfg.Path)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}
