// Package main provides the entry point for rawhttpd.
//
// rawhttpd is a small HTTP/1.1 server built directly on TCP. It serves a
// JSON user API with cookie sessions, static files and Prometheus metrics.
//
// Usage:
//
//	rawhttpd serve --config /etc/rawhttpd/rawhttpd.yaml
//	rawhttpd -o yaml config show
//	rawhttpd --data-dir ./data user list
//	rawhttpd version
package main
