// Package memory provides the in-memory session store for rawhttpd.
//
// SessionStore maps opaque tokens to a subject and an absolute expiry. It is
// built on the sharded map in pkg/cmap plus a per-subject index, so lookups
// never take the store-wide lock while mutations that touch both indexes are
// serialized.
//
// Expired sessions are removed by a sweep that runs every SweepThreshold
// insertions, or on demand through Sweep.
package memory
