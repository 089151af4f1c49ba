// Package cmap provides a concurrent map implementation for rawhttpd.
//
// The map is split into a power-of-two number of shards, each guarded by
// its own RWMutex, so that concurrent connections touching different
// session tokens rarely contend on the same lock.
//
// Usage:
//
//	m := cmap.New[string, Entry]()
//	m.Set("key", entry)
//	val, ok := m.Get("key")
//
// Shard selection hashes the key with murmur3. Range and DeleteIf lock one
// shard at a time, so they observe a per-shard consistent view only.
package cmap
