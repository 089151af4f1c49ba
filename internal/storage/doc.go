// Package storage provides durable storage for rawhttpd.
//
// BadgerEngine wraps an embedded Badger v3 database with a background value
// log GC loop and Prometheus size gauges. UserRepository stores registered
// users on top of it with unique username and email indexes.
//
// Key layout:
//
//	user/id/<uint64 big-endian>  -> JSON user record
//	user/name/<username>         -> user id
//	user/email/<email>           -> user id
//	seq/user                     -> Badger sequence for user ids
//
// Sessions are not persisted; see package memory.
package storage
