// Package integration runs showsync end to end: the real application wired
// against a SQLite catalog and a fake provider, driven through its HTTP API.
package integration
