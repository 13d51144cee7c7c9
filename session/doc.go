// Package session manages bounded-lifetime sessions tied to a validated
// identity.
//
// The Manager owns the only mutable store in the core: session records plus
// per-user active counts, guarded by one mutex so that limit checks and
// evictions are atomic. Sessions expire lazily on validation and eagerly via
// a background sweep; Close stops the sweep deterministically. When audit
// logging is enabled, every lifecycle operation emits a structured event to
// an external sink, best-effort.
package session
