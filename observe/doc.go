// Package observe provides structured logging, metrics, and tracing for the
// authorization core, built on OpenTelemetry.
package observe
