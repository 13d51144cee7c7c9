// Package health provides composable health checks for the auth core.
//
// Components expose a Checker; the Aggregator combines registered
// checkers into an overall status for readiness probes.
package health
