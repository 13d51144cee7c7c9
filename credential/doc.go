// Package credential provides safe-handling primitives for secret material.
//
// It supports:
//   - Masking credentials for display (see Mask, MaskSensitiveFields)
//   - Log-safe sanitization that exposes only length and a short prefix
//     (see SanitizeForLogging)
//   - Per-kind format validation (see Validate)
//   - Constant-time comparison (see SecureCompare)
//   - Unpredictable token generation (see RandomToken)
//
// Every component that lets a secret-shaped value cross a logging or error
// boundary is expected to route it through this package first.
package credential
