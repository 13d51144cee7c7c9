// Package auth turns opaque bearer tokens into validated trust claims.
//
// The TokenValidator verifies structure, signature, and temporal claims of a
// JWT against a configured secret and allowed audience/issuer sets, producing
// a TrustClaims record. An AuthorizationContext derived from those claims is
// the request-scoped view the policy engine decides over. Only the
// validator's own output is trusted; pre-parsed claim objects are never
// accepted as input.
package auth
