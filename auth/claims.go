package auth

// TrustClaims is the validated, decoded result of a bearer token. The fields
// the core decides on are strongly typed; any other claims present in the
// payload are preserved opaquely in Extra for downstream consumers.
type TrustClaims struct {
	// Subject is the stable identity id (sub).
	Subject string

	// Audience is the validated audience (aud).
	Audience string

	// Issuer is the validated issuer (iss).
	Issuer string

	// IssuedAt and ExpiresAt are seconds since epoch (iat, exp).
	IssuedAt  int64
	ExpiresAt int64

	// PrimaryRole is the single role claim (role), if present.
	PrimaryRole string

	// Roles is the list role claim (roles), if present.
	Roles []string

	// Permissions is the explicit permission list claim (permissions),
	// entries of the form "action:resource".
	Permissions []string

	// Extra holds claims the validator does not interpret.
	Extra map[string]any
}

// ExtractRoles returns the ordered role sequence for the claims: the primary
// role first, then entries of the roles list, with duplicates removed
// preserving first occurrence.
func ExtractRoles(claims *TrustClaims) []string {
	seen := make(map[string]bool, len(claims.Roles)+1)
	roles := make([]string, 0, len(claims.Roles)+1)

	appendRole := func(role string) {
		if role == "" || seen[role] {
			return
		}
		seen[role] = true
		roles = append(roles, role)
	}

	appendRole(claims.PrimaryRole)
	for _, role := range claims.Roles {
		appendRole(role)
	}
	return roles
}

// ExtractPermissions returns the explicit permission list claim verbatim, or
// an empty slice if absent.
func ExtractPermissions(claims *TrustClaims) []string {
	if len(claims.Permissions) == 0 {
		return []string{}
	}
	out := make([]string, len(claims.Permissions))
	copy(out, claims.Permissions)
	return out
}

// ValidateTokenAudience reports whether the claims were issued for the
// expected audience.
func ValidateTokenAudience(claims *TrustClaims, expected string) bool {
	return claims.Audience == expected
}
