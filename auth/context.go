package auth

import "context"

// AnonymousRole is the designated role of unauthenticated callers.
const AnonymousRole = "anon"

// AuthorizationContext is the derived, request-scoped view of a caller used
// for policy decisions. It is immutable after construction: accessors return
// copies and the underlying role/permission data is never exposed directly.
type AuthorizationContext struct {
	sessionID     string
	roles         []string
	permissions   map[string]bool
	authenticated bool
}

// NewAuthorizationContext builds a context from an ordered role sequence and
// an explicit permission set. Duplicate roles are removed preserving first
// occurrence. The context is authenticated iff it holds at least one role
// other than the anonymous role.
func NewAuthorizationContext(sessionID string, roles []string, permissions []string) *AuthorizationContext {
	seen := make(map[string]bool, len(roles))
	ordered := make([]string, 0, len(roles))
	authenticated := false
	for _, role := range roles {
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		ordered = append(ordered, role)
		if role != AnonymousRole {
			authenticated = true
		}
	}

	perms := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		if p != "" {
			perms[p] = true
		}
	}

	return &AuthorizationContext{
		sessionID:     sessionID,
		roles:         ordered,
		permissions:   perms,
		authenticated: authenticated,
	}
}

// ContextFromClaims derives an AuthorizationContext from validated claims,
// with the primary role first. Nil claims yield an anonymous context.
func ContextFromClaims(claims *TrustClaims, sessionID string) *AuthorizationContext {
	if claims == nil {
		return NewAuthorizationContext(sessionID, []string{AnonymousRole}, nil)
	}
	return NewAuthorizationContext(sessionID, ExtractRoles(claims), ExtractPermissions(claims))
}

// SessionID returns the opaque session identifier, or "" if the caller has
// no session.
func (c *AuthorizationContext) SessionID() string {
	return c.sessionID
}

// Roles returns a copy of the ordered role sequence, primary role first.
func (c *AuthorizationContext) Roles() []string {
	out := make([]string, len(c.roles))
	copy(out, c.roles)
	return out
}

// HasRole reports whether the context holds the given role.
func (c *AuthorizationContext) HasRole(role string) bool {
	for _, r := range c.roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasExplicitPermission reports whether "action:resource" was granted
// directly, independent of role-implied permissions.
func (c *AuthorizationContext) HasExplicitPermission(perm string) bool {
	return c.permissions[perm]
}

// Permissions returns a copy of the explicit permission set.
func (c *AuthorizationContext) Permissions() []string {
	out := make([]string, 0, len(c.permissions))
	for p := range c.permissions {
		out = append(out, p)
	}
	return out
}

// IsAuthenticated reports whether the context holds at least one role other
// than the anonymous role. An empty role sequence is never authenticated.
func (c *AuthorizationContext) IsAuthenticated() bool {
	return c.authenticated
}

type contextKey int

const authContextKey contextKey = iota

// WithAuthorization returns a new context.Context carrying the authorization
// context.
func WithAuthorization(ctx context.Context, ac *AuthorizationContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// AuthorizationFromContext retrieves the authorization context, or nil if
// none is attached.
func AuthorizationFromContext(ctx context.Context) *AuthorizationContext {
	ac, _ := ctx.Value(authContextKey).(*AuthorizationContext)
	return ac
}
