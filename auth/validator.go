package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ValidatorConfig configures the token validator.
type ValidatorConfig struct {
	// Secret is the HMAC signing secret used to verify tokens.
	Secret []byte

	// AllowedAudiences is the set of acceptable aud claim values.
	AllowedAudiences []string

	// AllowedIssuers is the set of acceptable iss claim values.
	AllowedIssuers []string

	// Leeway is the clock-skew tolerance applied when rejecting tokens
	// issued in the future. Default: 1 minute.
	Leeway time.Duration

	// Cache, when set, memoizes validation results per token.
	Cache *ValidationCache

	// Throttle, when set, limits repeated failed validations per caller key.
	Throttle *FailureThrottle

	// Metrics, when set, records validation outcomes.
	Metrics ValidationRecorder
}

// ValidationRecorder receives the outcome of each validation attempt.
type ValidationRecorder interface {
	RecordValidation(ctx context.Context, code string, duration time.Duration)
}

// hmacMethods are the only signature algorithms this core accepts. Tokens
// declaring any other algorithm, including "none", fail verification.
var hmacMethods = []string{"HS256", "HS384", "HS512"}

// TokenValidator turns opaque bearer tokens into TrustClaims.
//
// Contract:
// - Concurrency: safe for concurrent use; validation is a pure computation.
// - Errors: failures are *Error values carrying a stable Code. No failure
//   path includes the raw token or the secret.
type TokenValidator struct {
	config    ValidatorConfig
	parser    *jwt.Parser
	audiences map[string]bool
	issuers   map[string]bool
	now       func() time.Time
}

// NewTokenValidator creates a token validator.
func NewTokenValidator(config ValidatorConfig) *TokenValidator {
	if config.Leeway <= 0 {
		config.Leeway = time.Minute
	}

	audiences := make(map[string]bool, len(config.AllowedAudiences))
	for _, aud := range config.AllowedAudiences {
		audiences[aud] = true
	}
	issuers := make(map[string]bool, len(config.AllowedIssuers))
	for _, iss := range config.AllowedIssuers {
		issuers[iss] = true
	}

	return &TokenValidator{
		config: config,
		parser: jwt.NewParser(
			jwt.WithValidMethods(hmacMethods),
			jwt.WithExpirationRequired(),
		),
		audiences: audiences,
		issuers:   issuers,
		now:       time.Now,
	}
}

// Validate decodes and verifies a bearer token, returning its TrustClaims.
func (v *TokenValidator) Validate(ctx context.Context, token string) (*TrustClaims, error) {
	start := v.now()
	claims, err := v.validate(ctx, token)
	if v.config.Metrics != nil {
		code := "ok"
		if err != nil {
			code = string(CodeOf(err))
		}
		v.config.Metrics.RecordValidation(ctx, code, v.now().Sub(start))
	}
	return claims, err
}

func (v *TokenValidator) validate(ctx context.Context, token string) (*TrustClaims, error) {
	if v.config.Throttle != nil && !v.config.Throttle.Allow(throttleKey(token)) {
		return nil, newError(CodeRateLimited, "too many failed validation attempts", nil)
	}

	if v.config.Cache != nil {
		if claims, ok := v.config.Cache.Get(token); ok {
			return claims, nil
		}
		claims, err := v.config.Cache.Do(token, func() (*TrustClaims, error) {
			return v.verify(token)
		})
		v.recordOutcome(token, err)
		return claims, err
	}

	claims, err := v.verify(token)
	v.recordOutcome(token, err)
	return claims, err
}

func (v *TokenValidator) recordOutcome(token string, err error) {
	if v.config.Throttle == nil {
		return
	}
	if err != nil {
		v.config.Throttle.RecordFailure(throttleKey(token))
	}
}

// verify runs the full validation pipeline on a single token.
func (v *TokenValidator) verify(token string) (*TrustClaims, error) {
	// 1. Structural check: exactly three dot-separated segments.
	if strings.Count(token, ".") != 2 {
		return nil, newError(CodeInvalidFormat, "token must have three segments", nil)
	}

	// 2-3. Decode and verify the signature with the configured secret.
	parsed, err := v.parser.Parse(token, func(t *jwt.Token) (any, error) {
		return v.config.Secret, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, newError(CodeInvalidFormat, "token payload is not a claims object", nil)
	}

	// 4. Temporal plausibility and audience/issuer membership.
	now := v.now()

	issuedAt, _ := numericClaim(mapClaims, "iat")
	if issuedAt > now.Add(v.config.Leeway).Unix() {
		return nil, newError(CodeInvalidFormat, "token issued in the future", nil)
	}

	expiresAt, hasExp := numericClaim(mapClaims, "exp")
	if !hasExp || expiresAt <= now.Unix() {
		return nil, newError(CodeTokenExpired, "token has expired", nil)
	}

	audience, err := v.matchAudience(mapClaims)
	if err != nil {
		return nil, err
	}

	issuer, _ := mapClaims["iss"].(string)
	if !v.issuers[issuer] {
		return nil, newError(CodeInvalidIssuer, "token issuer is not allowed", nil)
	}

	// 5. Build TrustClaims from the decoded payload.
	return buildClaims(mapClaims, audience, issuer, issuedAt, expiresAt), nil
}

// matchAudience requires an aud claim with at least one member of the
// allowed-audience set, and returns the first allowed member.
func (v *TokenValidator) matchAudience(claims jwt.MapClaims) (string, error) {
	audiences := audienceValues(claims)
	if len(audiences) == 0 {
		return "", newError(CodeInvalidAudience, "token audience is missing", nil)
	}
	for _, aud := range audiences {
		if v.audiences[aud] {
			return aud, nil
		}
	}
	return "", newError(CodeInvalidAudience, "token audience is not allowed", nil)
}

func audienceValues(claims jwt.MapClaims) []string {
	switch v := claims["aud"].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		result := make([]string, 0, len(v))
		for _, a := range v {
			if s, ok := a.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}

func buildClaims(mapClaims jwt.MapClaims, audience, issuer string, issuedAt, expiresAt int64) *TrustClaims {
	claims := &TrustClaims{
		Audience:  audience,
		Issuer:    issuer,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}

	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Subject = sub
	}
	if role, ok := mapClaims["role"].(string); ok {
		claims.PrimaryRole = role
	}
	claims.Roles = stringList(mapClaims["roles"])
	claims.Permissions = stringList(mapClaims["permissions"])

	for k, v := range mapClaims {
		switch k {
		case "sub", "aud", "iss", "iat", "exp", "role", "roles", "permissions":
		default:
			if claims.Extra == nil {
				claims.Extra = make(map[string]any)
			}
			claims.Extra[k] = v
		}
	}
	return claims
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

func numericClaim(claims jwt.MapClaims, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// mapParseError translates jwt library failures into typed auth errors.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return newError(CodeTokenExpired, "token has expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return newError(CodeInvalidSignature, "token signature could not be verified", err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return newError(CodeTokenExpired, "token has no expiry", err)
	default:
		return newError(CodeInvalidFormat, "token could not be decoded", err)
	}
}
