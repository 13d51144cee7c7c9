package credential

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Kind identifies a credential format for validation.
type Kind string

const (
	KindJWT     Kind = "jwt"
	KindAPIKey  Kind = "api_key"
	KindGeneric Kind = "generic"
)

// Minimum lengths per kind. Anything shorter is a trivial secret and is
// rejected regardless of format.
const (
	minJWTLength     = 32
	minAPIKeyLength  = 20
	minGenericLength = 16
)

// Result is the outcome of validating a credential.
type Result struct {
	// Valid is true if the credential passed all checks.
	Valid bool

	// Reason explains a failure. It never contains the credential itself.
	Reason string
}

func invalid(reason string) Result {
	return Result{Valid: false, Reason: reason}
}

// Validate checks a credential against the length and format rules for the
// given kind. Failure reasons describe the rule that was violated, never the
// value.
func Validate(value string, kind Kind) Result {
	switch kind {
	case KindJWT:
		return validateJWT(value)
	case KindAPIKey:
		return validateAPIKey(value)
	case KindGeneric, "":
		if len(value) < minGenericLength {
			return invalid("credential below minimum length")
		}
		return Result{Valid: true}
	default:
		return invalid("unknown credential kind")
	}
}

func validateJWT(value string) Result {
	if len(value) < minJWTLength {
		return invalid("jwt below minimum length")
	}

	segments := strings.Split(value, ".")
	if len(segments) != 3 {
		return invalid("jwt must have three segments")
	}

	// The first segment must decode as a plausible JOSE header.
	raw, err := base64.RawURLEncoding.DecodeString(segments[0])
	if err != nil {
		return invalid("jwt header is not base64url")
	}

	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(raw, &header); err != nil || header.Alg == "" {
		return invalid("jwt header is not a valid JOSE header")
	}

	return Result{Valid: true}
}

func validateAPIKey(value string) Result {
	if len(value) < minAPIKeyLength {
		return invalid("api key below minimum length")
	}
	if !strings.ContainsAny(value, ".-") {
		return invalid("api key missing delimiter structure")
	}
	return Result{Valid: true}
}
