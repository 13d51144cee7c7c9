package credential

import (
	"fmt"
	"strings"
)

// SensitiveTerms are the key-name fragments that mark a field as carrying
// secret material. Matching is case-insensitive and substring-based, so
// "anonKey", "service_key" and "jwtSecret" all match.
var SensitiveTerms = []string{
	"key",
	"secret",
	"token",
	"password",
	"passphrase",
	"credential",
	"jwt",
	"authorization",
}

// Mask obscures a credential for display.
//
// Values longer than 8 characters keep their first and last 4 characters with
// the middle replaced by asterisks; the output has the same length as the
// input. Shorter values keep at most one leading character followed by a
// fixed "***", so the output never reveals more than one character of a short
// secret. Values of length 0 or 1 mask entirely.
func Mask(value string) string {
	n := len(value)
	switch {
	case n > 8:
		return value[:4] + strings.Repeat("*", n-8) + value[n-4:]
	case n >= 2:
		return value[:1] + "***"
	default:
		return strings.Repeat("*", n)
	}
}

// IsSensitiveKey reports whether a field name matches one of SensitiveTerms.
func IsSensitiveKey(name string) bool {
	lower := strings.ToLower(name)
	for _, term := range SensitiveTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// MaskSensitiveFields walks a tree of maps, slices and scalars and returns a
// new tree in which every string value stored under a sensitive key has been
// masked. The input is never mutated and the shape of the tree is preserved:
// maps stay maps, slices stay slices, non-string leaves pass through
// unchanged.
func MaskSensitiveFields(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			if s, ok := child.(string); ok && IsSensitiveKey(k) {
				out[k] = Mask(s)
				continue
			}
			out[k] = MaskSensitiveFields(child)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = MaskSensitiveFields(child)
		}
		return out
	default:
		return node
	}
}

// SanitizeForLogging returns a fixed-shape representation of a credential
// that is safe to log. Only the length and the first four characters are
// exposed; the suffix and middle are never included.
func SanitizeForLogging(value string) string {
	prefix := value
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return fmt.Sprintf("[CREDENTIAL:%dchars:%s..]", len(value), prefix)
}
