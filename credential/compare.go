package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// sentinel is substituted for out-of-range reads so that comparison work is
// always proportional to the longer input, never to the match length.
const sentinel byte = 0x00

// SecureCompare reports whether a and b are equal without leaking the
// position of the first mismatch through timing. The scan always visits
// max(len(a), len(b)) bytes, XOR-accumulating mismatches, and folds in a
// constant-time length check at the end.
func SecureCompare(a, b string) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	var mismatch byte
	for i := 0; i < n; i++ {
		ca, cb := sentinel, sentinel
		if i < len(a) {
			ca = a[i]
		}
		if i < len(b) {
			cb = b[i]
		}
		mismatch |= ca ^ cb
	}

	sameLength := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	return subtle.ConstantTimeByteEq(mismatch, 0)&sameLength == 1
}

// RandomToken returns a cryptographically unpredictable token derived from
// byteLen bytes of entropy, encoded as unpadded base64url. It fails only if
// the system entropy source does.
func RandomToken(byteLen int) (string, error) {
	if byteLen <= 0 {
		byteLen = 32
	}
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("credential: reading entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
