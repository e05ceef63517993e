// Package sign implements the gateway's notification signature scheme:
// fields sorted by name, joined as k=v pairs with &, the shared secret
// appended as key=<secret>, MD5-hashed and upper-hex encoded. Fields
// with empty values are excluded from the signed string.
package sign

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

type Verifier struct {
	secret   string
	required []string
}

// NewVerifier builds a verifier for the given shared secret. required
// lists field names that must be present and non-empty in every
// notification; a missing one fails verification outright.
func NewVerifier(secret string, required ...string) *Verifier {
	return &Verifier{secret: secret, required: required}
}

// Sign computes the signature over fields. Exposed for tests and for
// building outbound requests to the gateway.
func (v *Verifier) Sign(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, val := range fields {
		if val == "" || k == "sign" || k == "key" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s&", k, fields[k])
	}
	fmt.Fprintf(&b, "key=%s", v.secret)

	sum := md5.Sum([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify reports whether signature matches the fields under the shared
// secret. Pure function of its inputs, no side effects.
func (v *Verifier) Verify(fields map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	for _, k := range v.required {
		if fields[k] == "" {
			return false
		}
	}
	expected := v.Sign(fields)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
