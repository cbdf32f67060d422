package signature

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

// SecretPrefix marks brand shared secrets.
const SecretPrefix = "bsec_"

// GenerateSecret creates a cryptographically random brand secret.
// Format: "bsec_" + 32 bytes hex = 69 characters total.
func GenerateSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("assetsync: failed to generate random secret: " + err.Error())
	}
	return SecretPrefix + hex.EncodeToString(b)
}

// Equal compares a presented secret with a stored one in constant time.
// An empty stored secret never matches.
func Equal(presented, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}
