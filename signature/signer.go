package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Version is the scheme tag prepended to every body signature.
const Version = "v1"

// Sign returns "v1=<hex>" where hex is HMAC-SHA256(secret, "<ts>.<body>").
// Brands recompute it from the X-Signature-Timestamp header and the raw body.
func Sign(body []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(strconv.AppendInt(nil, ts, 10))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return Version + "=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the signature of body under secret and ts.
func Verify(body []byte, secret string, ts int64, sig string) bool {
	return hmac.Equal([]byte(Sign(body, secret, ts)), []byte(sig))
}
