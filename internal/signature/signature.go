package signature

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// TimestampLayout is the UTC layout the vendor expects in both the digest and
// the request path.
const TimestampLayout = "20060102150405"

// Timestamp formats t in UTC with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Generate returns the lowercase hex MD5 of devID, method, authKey and
// timestamp concatenated in that order. method is the bare vendor method
// name, without the response format suffix.
func Generate(devID, method, authKey, timestamp string) string {
	h := md5.New()
	h.Write([]byte(devID))
	h.Write([]byte(method))
	h.Write([]byte(authKey))
	h.Write([]byte(timestamp))
	return hex.EncodeToString(h.Sum(nil))
}
