package utils

import (
	"crypto/sha256"
	"encoding/base64"
)

// HashToken derives the anonymous join key written to the votes table from a
// voter token secret. One-way: the secret never appears alongside a ballot.
func HashToken(raw string) string {
	hasher := sha256.New()
	hasher.Write([]byte(raw))
	return base64.URLEncoding.EncodeToString(hasher.Sum(nil))
}

// HashOTP hashes a one-time code together with a per-row salt. The salt keeps
// identical codes issued to different voters from producing equal hashes.
func HashOTP(code, salt string) string {
	hasher := sha256.New()
	hasher.Write([]byte(salt))
	hasher.Write([]byte(":"))
	hasher.Write([]byte(code))
	return base64.URLEncoding.EncodeToString(hasher.Sum(nil))
}
