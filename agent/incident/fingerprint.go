package incident

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const fingerprintMessageRunes = 100

// Fingerprint hashes the error type and the first 100 runes of an already
// redacted message. Identical errors collide on purpose.
func Fingerprint(errorType, redactedMessage string) string {
	msg := []rune(redactedMessage)
	if len(msg) > fingerprintMessageRunes {
		msg = msg[:fingerprintMessageRunes]
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(errorType) + ":" + string(msg)))
	return hex.EncodeToString(sum[:])
}
