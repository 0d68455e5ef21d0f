package session

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const randomSuffixLength = 9

// ContentID derives a session id from the raw selfie bytes. Clients compute the
// same lowercase MD5 hex digest to resume a session after a reload.
func ContentID(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// RandomID returns "<unix millis>-<9 lowercase hex characters>".
func RandomID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix[:randomSuffixLength])
}

func metadataPath(sessionID string) string {
	return "sessions/" + sessionID + "/metadata.json"
}

// AssetPath returns the deterministic location of an asset so that re-running a
// stage overwrites the previous output instead of leaking a new object.
func AssetPath(sessionID string, kind AssetKind, contentType string) string {
	return fmt.Sprintf("sessions/%s/%s.%s", sessionID, kind, extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "video"):
		return "mp4"
	case strings.Contains(contentType, "png"):
		return "png"
	default:
		return "jpg"
	}
}
