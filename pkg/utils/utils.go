package utils

import (
	"crypto/rand"
	"encoding/base64"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// FileTimestampLayout is the yyyyMMdd_HHmmss stamp embedded in backup and
// export file names. It sorts lexicographically in chronological order.
const FileTimestampLayout = "20060102_150405"

// DisplayTimeLayout is used for human-readable timestamps
const DisplayTimeLayout = "2006-01-02 15:04:05"

var fileStampPattern = regexp.MustCompile(`^\d{8}_\d{6}$`)

// GenerateID returns a new immutable note identifier
func GenerateID() string {
	return uuid.New().String()
}

// GenerateSessionID generates a secure random session token
func GenerateSessionID() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// Fall back to a random UUID rather than an empty token
		return uuid.New().String()
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// FileStamp formats t for use in a file name
func FileStamp(t time.Time) string {
	return t.Format(FileTimestampLayout)
}

// ParseFileStamp parses a yyyyMMdd_HHmmss stamp in local time
func ParseFileStamp(stamp string) (time.Time, bool) {
	if !fileStampPattern.MatchString(stamp) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(FileTimestampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
