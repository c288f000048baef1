package helper

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const cursorDelimiter = "|"

// EncodeCursor packs a keyset position (created time, id) into an opaque token.
func EncodeCursor(createdTime time.Time, id string) string {
	cursorString := fmt.Sprintf("%s%s%s", createdTime.UTC().Format(time.RFC3339Nano), cursorDelimiter, id)
	return base64.URLEncoding.EncodeToString([]byte(cursorString))
}

func DecodeCursor(cursor string) (time.Time, string, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor encoding")
	}

	parts := strings.SplitN(string(decodedBytes), cursorDelimiter, 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("invalid cursor format")
	}

	createdTime, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor time")
	}

	return createdTime, parts[1], nil
}
