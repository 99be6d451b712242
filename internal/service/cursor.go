package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// cursorPrefix tags series cursors so that a cursor from another listing is rejected
const cursorPrefix = "series:"

// DecodeCursor returns the series ID a page starts after. An empty cursor decodes to 0.
func DecodeCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("failed to decode cursor: %w", err)
	}

	value, ok := strings.CutPrefix(string(decoded), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("invalid cursor format")
	}

	afterID, err := strconv.ParseInt(value, 10, 64)
	if err != nil || afterID < 0 {
		return 0, fmt.Errorf("invalid cursor series id %q", value)
	}
	return afterID, nil
}

// EncodeCursor returns an opaque cursor for the page following seriesID
func EncodeCursor(seriesID int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(seriesID, 10)))
}
