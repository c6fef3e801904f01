package core

import (
	"encoding/base64"
	"fmt"
	"strings"
)

func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL decodes a base64 data URL into its MIME type and payload.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URL must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid data URL payload: %w", err)
	}
	return mimeType, data, nil
}

func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}
