package pipeline

import (
	"encoding/base64"
	"strings"
)

const defaultDataURLContentType = "image/png"

// parseDataURL decodes `data:<mime>;base64,<payload>`. A missing mime type
// falls back to image/png.
func parseDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", invalidInput("dataUrl must start with data:")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", invalidInput("dataUrl has no payload")
	}
	mediaType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return nil, "", invalidInput("dataUrl must be base64 encoded")
	}
	body, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", invalidInput("dataUrl payload: %v", err)
	}
	if len(body) == 0 {
		return nil, "", invalidInput("dataUrl payload is empty")
	}
	if mediaType == "" {
		mediaType = defaultDataURLContentType
	}
	return body, mediaType, nil
}
