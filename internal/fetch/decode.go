package fetch

import (
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// decodeToUTF8 converts a response body to UTF-8 so downstream parsing never
// sees mojibake. The encoding is taken from the Content-Type header when
// declared, otherwise sniffed from the document itself; bodies that are
// already UTF-8 pass through untouched. A body that fails to decode is
// returned as-is rather than rejected, matching the tolerant parsing
// posture of the rest of the pipeline.
func decodeToUTF8(body []byte, contentType string) []byte {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return body
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return body
	}
	return decoded
}
