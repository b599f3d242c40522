// Package base64 reads images submitted inline as base64 data URIs.
package base64

import (
	"encoding/base64"
	"mime"
	"strings"
)

const (
	scheme = "data:"
	marker = ";base64"
)

// DataURI is the parsed form of data:<media type>;base64,<payload>.
type DataURI struct {
	MediaType string
	Payload   string
}

// Parse accepts only base64 encoded data URIs. Media type parameters are
// dropped and the type is lowercased.
func Parse(value string) (DataURI, bool) {
	rest, ok := strings.CutPrefix(value, scheme)
	if !ok {
		return DataURI{}, false
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURI{}, false
	}

	header, ok = strings.CutSuffix(header, marker)
	if !ok || header == "" {
		return DataURI{}, false
	}

	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return DataURI{}, false
	}

	return DataURI{MediaType: mediaType, Payload: payload}, true
}

// DecodedSize is the byte length of the payload once decoded.
func (d DataURI) DecodedSize() int64 {
	size := base64.StdEncoding.DecodedLen(len(d.Payload)) - strings.Count(d.Payload[max(len(d.Payload)-2, 0):], "=")

	return int64(max(size, 0))
}

func (d DataURI) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(d.Payload)
}

func GetContentType(value string) string {
	uri, _ := Parse(value)

	return uri.MediaType
}
