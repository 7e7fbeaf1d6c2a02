package guard

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrMalformedPath is returned for request paths carrying invalid percent-escapes.
var ErrMalformedPath = errors.New("malformed request path")

// CanonicalPath resolves a raw request path to the form the upstream acts
// on: percent-decoded, backslashes read as slashes, repeated slashes and dot
// segments removed. Matching and classification must only see this form.
func CanonicalPath(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w %q", ErrMalformedPath, raw)
	}
	decoded = strings.ReplaceAll(decoded, `\`, "/")
	if !strings.HasPrefix(decoded, "/") {
		decoded = "/" + decoded
	}
	return path.Clean(decoded), nil
}
