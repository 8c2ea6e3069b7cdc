// Package signature implements keyed-digest signing and verification of HTTP
// requests. A request is reduced to a canonical form, serialized into a
// deterministic signing string from an ordered component list, and signed
// with an HMAC shared secret. The Authorization header carries the key id,
// algorithm, component list, and digest.
package signature

import (
	"net/http"
	"strings"
)

// CanonicalRequest is a normalized, immutable view of the parts of an HTTP
// request that participate in signing: the uppercased method, the request
// target (path plus raw query), and the headers. Header names are lower-cased
// and multiple values for one name are joined in arrival order. All fields
// are copied out of the live request so later handler mutations cannot change
// what was verified.
type CanonicalRequest struct {
	Method  string
	Target  string
	headers map[string]string
}

// NewCanonicalRequest builds a CanonicalRequest from a live HTTP request.
func NewCanonicalRequest(r *http.Request) *CanonicalRequest {
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return &CanonicalRequest{
		Method:  strings.ToUpper(r.Method),
		Target:  r.URL.RequestURI(),
		headers: headers,
	}
}

// NewCanonicalRequestFromParts builds a CanonicalRequest directly, for
// signing clients that have not materialized an *http.Request. Header names
// are lower-cased; duplicate names (after folding) keep the last value.
func NewCanonicalRequestFromParts(method, target string, headers map[string]string) *CanonicalRequest {
	copied := make(map[string]string, len(headers))
	for name, value := range headers {
		copied[strings.ToLower(name)] = value
	}
	return &CanonicalRequest{
		Method:  strings.ToUpper(method),
		Target:  target,
		headers: copied,
	}
}

// Header returns the joined value for a header name, case-insensitively.
func (c *CanonicalRequest) Header(name string) (string, bool) {
	v, ok := c.headers[strings.ToLower(name)]
	return v, ok
}
