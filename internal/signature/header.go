package signature

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// HeaderScheme is the auth-scheme token carried in the Authorization header.
const HeaderScheme = "Signature"

// Format renders the signature in its transport encoding:
//
//	Signature keyId="...",algorithm="...",headers="h1 h2",signature="base64..."
func (s *Signature) Format() string {
	return fmt.Sprintf("%s keyId=%q,algorithm=%q,headers=%q,signature=%q",
		HeaderScheme,
		s.KeyID,
		s.Algorithm,
		strings.Join(s.Components, " "),
		base64.StdEncoding.EncodeToString(s.Digest),
	)
}

// ParseAuthorization reconstructs a Signature from an Authorization header
// value. Any deviation from the transport encoding - wrong scheme, unknown
// or repeated parameters, missing parameters, bad base64 - is a structural
// error wrapping ErrMalformedHeader. The digest itself is not checked here.
func ParseAuthorization(value string) (*Signature, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: empty value", ErrMalformedHeader)
	}

	scheme, rest, found := strings.Cut(value, " ")
	if !found || !strings.EqualFold(scheme, HeaderScheme) {
		return nil, fmt.Errorf("%w: expected %s auth scheme", ErrMalformedHeader, HeaderScheme)
	}

	params, err := parseParams(rest)
	if err != nil {
		return nil, err
	}

	keyID, ok := params["keyId"]
	if !ok {
		return nil, fmt.Errorf("%w: missing keyId parameter", ErrMalformedHeader)
	}
	algorithm, ok := params["algorithm"]
	if !ok {
		return nil, fmt.Errorf("%w: missing algorithm parameter", ErrMalformedHeader)
	}
	headerList, ok := params["headers"]
	if !ok {
		return nil, fmt.Errorf("%w: missing headers parameter", ErrMalformedHeader)
	}
	encoded, ok := params["signature"]
	if !ok {
		return nil, fmt.Errorf("%w: missing signature parameter", ErrMalformedHeader)
	}

	digest, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not valid base64", ErrMalformedHeader)
	}

	components := strings.Fields(headerList)
	if len(components) == 0 {
		return nil, fmt.Errorf("%w: headers parameter is empty", ErrMalformedHeader)
	}
	for i, name := range components {
		components[i] = strings.ToLower(name)
	}

	return &Signature{
		KeyID:      keyID,
		Algorithm:  algorithm,
		Components: components,
		Digest:     digest,
	}, nil
}

// knownParams are the transport parameters the codec understands. created
// and expires are accepted for interoperability with signing clients that
// send them; freshness enforcement is not a codec concern.
var knownParams = map[string]bool{
	"keyId":     true,
	"algorithm": true,
	"headers":   true,
	"signature": true,
	"created":   true,
	"expires":   true,
}

// parseParams scans comma-separated name="value" pairs. Commas inside quoted
// values do not split pairs.
func parseParams(s string) (map[string]string, error) {
	params := make(map[string]string, 4)

	for len(s) > 0 {
		s = strings.TrimLeft(s, " \t")

		eq := strings.IndexByte(s, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("%w: expected name=\"value\" parameter", ErrMalformedHeader)
		}
		name := strings.TrimSpace(s[:eq])
		s = s[eq+1:]

		if len(s) == 0 || s[0] != '"' {
			return nil, fmt.Errorf("%w: parameter %q value is not quoted", ErrMalformedHeader, name)
		}
		s = s[1:]

		end := strings.IndexByte(s, '"')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated quoted value for parameter %q", ErrMalformedHeader, name)
		}
		value := s[:end]
		s = s[end+1:]

		if !knownParams[name] {
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrMalformedHeader, name)
		}
		if _, dup := params[name]; dup {
			return nil, fmt.Errorf("%w: repeated parameter %q", ErrMalformedHeader, name)
		}
		params[name] = value

		s = strings.TrimLeft(s, " \t")
		if len(s) > 0 {
			if s[0] != ',' {
				return nil, fmt.Errorf("%w: expected comma between parameters", ErrMalformedHeader)
			}
			s = s[1:]
		}
	}

	return params, nil
}
