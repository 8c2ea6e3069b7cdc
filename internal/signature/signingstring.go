package signature

import (
	"strings"
)

// RequestTarget is the pseudo-component that binds a signature to the
// request method and target, preventing replay against another endpoint.
const RequestTarget = "(request-target)"

// BuildSigningString serializes a canonical request into the exact byte
// sequence that gets signed. For each component name, in order, it emits
// "<name>: <value>" with lines joined by \n. Component names are matched
// against request headers case-insensitively and emitted lower-cased. The
// RequestTarget pseudo-component emits "<lowercased-method> <target>".
//
// The result is a pure function of its inputs: identical request and
// component list produce byte-identical output on signer and verifier.
func BuildSigningString(req *CanonicalRequest, components []string) ([]byte, error) {
	if len(components) == 0 {
		return nil, ErrEmptyComponentList
	}

	var b strings.Builder
	for i, name := range components {
		lower := strings.ToLower(strings.TrimSpace(name))

		var value string
		if lower == RequestTarget {
			value = strings.ToLower(req.Method) + " " + req.Target
		} else {
			v, ok := req.Header(lower)
			if !ok {
				return nil, &MissingComponentError{Component: lower}
			}
			value = v
		}

		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(lower)
		b.WriteString(": ")
		b.WriteString(value)
	}

	return []byte(b.String()), nil
}

// validateComponents rejects empty and duplicate component lists. Comparison
// is case-insensitive because that is how components match headers.
func validateComponents(components []string) error {
	if len(components) == 0 {
		return ErrEmptyComponentList
	}
	seen := make(map[string]bool, len(components))
	for _, name := range components {
		lower := strings.ToLower(strings.TrimSpace(name))
		if seen[lower] {
			return &DuplicateComponentError{Component: lower}
		}
		seen[lower] = true
	}
	return nil
}
