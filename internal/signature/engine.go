package signature

import (
	"crypto/hmac"
	"fmt"
	"strings"
	"time"
)

// Spec describes how a request should be signed: which key, which algorithm,
// and which components in which order. Created is informational; freshness
// checks are a caller concern.
type Spec struct {
	KeyID      string
	Algorithm  string
	Components []string
	Created    time.Time
}

// Validate checks the spec for structural problems before signing.
func (s Spec) Validate() error {
	if s.KeyID == "" {
		return fmt.Errorf("signature: spec key id is required")
	}
	if !AlgorithmSupported(s.Algorithm) {
		return &UnsupportedAlgorithmError{Algorithm: s.Algorithm}
	}
	return validateComponents(s.Components)
}

// Signature is a computed or received request signature. Components is the
// list exactly as transmitted; the verifier rebuilds the signing string from
// it rather than from its own configuration.
type Signature struct {
	KeyID      string
	Algorithm  string
	Components []string
	Digest     []byte
}

// Engine signs and verifies requests against a mandatory-component policy.
// The zero value requires only (request-target); NewEngine folds additional
// mandatory components in.
type Engine struct {
	mandatory []string
}

// NewEngine creates an engine whose verification policy requires the given
// components. (request-target) is always mandatory and need not be listed.
func NewEngine(mandatory ...string) *Engine {
	lowered := make([]string, 0, len(mandatory)+1)
	seen := map[string]bool{}
	for _, name := range append([]string{RequestTarget}, mandatory...) {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		lowered = append(lowered, lower)
	}
	return &Engine{mandatory: lowered}
}

// MandatoryComponents returns the engine's mandatory component policy.
func (e *Engine) MandatoryComponents() []string {
	out := make([]string, len(e.mandatory))
	copy(out, e.mandatory)
	return out
}

// Sign builds the signing string for req per spec and computes the keyed
// digest with the shared secret.
func (e *Engine) Sign(key []byte, spec Spec, req *CanonicalRequest) (*Signature, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("signature: signing key is empty")
	}

	msg, err := BuildSigningString(req, spec.Components)
	if err != nil {
		return nil, err
	}

	digest, err := computeDigest(key, spec.Algorithm, msg)
	if err != nil {
		return nil, err
	}

	components := make([]string, len(spec.Components))
	for i, name := range spec.Components {
		components[i] = strings.ToLower(strings.TrimSpace(name))
	}

	return &Signature{
		KeyID:      spec.KeyID,
		Algorithm:  spec.Algorithm,
		Components: components,
		Digest:     digest,
	}, nil
}

// Verify recomputes the digest over the signing string derived from the
// presented component list and compares it to the received digest in
// constant time.
//
// A forged or stale digest is not an error: Verify returns (false, nil).
// Errors are reserved for structurally unusable input - unknown algorithm,
// duplicate or empty component list, a component list that fails the
// mandatory policy, or a named header the request does not carry.
func (e *Engine) Verify(key []byte, sig *Signature, req *CanonicalRequest) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("signature: verification key is empty")
	}
	if _, err := hashForAlgorithm(sig.Algorithm); err != nil {
		return false, err
	}
	if err := validateComponents(sig.Components); err != nil {
		return false, err
	}
	if err := e.checkMandatory(sig.Components); err != nil {
		return false, err
	}

	msg, err := BuildSigningString(req, sig.Components)
	if err != nil {
		return false, err
	}

	expected, err := computeDigest(key, sig.Algorithm, msg)
	if err != nil {
		return false, err
	}

	return hmac.Equal(expected, sig.Digest), nil
}

// SigningString exposes the exact bytes the engine would sign for the given
// component list. Used by the diagnostic debug surface.
func (e *Engine) SigningString(sig *Signature, req *CanonicalRequest) ([]byte, error) {
	return BuildSigningString(req, sig.Components)
}

func (e *Engine) checkMandatory(presented []string) error {
	have := make(map[string]bool, len(presented))
	for _, name := range presented {
		have[strings.ToLower(strings.TrimSpace(name))] = true
	}
	for _, required := range e.mandatory {
		if !have[required] {
			return &InsufficientHeadersError{Component: required}
		}
	}
	return nil
}

func computeDigest(key []byte, algorithm string, message []byte) ([]byte, error) {
	newHash, err := hashForAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(newHash, key)
	mac.Write(message)
	return mac.Sum(nil), nil
}
