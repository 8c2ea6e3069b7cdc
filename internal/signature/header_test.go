package signature

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_Format(t *testing.T) {
	sig := &Signature{
		KeyID:      "client-1",
		Algorithm:  AlgorithmHMACSHA256,
		Components: []string{RequestTarget, "date", "host"},
		Digest:     []byte("digest-bytes"),
	}

	got := sig.Format()
	want := fmt.Sprintf(`Signature keyId="client-1",algorithm="hmac-sha256",headers="(request-target) date host",signature="%s"`,
		base64.StdEncoding.EncodeToString([]byte("digest-bytes")))
	assert.Equal(t, want, got)
}

func TestParseAuthorization_RoundTrip(t *testing.T) {
	original := &Signature{
		KeyID:      "client-1",
		Algorithm:  AlgorithmHMACSHA512,
		Components: []string{RequestTarget, "date"},
		Digest:     []byte{0xde, 0xad, 0xbe, 0xef},
	}

	parsed, err := ParseAuthorization(original.Format())
	require.NoError(t, err)

	assert.Equal(t, original.KeyID, parsed.KeyID)
	assert.Equal(t, original.Algorithm, parsed.Algorithm)
	assert.Equal(t, original.Components, parsed.Components)
	assert.Equal(t, original.Digest, parsed.Digest)
}

func TestParseAuthorization_SchemeCaseInsensitive(t *testing.T) {
	parsed, err := ParseAuthorization(`signature keyId="k",algorithm="hmac-sha1",headers="(request-target)",signature="AA=="`)
	require.NoError(t, err)
	assert.Equal(t, "k", parsed.KeyID)
}

func TestParseAuthorization_ComponentsLowerCased(t *testing.T) {
	parsed, err := ParseAuthorization(`Signature keyId="k",algorithm="hmac-sha1",headers="(request-target) Date HOST",signature="AA=="`)
	require.NoError(t, err)
	assert.Equal(t, []string{RequestTarget, "date", "host"}, parsed.Components)
}

func TestParseAuthorization_AcceptsCreatedExpires(t *testing.T) {
	parsed, err := ParseAuthorization(`Signature keyId="k",algorithm="hmac-sha1",headers="(request-target)",signature="AA==",created="1700000000",expires="1700000300"`)
	require.NoError(t, err)
	assert.Equal(t, "k", parsed.KeyID)
}

func TestParseAuthorization_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"wrong scheme", `Bearer abc123`},
		{"scheme only", `Signature`},
		{"missing keyId", `Signature algorithm="hmac-sha1",headers="(request-target)",signature="AA=="`},
		{"missing algorithm", `Signature keyId="k",headers="(request-target)",signature="AA=="`},
		{"missing headers", `Signature keyId="k",algorithm="hmac-sha1",signature="AA=="`},
		{"missing signature", `Signature keyId="k",algorithm="hmac-sha1",headers="(request-target)"`},
		{"empty headers list", `Signature keyId="k",algorithm="hmac-sha1",headers="",signature="AA=="`},
		{"unquoted value", `Signature keyId=k,algorithm="hmac-sha1",headers="(request-target)",signature="AA=="`},
		{"unterminated quote", `Signature keyId="k,algorithm="hmac-sha1"`},
		{"unknown parameter", `Signature keyId="k",algorithm="hmac-sha1",headers="(request-target)",signature="AA==",nonce="x"`},
		{"repeated parameter", `Signature keyId="k",keyId="k2",algorithm="hmac-sha1",headers="(request-target)",signature="AA=="`},
		{"bad base64", `Signature keyId="k",algorithm="hmac-sha1",headers="(request-target)",signature="%%%"`},
		{"missing comma", `Signature keyId="k" algorithm="hmac-sha1",headers="(request-target)",signature="AA=="`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAuthorization(tt.value)
			assert.ErrorIs(t, err, ErrMalformedHeader)
		})
	}
}

func TestParseAuthorization_CommaInsideQuotedValue(t *testing.T) {
	// keyId values may legally contain commas; they must not split pairs.
	parsed, err := ParseAuthorization(`Signature keyId="tenant,client-1",algorithm="hmac-sha1",headers="(request-target)",signature="AA=="`)
	require.NoError(t, err)
	assert.Equal(t, "tenant,client-1", parsed.KeyID)
}
