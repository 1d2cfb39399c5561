package ports

import (
	"crypto/rsa"
	"crypto/x509"
	"time"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
)

// Assertion is an opaque handle on a parsed security assertion document.
// The concrete representation belongs to the adapter; the core only reads
// the correlation fields.
type Assertion interface {
	// ID returns the document identifier.
	ID() string

	// Issuer returns the declared issuer, or "" if absent.
	Issuer() string

	// InResponseTo returns the id this document answers, or "" for an
	// unsolicited document.
	InResponseTo() string
}

// RequestAssertionOptions parameterize an outbound authentication request
// document.
type RequestAssertionOptions struct {
	// ID becomes the document identifier. The identity provider echoes
	// it as InResponseTo, so it carries the token id verbatim.
	ID          string
	Issuer      string
	Destination string
	IssuedAt    time.Time
}

// ResponseAssertionOptions parameterize an outbound authentication
// response document.
type ResponseAssertionOptions struct {
	Audience    string
	Destination string
	IssuedAt    time.Time
	Validity    time.Duration
}

// SignatureOptions bundle the key material for an enveloped signature.
type SignatureOptions struct {
	Key         *rsa.PrivateKey
	Certificate *x509.Certificate

	// SignatureMethod selects the signature algorithm: "rsa-sha256",
	// "rsa-sha384", or "rsa-sha512". Empty selects the adapter default.
	SignatureMethod string
}

// EncryptionOptions bundle the recipient certificate for assertion
// encryption.
type EncryptionOptions struct {
	Certificate *x509.Certificate
}

// AssertionAdapter converts between the wire assertion format and the
// light data model. Implementations own parsing, signature verification,
// signing, and encryption of the underlying documents.
type AssertionAdapter interface {
	// Parse parses a raw assertion document. Malformed input is a parse
	// error.
	Parse(raw []byte) (Assertion, error)

	// VerifySignature validates the enveloped signature against the
	// given trust anchor. An invalid or missing signature is a security
	// error.
	VerifySignature(a Assertion, cert *x509.Certificate) error

	// ToLightRequest derives a light request from an authentication
	// request document.
	ToLightRequest(a Assertion) (*domain.LightRequest, error)

	// ToLightResponse derives a light response from an authentication
	// response document.
	ToLightResponse(a Assertion) (*domain.LightResponse, error)

	// FromLightRequest builds an authentication request document.
	FromLightRequest(request *domain.LightRequest, opts RequestAssertionOptions) (Assertion, error)

	// FromLightResponse builds an authentication response document.
	FromLightResponse(response *domain.LightResponse, opts ResponseAssertionOptions) (Assertion, error)

	// Sign adds an enveloped signature covering the current document
	// bytes. Callers that also encrypt must encrypt first.
	Sign(a Assertion, opts SignatureOptions) (Assertion, error)

	// Encrypt encrypts the assertion payload to the recipient.
	Encrypt(a Assertion, opts EncryptionOptions) (Assertion, error)

	// Marshal serializes the document to its wire bytes.
	Marshal(a Assertion) ([]byte, error)
}
