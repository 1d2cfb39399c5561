package domain

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"strings"
	"time"
)

const (
	// TokenIDPrefix marks an identifier as a token id (a store key) as
	// opposed to a raw assertion id. Both ends of a federation hop must
	// agree on it bit for bit.
	TokenIDPrefix = "T"

	// MaxEncodedTokenSize is the maximal accepted size of an encoded
	// token in bytes.
	MaxEncodedTokenSize = 1024

	tokenFieldCount = 4
)

// hashConstructors lists the digest algorithms accepted in token settings.
var hashConstructors = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// LightToken is the opaque, authenticated reference exchanged between
// nodes in place of a full assertion. Its ID keys the stored
// LightRequest/LightResponse payload.
type LightToken struct {
	// ID is a unique identifier referencing the stored payload.
	ID string

	// Issuer identifies the component that produced the token.
	Issuer string

	// Created is the token creation time, UTC, millisecond precision.
	Created time.Time
}

// Validate checks the token fields. The field delimiter "|" must not
// appear in ID or Issuer.
func (t *LightToken) Validate() error {
	if t.ID == "" || t.Issuer == "" {
		return ValidationError("light token: id and issuer are required")
	}
	if t.Created.IsZero() {
		return ValidationError("light token: created timestamp is required")
	}
	if strings.Contains(t.ID, "|") {
		return ValidationError(`light token: character "|" not allowed in id`)
	}
	if strings.Contains(t.Issuer, "|") {
		return ValidationError(`light token: character "|" not allowed in issuer`)
	}
	return nil
}

// Digest computes the keyed digest over id, issuer, and the canonical
// timestamp using the shared secret. It returns raw bytes.
func (t *LightToken) Digest(hashAlgorithm, secret string) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	newHash, ok := hashConstructors[hashAlgorithm]
	if !ok {
		return nil, ValidationError("unsupported hash algorithm %q", hashAlgorithm)
	}
	data := strings.Join([]string{t.ID, t.Issuer, FormatTimestamp(t.Created), secret}, "|")
	h := newHash()
	h.Write([]byte(data))
	return h.Sum(nil), nil
}

// Encode produces the wire form of the token: a base64-encoded delimited
// string of issuer, id, timestamp, and base64 digest.
func (t *LightToken) Encode(hashAlgorithm, secret string) (string, error) {
	digest, err := t.Digest(hashAlgorithm, secret)
	if err != nil {
		return "", err
	}
	data := strings.Join([]string{
		t.Issuer,
		t.ID,
		FormatTimestamp(t.Created),
		base64.StdEncoding.EncodeToString(digest),
	}, "|")
	return base64.StdEncoding.EncodeToString([]byte(data)), nil
}

// DecodeLightToken decodes an encoded token and verifies its digest in
// constant time. It returns a parse error for a malformed wire form, a
// validation error for invalid field values, and a security error for a
// digest mismatch. Callers layer issuer and expiry checks on top.
func DecodeLightToken(encoded []byte, hashAlgorithm, secret string) (*LightToken, error) {
	if len(encoded) > MaxEncodedTokenSize {
		return nil, ParseError("maximal token size exceeded")
	}
	data, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, ParseError("token is not valid base64: %v", err)
	}
	parts := strings.Split(string(data), "|")
	if len(parts) != tokenFieldCount {
		return nil, ParseError("token has wrong number of parts: %d", len(parts))
	}
	created, err := ParseTimestamp(parts[2])
	if err != nil {
		return nil, err
	}
	token := &LightToken{Issuer: parts[0], ID: parts[1], Created: created}
	if err := token.Validate(); err != nil {
		return nil, err
	}
	providedDigest, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, ParseError("token digest is not valid base64: %v", err)
	}
	validDigest, err := token.Digest(hashAlgorithm, secret)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal(validDigest, providedDigest) {
		return nil, SecurityError("light token has invalid digest")
	}
	return token, nil
}
