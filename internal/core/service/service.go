// Package service implements the light-token issuance/validation engine
// and the request-response pairing protocol between a local identity party
// and the shared federation node. The Connector and Proxy Service roles
// run the same two handler types with opposite directions: the side facing
// the identity party issues tokens, the side facing the node redeems them.
package service

import (
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
)

// TokenSettings configure one direction of token exchange with the
// federation node.
type TokenSettings struct {
	// Issuer is written into issued tokens and expected on redeemed
	// ones.
	Issuer string

	// HashAlgorithm names the keyed digest algorithm (e.g. "sha256").
	HashAlgorithm string

	// Secret is shared with the counterpart node.
	Secret string

	// Lifetime bounds the age of redeemed tokens. Zero disables the
	// expiry check.
	Lifetime time.Duration
}

// InboundAssertion is a raw assertion document arriving from the local
// identity party.
type InboundAssertion struct {
	Document       []byte
	CitizenCountry string
	RelayState     string
}

// TokenHandoff is the result of ingesting an assertion: the payload is
// stored and only the encoded token travels onward.
type TokenHandoff struct {
	Token        *domain.LightToken
	EncodedToken string
	RelayState   string
}

// AssertionHandoff is the result of redeeming a token: the outbound
// assertion document for the local identity party.
type AssertionHandoff struct {
	Document   []byte
	RelayState string
}

// Option configures optional handler behavior.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

func defaultOptions() options {
	return options{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock overrides the time source. For testing.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides the correlation id source. For testing.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// issueToken creates and encodes a fresh token carrying a new prefixed
// correlation id.
func issueToken(settings TokenSettings, now time.Time, newID func() string) (*domain.LightToken, string, error) {
	token := &domain.LightToken{
		ID:      domain.TokenIDPrefix + newID(),
		Issuer:  settings.Issuer,
		Created: now.UTC(),
	}
	encoded, err := token.Encode(settings.HashAlgorithm, settings.Secret)
	if err != nil {
		return nil, "", err
	}
	return token, encoded, nil
}

// redeemToken decodes an inbound token and layers the issuer and expiry
// checks on top of the digest verification.
func redeemToken(encoded []byte, settings TokenSettings, now time.Time) (*domain.LightToken, error) {
	token, err := domain.DecodeLightToken(encoded, settings.HashAlgorithm, settings.Secret)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(token.Issuer), []byte(settings.Issuer)) != 1 {
		return nil, domain.SecurityError("invalid token issuer: %q", token.Issuer)
	}
	if settings.Lifetime > 0 && token.Created.Add(settings.Lifetime).Before(now) {
		return nil, domain.SecurityError("token has expired")
	}
	return token, nil
}

func ensureLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
