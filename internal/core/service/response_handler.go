package service

import (
	"context"
	"crypto/x509"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
	"github.com/vrk-kpa/eidas-bridge/internal/core/ports"
)

// ResponseHandlerConfig parameterize a ResponseHandler for one node role.
// The Proxy Service fills the Issue half (ingesting identity provider
// responses); the Connector fills the Redeem half (emitting service
// provider responses).
type ResponseHandlerConfig struct {
	// VerifyCertificate, when set, is the trust anchor for the inbound
	// response signature.
	VerifyCertificate *x509.Certificate

	// LightIssuer replaces the inbound issuer in the stored light
	// response.
	LightIssuer string

	// IssueToken configures tokens written toward the federation node.
	IssueToken TokenSettings

	// RedeemToken configures tokens accepted from the federation node.
	RedeemToken TokenSettings

	// AssertionIssuer is the issuer of the response document built on
	// redemption; it is the issuer registered at the local party.
	AssertionIssuer string

	// Audience of the built response (the issuer of the original
	// request).
	Audience string

	// Destination is the local party endpoint named in the built
	// response.
	Destination string

	// Validity is the validity window of the built response.
	Validity time.Duration

	// Signature, when set, signs the built response. Signing always
	// happens after encryption so the signature covers the final wire
	// bytes.
	Signature *ports.SignatureOptions

	// Encryption, when set, encrypts the assertion to the local party.
	Encryption *ports.EncryptionOptions
}

// ResponseHandler moves authentication responses across one federation
// hop. Safe for concurrent use.
type ResponseHandler struct {
	cfg        ResponseHandlerConfig
	assertions ports.AssertionAdapter
	store      ports.LightStorage
	logger     *zap.Logger
	metrics    ports.MetricsRecorder
	now        func() time.Time
	newID      func() string
}

// NewResponseHandler creates a response handler. Logger and metrics may
// be nil.
func NewResponseHandler(cfg ResponseHandlerConfig, assertions ports.AssertionAdapter, store ports.LightStorage, logger *zap.Logger, metrics ports.MetricsRecorder, opts ...Option) *ResponseHandler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &ResponseHandler{
		cfg:        cfg,
		assertions: assertions,
		store:      store,
		logger:     ensureLogger(logger),
		metrics:    metrics,
		now:        o.now,
		newID:      o.newID,
	}
}

// Issue ingests an authentication response from the local identity
// provider, pairs it with the stored light request, and stores the
// resulting light response under a fresh token id. The in-response-to
// value is never used verbatim as a store key without its prefix check:
// an attacker-controlled response cannot address arbitrary keys.
func (h *ResponseHandler) Issue(ctx context.Context, in InboundAssertion) (*TokenHandoff, error) {
	a, err := h.assertions.Parse(in.Document)
	if err != nil {
		return nil, err
	}
	if h.cfg.VerifyCertificate != nil {
		if err := h.assertions.VerifySignature(a, h.cfg.VerifyCertificate); err != nil {
			return nil, err
		}
	}
	inResponseTo := a.InResponseTo()
	if !strings.HasPrefix(inResponseTo, domain.TokenIDPrefix) {
		return nil, domain.SecurityError("invalid in-response-to id: %q", inResponseTo)
	}
	request, err := h.store.GetLightRequest(ctx, inResponseTo)
	if err != nil {
		h.recordStorageFailure("get_request")
		return nil, err
	}
	if request == nil {
		return nil, domain.SecurityError("cannot pair light response and request")
	}
	response, err := h.assertions.ToLightResponse(a)
	if err != nil {
		return nil, err
	}
	response.InResponseToID = request.ID
	response.Issuer = h.cfg.LightIssuer
	if in.RelayState != "" {
		response.RelayState = in.RelayState
	} else if response.RelayState == "" {
		response.RelayState = request.RelayState
	}

	token, encoded, err := issueToken(h.cfg.IssueToken, h.now(), h.newID)
	if err != nil {
		return nil, err
	}
	// The stored payload's key and id are always the token id.
	response.ID = token.ID
	if err := response.Validate(); err != nil {
		return nil, err
	}
	if err := h.store.PutLightResponse(ctx, token.ID, response); err != nil {
		h.recordStorageFailure("put_response")
		return nil, err
	}
	h.logger.Info("light response stored",
		zap.String("token_id", token.ID),
		zap.String("in_response_to", response.InResponseToID),
		zap.Bool("failure", response.Status.Failure))
	if h.metrics != nil {
		h.metrics.RecordTokenIssued(ports.FlowResponse)
	}
	return &TokenHandoff{Token: token, EncodedToken: encoded, RelayState: response.RelayState}, nil
}

// Redeem consumes a response token from the counterpart node, pops the
// referenced light response, and builds the response document for the
// local service provider. The pop guarantees at-most-once delivery: a
// second redemption of the same token fails.
func (h *ResponseHandler) Redeem(ctx context.Context, encodedToken []byte) (*AssertionHandoff, error) {
	token, err := redeemToken(encodedToken, h.cfg.RedeemToken, h.now())
	if err != nil {
		h.recordRedeemed(false)
		return nil, err
	}
	response, err := h.store.PopLightResponse(ctx, token.ID)
	if err != nil {
		h.recordStorageFailure("pop_response")
		return nil, err
	}
	if response == nil {
		h.recordRedeemed(false)
		return nil, domain.SecurityError("response not found in light storage")
	}
	// Replace the issuer with the one registered at the local party.
	response.Issuer = h.cfg.AssertionIssuer
	a, err := h.assertions.FromLightResponse(response, ports.ResponseAssertionOptions{
		Audience:    h.cfg.Audience,
		Destination: h.cfg.Destination,
		IssuedAt:    h.now(),
		Validity:    h.cfg.Validity,
	})
	if err != nil {
		h.recordRedeemed(false)
		return nil, err
	}
	// Encrypt before signing, never the other way around: the signature
	// must cover the final wire bytes.
	if h.cfg.Encryption != nil {
		if a, err = h.assertions.Encrypt(a, *h.cfg.Encryption); err != nil {
			h.recordRedeemed(false)
			return nil, err
		}
	}
	if h.cfg.Signature != nil {
		if a, err = h.assertions.Sign(a, *h.cfg.Signature); err != nil {
			h.recordRedeemed(false)
			return nil, err
		}
	}
	document, err := h.assertions.Marshal(a)
	if err != nil {
		h.recordRedeemed(false)
		return nil, err
	}
	h.logger.Info("response token redeemed",
		zap.String("token_id", token.ID),
		zap.String("in_response_to", response.InResponseToID))
	h.recordRedeemed(true)
	return &AssertionHandoff{Document: document, RelayState: response.RelayState}, nil
}

func (h *ResponseHandler) recordRedeemed(success bool) {
	if h.metrics != nil {
		h.metrics.RecordTokenRedeemed(ports.FlowResponse, success)
	}
}

func (h *ResponseHandler) recordStorageFailure(operation string) {
	if h.metrics != nil {
		h.metrics.RecordStorageFailure(operation)
	}
}
