package service

import (
	"context"
	"crypto/subtle"
	"crypto/x509"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
	"github.com/vrk-kpa/eidas-bridge/internal/core/ports"
)

// RequestHandlerConfig parameterize a RequestHandler for one node role.
// The Connector fills the Issue half (ingesting service provider
// requests); the Proxy Service fills the Redeem half (emitting identity
// provider requests). All fields are read-only after construction.
type RequestHandlerConfig struct {
	// ExpectedIssuer is the issuer an inbound authentication request
	// must declare. Compared in constant time.
	ExpectedIssuer string

	// VerifyCertificate, when set, is the trust anchor for the inbound
	// request signature.
	VerifyCertificate *x509.Certificate

	// LightIssuer replaces the verified inbound issuer in the stored
	// light request.
	LightIssuer string

	// AllowedAttributes is the attribute allow-list. Empty permits all.
	AllowedAttributes map[string]bool

	// MandatoryAttributes are always requested. Nil selects the
	// registry's mandatory minimum data set.
	MandatoryAttributes []string

	// IssueToken configures tokens written toward the federation node.
	IssueToken TokenSettings

	// RedeemToken configures tokens accepted from the federation node.
	RedeemToken TokenSettings

	// AssertionIssuer is the issuer of the authentication request built
	// on redemption.
	AssertionIssuer string

	// Destination is the identity provider endpoint named in the built
	// authentication request.
	Destination string
}

// RequestHandler moves authentication requests across one federation hop.
// It is safe for concurrent use: all per-operation state lives on the
// stack.
type RequestHandler struct {
	cfg        RequestHandlerConfig
	assertions ports.AssertionAdapter
	store      ports.LightStorage
	logger     *zap.Logger
	metrics    ports.MetricsRecorder
	now        func() time.Time
	newID      func() string
}

// NewRequestHandler creates a request handler. Logger and metrics may be
// nil.
func NewRequestHandler(cfg RequestHandlerConfig, assertions ports.AssertionAdapter, store ports.LightStorage, logger *zap.Logger, metrics ports.MetricsRecorder, opts ...Option) *RequestHandler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RequestHandler{
		cfg:        cfg,
		assertions: assertions,
		store:      store,
		logger:     ensureLogger(logger),
		metrics:    metrics,
		now:        o.now,
		newID:      o.newID,
	}
}

// Issue ingests an authentication request from the local service provider:
// parse, verify, derive a light request, apply the attribute policy, and
// store it under a fresh token id. Nothing is stored and no token is
// issued unless every step succeeds.
func (h *RequestHandler) Issue(ctx context.Context, in InboundAssertion) (*TokenHandoff, error) {
	a, err := h.assertions.Parse(in.Document)
	if err != nil {
		return nil, err
	}
	if h.cfg.VerifyCertificate != nil {
		if err := h.assertions.VerifySignature(a, h.cfg.VerifyCertificate); err != nil {
			return nil, err
		}
	}
	request, err := h.assertions.ToLightRequest(a)
	if err != nil {
		return nil, err
	}
	if request.Issuer == "" ||
		subtle.ConstantTimeCompare([]byte(request.Issuer), []byte(h.cfg.ExpectedIssuer)) != 1 {
		return nil, domain.SecurityError("invalid request issuer: %q", request.Issuer)
	}
	// The verified inbound issuer is not propagated; the stored request
	// carries this node's registered issuer.
	request.Issuer = h.cfg.LightIssuer
	if in.CitizenCountry != "" {
		request.CitizenCountryCode = strings.ToUpper(in.CitizenCountry)
	}
	if in.RelayState != "" {
		request.RelayState = in.RelayState
	}

	mandatory := h.cfg.MandatoryAttributes
	if mandatory == nil {
		mandatory = domain.MandatoryAttributeNames()
	}
	dropped := request.AdjustRequestedAttributes(h.cfg.AllowedAttributes, mandatory)
	if len(dropped) > 0 {
		h.logger.Warn("unsupported requested attributes dropped",
			zap.Strings("attributes", dropped))
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	token, encoded, err := issueToken(h.cfg.IssueToken, h.now(), h.newID)
	if err != nil {
		return nil, err
	}
	if err := h.store.PutLightRequest(ctx, token.ID, request); err != nil {
		h.recordStorageFailure("put_request")
		return nil, err
	}
	h.logger.Info("light request stored",
		zap.String("token_id", token.ID),
		zap.String("request_id", request.ID),
		zap.String("issuer", request.Issuer))
	if h.metrics != nil {
		h.metrics.RecordTokenIssued(ports.FlowRequest)
	}
	return &TokenHandoff{Token: token, EncodedToken: encoded, RelayState: request.RelayState}, nil
}

// Redeem consumes a request token from the counterpart node, loads the
// referenced light request, and builds the authentication request for the
// local identity provider. The token id becomes the document id so the
// identity provider's response correlates back to the store key.
func (h *RequestHandler) Redeem(ctx context.Context, encodedToken []byte) (*AssertionHandoff, error) {
	token, err := redeemToken(encodedToken, h.cfg.RedeemToken, h.now())
	if err != nil {
		h.recordRedeemed(false)
		return nil, err
	}
	request, err := h.store.GetLightRequest(ctx, token.ID)
	if err != nil {
		h.recordStorageFailure("get_request")
		return nil, err
	}
	if request == nil {
		h.recordRedeemed(false)
		return nil, domain.SecurityError("request not found in light storage")
	}
	a, err := h.assertions.FromLightRequest(request, ports.RequestAssertionOptions{
		ID:          token.ID,
		Issuer:      h.cfg.AssertionIssuer,
		Destination: h.cfg.Destination,
		IssuedAt:    h.now(),
	})
	if err != nil {
		h.recordRedeemed(false)
		return nil, err
	}
	document, err := h.assertions.Marshal(a)
	if err != nil {
		h.recordRedeemed(false)
		return nil, err
	}
	h.logger.Info("request token redeemed",
		zap.String("token_id", token.ID),
		zap.String("request_id", request.ID))
	h.recordRedeemed(true)
	return &AssertionHandoff{Document: document, RelayState: request.RelayState}, nil
}

func (h *RequestHandler) recordRedeemed(success bool) {
	if h.metrics != nil {
		h.metrics.RecordTokenRedeemed(ports.FlowRequest, success)
	}
}

func (h *RequestHandler) recordStorageFailure(operation string) {
	if h.metrics != nil {
		h.metrics.RecordStorageFailure(operation)
	}
}
