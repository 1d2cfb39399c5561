//go:build unit

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vrk-kpa/eidas-bridge/internal/adapters/driven/assertion"
	"github.com/vrk-kpa/eidas-bridge/internal/adapters/driven/storage"
	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
	"github.com/vrk-kpa/eidas-bridge/internal/core/ports"
)

// TestFullAuthenticationFlow walks one authentication across both
// roles against a shared cache: service provider request in at the
// connector, identity provider request out at the proxy service,
// identity provider response in at the proxy service, and service
// provider response out at the connector. The final response must
// answer the original service provider request id.
func TestFullAuthenticationFlow(t *testing.T) {
	const (
		spIssuer        = "https://sp.example.org/metadata"
		connectorEntity = "https://connector.example.org/metadata"
		proxyEntity     = "https://proxy.example.org/metadata"
		idpIssuer       = "https://idp.example.org/metadata"
	)

	adapter := assertion.New()
	store := storage.NewMemoryStore()
	ctx := context.Background()

	requestToken := testTokenSettings("request")
	responseToken := testTokenSettings("response")

	connectorRequests := NewRequestHandler(RequestHandlerConfig{
		ExpectedIssuer: spIssuer,
		LightIssuer:    "specificCommunicationDefinitionConnectorRequest",
		IssueToken:     requestToken,
		RedeemToken:    requestToken,
	}, adapter, store, nil, nil)

	proxyRequests := NewRequestHandler(RequestHandlerConfig{
		LightIssuer:     "specificCommunicationDefinitionProxyserviceRequest",
		IssueToken:      requestToken,
		RedeemToken:     requestToken,
		AssertionIssuer: proxyEntity,
		Destination:     "https://idp.example.org/sso",
	}, adapter, store, nil, nil)

	proxyResponses := NewResponseHandler(ResponseHandlerConfig{
		LightIssuer: "specificCommunicationDefinitionProxyserviceResponse",
		IssueToken:  responseToken,
		RedeemToken: responseToken,
	}, adapter, store, nil, nil)

	connectorResponses := NewResponseHandler(ResponseHandlerConfig{
		LightIssuer:     "specificCommunicationDefinitionConnectorResponse",
		IssueToken:      responseToken,
		RedeemToken:     responseToken,
		AssertionIssuer: connectorEntity,
		Audience:        spIssuer,
		Destination:     "https://sp.example.org/acs",
		Validity:        10 * time.Minute,
	}, adapter, store, nil, nil)

	// The service provider posts its authentication request to the
	// connector.
	spRequest, err := adapter.FromLightRequest(&domain.LightRequest{
		ID:               "sp-request-original",
		Issuer:           spIssuer,
		LevelOfAssurance: domain.LevelOfAssuranceSubstantial,
		SPType:           domain.ServiceProviderTypePublic,
		RequestedAttributes: map[string][]string{
			domain.AttributePersonIdentifier: {},
		},
	}, ports.RequestAssertionOptions{
		ID:       "sp-request-original",
		Issuer:   spIssuer,
		IssuedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("build sp request: %v", err)
	}
	spRequestDoc, err := adapter.Marshal(spRequest)
	if err != nil {
		t.Fatalf("marshal sp request: %v", err)
	}

	requestHandoff, err := connectorRequests.Issue(ctx, InboundAssertion{
		Document:       spRequestDoc,
		CitizenCountry: "fi",
		RelayState:     "state-xyz",
	})
	if err != nil {
		t.Fatalf("connector issue: %v", err)
	}
	if !strings.HasPrefix(requestHandoff.Token.ID, domain.TokenIDPrefix) {
		t.Fatalf("token id %q lacks the prefix", requestHandoff.Token.ID)
	}

	// The node carries the token across; the proxy service redeems it
	// and emits the identity provider request.
	idpRequestHandoff, err := proxyRequests.Redeem(ctx, []byte(requestHandoff.EncodedToken))
	if err != nil {
		t.Fatalf("proxy redeem: %v", err)
	}
	idpRequest, err := adapter.Parse(idpRequestHandoff.Document)
	if err != nil {
		t.Fatalf("parse idp request: %v", err)
	}
	if idpRequest.ID() != requestHandoff.Token.ID {
		t.Errorf("idp request id = %q, want the token id %q", idpRequest.ID(), requestHandoff.Token.ID)
	}
	if idpRequest.Issuer() != proxyEntity {
		t.Errorf("idp request issuer = %q, want %q", idpRequest.Issuer(), proxyEntity)
	}

	// The identity provider answers, echoing the document id.
	idpResponse, err := adapter.FromLightResponse(&domain.LightResponse{
		ID:                  "idp-response-1",
		InResponseToID:      idpRequest.ID(),
		Issuer:              idpIssuer,
		Subject:             "FI/FI/123456",
		SubjectNameIDFormat: domain.NameIDFormatUnspecified,
		LevelOfAssurance:    domain.LevelOfAssuranceSubstantial,
		Status:              domain.Status{StatusCode: domain.StatusSuccess},
		Attributes: map[string][]string{
			domain.AttributePersonIdentifier: {"FI/FI/123456"},
			domain.AttributeGivenName:        {"Aino"},
		},
	}, ports.ResponseAssertionOptions{
		IssuedAt: time.Now(),
		Validity: 5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("build idp response: %v", err)
	}
	idpResponseDoc, err := adapter.Marshal(idpResponse)
	if err != nil {
		t.Fatalf("marshal idp response: %v", err)
	}

	responseHandoff, err := proxyResponses.Issue(ctx, InboundAssertion{Document: idpResponseDoc})
	if err != nil {
		t.Fatalf("proxy issue: %v", err)
	}
	if responseHandoff.RelayState != "state-xyz" {
		t.Errorf("relay state = %q, want the original state", responseHandoff.RelayState)
	}

	// The connector redeems the response token and answers the service
	// provider.
	finalHandoff, err := connectorResponses.Redeem(ctx, []byte(responseHandoff.EncodedToken))
	if err != nil {
		t.Fatalf("connector redeem: %v", err)
	}
	final, err := adapter.Parse(finalHandoff.Document)
	if err != nil {
		t.Fatalf("parse final response: %v", err)
	}
	if final.InResponseTo() != "sp-request-original" {
		t.Errorf("final in-response-to = %q, want the original sp request id", final.InResponseTo())
	}
	if final.Issuer() != connectorEntity {
		t.Errorf("final issuer = %q, want %q", final.Issuer(), connectorEntity)
	}
	light, err := adapter.ToLightResponse(final)
	if err != nil {
		t.Fatalf("read final response: %v", err)
	}
	if light.Subject != "FI/FI/123456" {
		t.Errorf("subject = %q", light.Subject)
	}
	if got := light.Attributes[domain.AttributeGivenName]; len(got) != 1 || got[0] != "Aino" {
		t.Errorf("given name = %v", got)
	}

	// A replayed response token must fail.
	if _, err := connectorResponses.Redeem(ctx, []byte(responseHandoff.EncodedToken)); !domain.IsSecurityError(err) {
		t.Errorf("replay: expected security error, got %v", err)
	}
}
