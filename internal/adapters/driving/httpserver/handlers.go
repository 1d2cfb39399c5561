package httpserver

import (
	"encoding/base64"
	"net/http"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
	"github.com/vrk-kpa/eidas-bridge/internal/core/service"
)

// Form fields of the SAML POST binding.
const (
	samlRequestField  = "SAMLRequest"
	samlResponseField = "SAMLResponse"
	relayStateField   = "RelayState"
)

// handleServiceProviderRequest ingests an authentication request from a
// local service provider and hands the request token off to the
// federation node.
func (s *Server) handleServiceProviderRequest(w http.ResponseWriter, r *http.Request) {
	document, err := decodeDocumentField(r, samlRequestField)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	handoff, err := s.requests.Issue(r.Context(), service.InboundAssertion{
		Document:       document,
		CitizenCountry: r.PostFormValue(s.cfg.CountryParameter),
		RelayState:     r.PostFormValue(relayStateField),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeHandoff(w, s.cfg.NodeRequestURL, []HandoffField{
		{Name: s.cfg.RequestTokenParameter, Value: handoff.EncodedToken},
		{Name: relayStateField, Value: handoff.RelayState},
	})
}

// handleConnectorResponse redeems a response token from the federation
// node and posts the built response document to the service provider.
func (s *Server) handleConnectorResponse(w http.ResponseWriter, r *http.Request) {
	token, err := tokenField(r, s.cfg.ResponseTokenParameter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	handoff, err := s.responses.Redeem(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeHandoff(w, s.cfg.ServiceProviderEndpoint, []HandoffField{
		{Name: samlResponseField, Value: base64.StdEncoding.EncodeToString(handoff.Document)},
		{Name: relayStateField, Value: handoff.RelayState},
	})
}

// handleProxyServiceRequest redeems a request token from the federation
// node and posts the built authentication request to the identity
// provider.
func (s *Server) handleProxyServiceRequest(w http.ResponseWriter, r *http.Request) {
	token, err := tokenField(r, s.cfg.RequestTokenParameter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	handoff, err := s.requests.Redeem(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeHandoff(w, s.cfg.IdentityProviderEndpoint, []HandoffField{
		{Name: samlRequestField, Value: base64.StdEncoding.EncodeToString(handoff.Document)},
		{Name: relayStateField, Value: handoff.RelayState},
	})
}

// handleIdentityProviderResponse ingests an authentication response
// from the local identity provider and hands the response token off to
// the federation node.
func (s *Server) handleIdentityProviderResponse(w http.ResponseWriter, r *http.Request) {
	document, err := decodeDocumentField(r, samlResponseField)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	handoff, err := s.responses.Issue(r.Context(), service.InboundAssertion{
		Document:   document,
		RelayState: r.PostFormValue(relayStateField),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeHandoff(w, s.cfg.NodeResponseURL, []HandoffField{
		{Name: s.cfg.ResponseTokenParameter, Value: handoff.EncodedToken},
		{Name: relayStateField, Value: handoff.RelayState},
	})
}

// decodeDocumentField reads a base64 encoded SAML document form field.
func decodeDocumentField(r *http.Request, field string) ([]byte, error) {
	value := r.PostFormValue(field)
	if value == "" {
		return nil, domain.ParseError("missing %s form field", field)
	}
	document, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, domain.ParseError("cannot decode %s form field: %v", field, err)
	}
	return document, nil
}

// tokenField reads an encoded light token form field. The token stays
// base64 encoded; decoding belongs to the token engine.
func tokenField(r *http.Request, field string) ([]byte, error) {
	value := r.PostFormValue(field)
	if value == "" {
		return nil, domain.ParseError("missing %s form field", field)
	}
	return []byte(value), nil
}
