//go:build unit

package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
	"github.com/vrk-kpa/eidas-bridge/internal/core/ports"
)

// testCertificate generates a throwaway self-signed certificate.
func testCertificate(t *testing.T) *x509.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert
}

// fakeStore is an in-memory LightStorage that records its calls and can
// fail on demand.
type fakeStore struct {
	requests  map[string]*domain.LightRequest
	responses map[string]*domain.LightResponse

	putRequestKeys  []string
	putResponseKeys []string

	putRequestErr  error
	getRequestErr  error
	putResponseErr error
	popResponseErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests:  make(map[string]*domain.LightRequest),
		responses: make(map[string]*domain.LightResponse),
	}
}

func (s *fakeStore) PutLightRequest(_ context.Context, id string, request *domain.LightRequest) error {
	if s.putRequestErr != nil {
		return s.putRequestErr
	}
	s.putRequestKeys = append(s.putRequestKeys, id)
	s.requests[id] = request
	return nil
}

func (s *fakeStore) GetLightRequest(_ context.Context, id string) (*domain.LightRequest, error) {
	if s.getRequestErr != nil {
		return nil, s.getRequestErr
	}
	return s.requests[id], nil
}

func (s *fakeStore) PutLightResponse(_ context.Context, id string, response *domain.LightResponse) error {
	if s.putResponseErr != nil {
		return s.putResponseErr
	}
	s.putResponseKeys = append(s.putResponseKeys, id)
	s.responses[id] = response
	return nil
}

func (s *fakeStore) PopLightResponse(_ context.Context, id string) (*domain.LightResponse, error) {
	if s.popResponseErr != nil {
		return nil, s.popResponseErr
	}
	response, ok := s.responses[id]
	if !ok {
		return nil, nil
	}
	delete(s.responses, id)
	return response, nil
}

// fakeAssertion is a scripted assertion handle.
type fakeAssertion struct {
	id           string
	issuer       string
	inResponseTo string
}

func (a *fakeAssertion) ID() string           { return a.id }
func (a *fakeAssertion) Issuer() string       { return a.issuer }
func (a *fakeAssertion) InResponseTo() string { return a.inResponseTo }

// fakeAdapter is a scripted AssertionAdapter. It records operations in
// order so tests can assert sequencing, and captures the options passed
// to the build methods.
type fakeAdapter struct {
	parsed   *fakeAssertion
	request  *domain.LightRequest
	response *domain.LightResponse
	document []byte

	parseErr  error
	verifyErr error

	ops []string

	builtRequest      *domain.LightRequest
	builtRequestOpts  ports.RequestAssertionOptions
	builtResponse     *domain.LightResponse
	builtResponseOpts ports.ResponseAssertionOptions
}

func (f *fakeAdapter) Parse(raw []byte) (ports.Assertion, error) {
	f.ops = append(f.ops, "parse")
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.parsed, nil
}

func (f *fakeAdapter) VerifySignature(a ports.Assertion, cert *x509.Certificate) error {
	f.ops = append(f.ops, "verify")
	return f.verifyErr
}

func (f *fakeAdapter) ToLightRequest(a ports.Assertion) (*domain.LightRequest, error) {
	f.ops = append(f.ops, "to_request")
	if f.request == nil {
		return nil, domain.ValidationError("no request scripted")
	}
	return f.request, nil
}

func (f *fakeAdapter) ToLightResponse(a ports.Assertion) (*domain.LightResponse, error) {
	f.ops = append(f.ops, "to_response")
	if f.response == nil {
		return nil, domain.ValidationError("no response scripted")
	}
	return f.response, nil
}

func (f *fakeAdapter) FromLightRequest(request *domain.LightRequest, opts ports.RequestAssertionOptions) (ports.Assertion, error) {
	f.ops = append(f.ops, "from_request")
	f.builtRequest = request
	f.builtRequestOpts = opts
	return &fakeAssertion{id: opts.ID, issuer: opts.Issuer}, nil
}

func (f *fakeAdapter) FromLightResponse(response *domain.LightResponse, opts ports.ResponseAssertionOptions) (ports.Assertion, error) {
	f.ops = append(f.ops, "from_response")
	f.builtResponse = response
	f.builtResponseOpts = opts
	return &fakeAssertion{id: response.ID, issuer: response.Issuer, inResponseTo: response.InResponseToID}, nil
}

func (f *fakeAdapter) Sign(a ports.Assertion, opts ports.SignatureOptions) (ports.Assertion, error) {
	f.ops = append(f.ops, "sign")
	return a, nil
}

func (f *fakeAdapter) Encrypt(a ports.Assertion, opts ports.EncryptionOptions) (ports.Assertion, error) {
	f.ops = append(f.ops, "encrypt")
	return a, nil
}

func (f *fakeAdapter) Marshal(a ports.Assertion) ([]byte, error) {
	f.ops = append(f.ops, "marshal")
	if f.document != nil {
		return f.document, nil
	}
	return []byte("<document/>"), nil
}

var _ ports.LightStorage = (*fakeStore)(nil)
var _ ports.AssertionAdapter = (*fakeAdapter)(nil)
