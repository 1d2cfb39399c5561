package assertion

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/crewjam/saml"
)

// MetadataOptions parameterize the published node metadata.
type MetadataOptions struct {
	EntityID          string
	AssertionConsumer string
	SigningCert       *x509.Certificate
	EncryptionCert    *x509.Certificate
	ValidUntil        time.Time
}

// BuildMetadata renders the node's SAML metadata so counterpart
// parties can register the bridge endpoint and its key material.
func BuildMetadata(opts MetadataOptions) ([]byte, error) {
	if opts.EntityID == "" {
		return nil, fmt.Errorf("metadata entity id is required")
	}

	signed := true
	var spsso saml.SPSSODescriptor
	spsso.AuthnRequestsSigned = &signed
	spsso.WantAssertionsSigned = &signed
	spsso.ProtocolSupportEnumeration = "urn:oasis:names:tc:SAML:2.0:protocol"
	spsso.NameIDFormats = []saml.NameIDFormat{saml.UnspecifiedNameIDFormat}
	if opts.AssertionConsumer != "" {
		spsso.AssertionConsumerServices = []saml.IndexedEndpoint{{
			Binding:  saml.HTTPPostBinding,
			Location: opts.AssertionConsumer,
			Index:    1,
		}}
	}
	if opts.SigningCert != nil {
		spsso.KeyDescriptors = append(spsso.KeyDescriptors, keyDescriptor("signing", opts.SigningCert))
	}
	if opts.EncryptionCert != nil {
		kd := keyDescriptor("encryption", opts.EncryptionCert)
		kd.EncryptionMethods = []saml.EncryptionMethod{
			{Algorithm: "http://www.w3.org/2001/04/xmlenc#aes128-cbc"},
		}
		spsso.KeyDescriptors = append(spsso.KeyDescriptors, kd)
	}

	ed := &saml.EntityDescriptor{
		EntityID:         opts.EntityID,
		ValidUntil:       opts.ValidUntil,
		SPSSODescriptors: []saml.SPSSODescriptor{spsso},
	}

	raw, err := xml.MarshalIndent(ed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return append([]byte(xml.Header), raw...), nil
}

func keyDescriptor(use string, cert *x509.Certificate) saml.KeyDescriptor {
	return saml.KeyDescriptor{
		Use: use,
		KeyInfo: saml.KeyInfo{
			X509Data: saml.X509Data{
				X509Certificates: []saml.X509Certificate{
					{Data: base64.StdEncoding.EncodeToString(cert.Raw)},
				},
			},
		},
	}
}
