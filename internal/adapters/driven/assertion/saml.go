// Package assertion converts between SAML 2.0 documents and the light
// data model. It handles the eIDAS SAML extensions (SPType, requested
// attributes) on authentication requests and the assertion content of
// authentication responses.
package assertion

import (
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
	"github.com/vrk-kpa/eidas-bridge/internal/core/ports"
)

const (
	protocolNamespace  = "urn:oasis:names:tc:SAML:2.0:protocol"
	assertionNamespace = "urn:oasis:names:tc:SAML:2.0:assertion"
	eidasNamespace     = "http://eidas.europa.eu/saml-extensions"

	attributeNameFormatURI = "urn:oasis:names:tc:SAML:2.0:attrname-format:uri"
	entityNameIDFormat     = "urn:oasis:names:tc:SAML:2.0:nameid-format:entity"
	bearerConfirmation     = "urn:oasis:names:tc:SAML:2.0:cm:bearer"

	encryptedElementType = "http://www.w3.org/2001/04/xmlenc#Element"

	samlTimeLayout = "2006-01-02T15:04:05.000Z"
)

// Document is a parsed or built SAML document. It satisfies
// ports.Assertion by exposing the correlation fields of the root
// element.
type Document struct {
	doc *etree.Document
}

// ID returns the root element's ID attribute.
func (d *Document) ID() string {
	return d.doc.Root().SelectAttrValue("ID", "")
}

// Issuer returns the text of the root's Issuer child, or "".
func (d *Document) Issuer() string {
	if el := childByTag(d.doc.Root(), "Issuer"); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// InResponseTo returns the root element's InResponseTo attribute.
func (d *Document) InResponseTo() string {
	return d.doc.Root().SelectAttrValue("InResponseTo", "")
}

// Adapter implements ports.AssertionAdapter for SAML 2.0 with the
// eIDAS extension dialect.
type Adapter struct{}

// New creates a SAML assertion adapter.
func New() *Adapter {
	return &Adapter{}
}

// Parse parses a raw SAML document.
func (ad *Adapter) Parse(raw []byte) (ports.Assertion, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, domain.ParseError("cannot parse assertion document: %v", err)
	}
	if doc.Root() == nil {
		return nil, domain.ParseError("assertion document is empty")
	}
	return &Document{doc: doc}, nil
}

// ToLightRequest derives a light request from an AuthnRequest document.
// The citizen country is not carried in the document; the caller fills
// it from the transport.
func (ad *Adapter) ToLightRequest(a ports.Assertion) (*domain.LightRequest, error) {
	d, err := concrete(a)
	if err != nil {
		return nil, err
	}
	root := d.doc.Root()
	if root.Tag != "AuthnRequest" {
		return nil, domain.ValidationError("expected an AuthnRequest document, got %s", root.Tag)
	}

	request := &domain.LightRequest{
		ID:                  root.SelectAttrValue("ID", ""),
		Issuer:              d.Issuer(),
		ProviderName:        root.SelectAttrValue("ProviderName", ""),
		RequestedAttributes: map[string][]string{},
	}
	if policy := childByTag(root, "NameIDPolicy"); policy != nil {
		request.NameIDFormat = domain.NameIDFormat(policy.SelectAttrValue("Format", ""))
	}
	if rac := childByTag(root, "RequestedAuthnContext"); rac != nil {
		if ref := childByTag(rac, "AuthnContextClassRef"); ref != nil {
			request.LevelOfAssurance = domain.LevelOfAssurance(strings.TrimSpace(ref.Text()))
		}
	}
	if ext := childByTag(root, "Extensions"); ext != nil {
		if spType := childByTag(ext, "SPType"); spType != nil {
			request.SPType = domain.ServiceProviderType(strings.TrimSpace(spType.Text()))
		}
		if requested := childByTag(ext, "RequestedAttributes"); requested != nil {
			for _, attr := range childrenByTag(requested, "RequestedAttribute") {
				name := attr.SelectAttrValue("Name", "")
				if name == "" {
					return nil, domain.ValidationError("requested attribute without a name")
				}
				values := []string{}
				for _, value := range childrenByTag(attr, "AttributeValue") {
					values = append(values, value.Text())
				}
				request.RequestedAttributes[name] = values
			}
		}
	}
	return request, nil
}

// ToLightResponse derives a light response from a Response document.
// Failed responses carry no assertion; the subject fields stay empty.
func (ad *Adapter) ToLightResponse(a ports.Assertion) (*domain.LightResponse, error) {
	d, err := concrete(a)
	if err != nil {
		return nil, err
	}
	root := d.doc.Root()
	if root.Tag != "Response" {
		return nil, domain.ValidationError("expected a Response document, got %s", root.Tag)
	}

	response := &domain.LightResponse{
		ID:             root.SelectAttrValue("ID", ""),
		InResponseToID: root.SelectAttrValue("InResponseTo", ""),
		Issuer:         d.Issuer(),
		Attributes:     map[string][]string{},
	}

	status := childByTag(root, "Status")
	if status == nil {
		return nil, domain.ValidationError("response has no status")
	}
	if code := childByTag(status, "StatusCode"); code != nil {
		response.Status.StatusCode = domain.StatusCode(code.SelectAttrValue("Value", ""))
		if sub := childByTag(code, "StatusCode"); sub != nil {
			response.Status.SubStatusCode = domain.SubStatusCode(sub.SelectAttrValue("Value", ""))
		}
	}
	if message := childByTag(status, "StatusMessage"); message != nil {
		response.Status.StatusMessage = strings.TrimSpace(message.Text())
	}
	response.Status.Failure = response.Status.StatusCode != domain.StatusSuccess

	assertionEl := childByTag(root, "Assertion")
	if assertionEl == nil {
		if childByTag(root, "EncryptedAssertion") != nil {
			return nil, domain.ValidationError("response assertion is encrypted")
		}
		return response, nil
	}

	if subject := childByTag(assertionEl, "Subject"); subject != nil {
		if nameID := childByTag(subject, "NameID"); nameID != nil {
			response.Subject = strings.TrimSpace(nameID.Text())
			response.SubjectNameIDFormat = domain.NameIDFormat(nameID.SelectAttrValue("Format", ""))
		}
	}
	if authnStatement := childByTag(assertionEl, "AuthnStatement"); authnStatement != nil {
		if locality := childByTag(authnStatement, "SubjectLocality"); locality != nil {
			response.IPAddress = locality.SelectAttrValue("Address", "")
		}
		if authnContext := childByTag(authnStatement, "AuthnContext"); authnContext != nil {
			if ref := childByTag(authnContext, "AuthnContextClassRef"); ref != nil {
				response.LevelOfAssurance = domain.LevelOfAssurance(strings.TrimSpace(ref.Text()))
			}
		}
	}
	if statement := childByTag(assertionEl, "AttributeStatement"); statement != nil {
		for _, attr := range childrenByTag(statement, "Attribute") {
			name := attr.SelectAttrValue("Name", "")
			if name == "" {
				return nil, domain.ValidationError("attribute without a name")
			}
			values := []string{}
			for _, value := range childrenByTag(attr, "AttributeValue") {
				values = append(values, value.Text())
			}
			response.Attributes[name] = values
		}
	}
	return response, nil
}

// Marshal serializes the document to its wire bytes.
func (ad *Adapter) Marshal(a ports.Assertion) ([]byte, error) {
	d, err := concrete(a)
	if err != nil {
		return nil, err
	}
	raw, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, domain.ValidationError("cannot serialize assertion document: %v", err)
	}
	return raw, nil
}

func concrete(a ports.Assertion) (*Document, error) {
	d, ok := a.(*Document)
	if !ok || d.doc == nil || d.doc.Root() == nil {
		return nil, domain.ValidationError("assertion does not originate from this adapter")
	}
	return d, nil
}

// childByTag returns the first direct child with the given local name,
// ignoring the namespace prefix.
func childByTag(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

func childrenByTag(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
