package assertion

import (
	"github.com/beevik/etree"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
	"github.com/vrk-kpa/eidas-bridge/internal/core/ports"
)

// FromLightRequest builds an AuthnRequest document. The document ID is
// opts.ID verbatim so the identity provider echoes it as InResponseTo.
func (ad *Adapter) FromLightRequest(request *domain.LightRequest, opts ports.RequestAssertionOptions) (ports.Assertion, error) {
	if opts.ID == "" {
		return nil, domain.ValidationError("assertion id is required")
	}
	doc := etree.NewDocument()
	root := doc.CreateElement("saml2p:AuthnRequest")
	root.CreateAttr("xmlns:saml2p", protocolNamespace)
	root.CreateAttr("xmlns:saml2", assertionNamespace)
	root.CreateAttr("xmlns:eidas", eidasNamespace)
	root.CreateAttr("ID", opts.ID)
	root.CreateAttr("Version", "2.0")
	root.CreateAttr("IssueInstant", opts.IssuedAt.UTC().Format(samlTimeLayout))
	root.CreateAttr("ForceAuthn", "true")
	root.CreateAttr("IsPassive", "false")
	if opts.Destination != "" {
		root.CreateAttr("Destination", opts.Destination)
	}
	if request.ProviderName != "" {
		root.CreateAttr("ProviderName", request.ProviderName)
	}

	issuer := opts.Issuer
	if issuer == "" {
		issuer = request.Issuer
	}
	issuerEl := root.CreateElement("saml2:Issuer")
	issuerEl.CreateAttr("Format", entityNameIDFormat)
	issuerEl.SetText(issuer)

	extensions := root.CreateElement("saml2p:Extensions")
	if request.SPType != "" {
		extensions.CreateElement("eidas:SPType").SetText(string(request.SPType))
	}
	mandatory := map[string]bool{}
	for _, name := range domain.MandatoryAttributeNames() {
		mandatory[name] = true
	}
	requested := extensions.CreateElement("eidas:RequestedAttributes")
	for _, name := range sortedKeys(request.RequestedAttributes) {
		attr := requested.CreateElement("eidas:RequestedAttribute")
		attr.CreateAttr("Name", name)
		attr.CreateAttr("NameFormat", attributeNameFormatURI)
		if mandatory[name] {
			attr.CreateAttr("isRequired", "true")
		} else {
			attr.CreateAttr("isRequired", "false")
		}
		for _, value := range request.RequestedAttributes[name] {
			attr.CreateElement("eidas:AttributeValue").SetText(value)
		}
	}

	if request.NameIDFormat != "" {
		policy := root.CreateElement("saml2p:NameIDPolicy")
		policy.CreateAttr("Format", string(request.NameIDFormat))
		policy.CreateAttr("AllowCreate", "true")
	}
	if request.LevelOfAssurance != "" {
		rac := root.CreateElement("saml2p:RequestedAuthnContext")
		rac.CreateAttr("Comparison", "minimum")
		rac.CreateElement("saml2:AuthnContextClassRef").SetText(string(request.LevelOfAssurance))
	}
	return &Document{doc: doc}, nil
}

// FromLightResponse builds a Response document for the service
// provider. Successful responses carry a bearer assertion; failed ones
// carry the status only.
func (ad *Adapter) FromLightResponse(response *domain.LightResponse, opts ports.ResponseAssertionOptions) (ports.Assertion, error) {
	if response.ID == "" {
		return nil, domain.ValidationError("response id is required")
	}
	issuedAt := opts.IssuedAt.UTC()
	notOnOrAfter := issuedAt.Add(opts.Validity)

	doc := etree.NewDocument()
	root := doc.CreateElement("saml2p:Response")
	root.CreateAttr("xmlns:saml2p", protocolNamespace)
	root.CreateAttr("xmlns:saml2", assertionNamespace)
	root.CreateAttr("ID", response.ID)
	root.CreateAttr("Version", "2.0")
	root.CreateAttr("IssueInstant", issuedAt.Format(samlTimeLayout))
	if response.InResponseToID != "" {
		root.CreateAttr("InResponseTo", response.InResponseToID)
	}
	if opts.Destination != "" {
		root.CreateAttr("Destination", opts.Destination)
	}
	root.CreateElement("saml2:Issuer").SetText(response.Issuer)

	status := root.CreateElement("saml2p:Status")
	code := status.CreateElement("saml2p:StatusCode")
	code.CreateAttr("Value", string(response.Status.StatusCode))
	if response.Status.SubStatusCode != "" {
		code.CreateElement("saml2p:StatusCode").CreateAttr("Value", string(response.Status.SubStatusCode))
	}
	if response.Status.StatusMessage != "" {
		status.CreateElement("saml2p:StatusMessage").SetText(response.Status.StatusMessage)
	}

	if response.Status.Failure {
		return &Document{doc: doc}, nil
	}

	assertionEl := root.CreateElement("saml2:Assertion")
	assertionEl.CreateAttr("xmlns:saml2", assertionNamespace)
	assertionEl.CreateAttr("ID", response.ID+"-assertion")
	assertionEl.CreateAttr("Version", "2.0")
	assertionEl.CreateAttr("IssueInstant", issuedAt.Format(samlTimeLayout))
	assertionEl.CreateElement("saml2:Issuer").SetText(response.Issuer)

	subject := assertionEl.CreateElement("saml2:Subject")
	nameID := subject.CreateElement("saml2:NameID")
	nameID.CreateAttr("Format", string(response.SubjectNameIDFormat))
	nameID.SetText(response.Subject)
	confirmation := subject.CreateElement("saml2:SubjectConfirmation")
	confirmation.CreateAttr("Method", bearerConfirmation)
	confirmationData := confirmation.CreateElement("saml2:SubjectConfirmationData")
	if response.InResponseToID != "" {
		confirmationData.CreateAttr("InResponseTo", response.InResponseToID)
	}
	confirmationData.CreateAttr("NotOnOrAfter", notOnOrAfter.Format(samlTimeLayout))
	if opts.Destination != "" {
		confirmationData.CreateAttr("Recipient", opts.Destination)
	}

	conditions := assertionEl.CreateElement("saml2:Conditions")
	conditions.CreateAttr("NotBefore", issuedAt.Format(samlTimeLayout))
	conditions.CreateAttr("NotOnOrAfter", notOnOrAfter.Format(samlTimeLayout))
	if opts.Audience != "" {
		restriction := conditions.CreateElement("saml2:AudienceRestriction")
		restriction.CreateElement("saml2:Audience").SetText(opts.Audience)
	}

	authnStatement := assertionEl.CreateElement("saml2:AuthnStatement")
	authnStatement.CreateAttr("AuthnInstant", issuedAt.Format(samlTimeLayout))
	if response.IPAddress != "" {
		locality := authnStatement.CreateElement("saml2:SubjectLocality")
		locality.CreateAttr("Address", response.IPAddress)
	}
	authnContext := authnStatement.CreateElement("saml2:AuthnContext")
	authnContext.CreateElement("saml2:AuthnContextClassRef").SetText(string(response.LevelOfAssurance))

	if len(response.Attributes) > 0 {
		statement := assertionEl.CreateElement("saml2:AttributeStatement")
		for _, name := range sortedKeys(response.Attributes) {
			attr := statement.CreateElement("saml2:Attribute")
			attr.CreateAttr("Name", name)
			if friendly := domain.FriendlyAttributeName(name); friendly != "" {
				attr.CreateAttr("FriendlyName", friendly)
			}
			attr.CreateAttr("NameFormat", attributeNameFormatURI)
			for _, value := range response.Attributes[name] {
				attr.CreateElement("saml2:AttributeValue").SetText(value)
			}
		}
	}
	return &Document{doc: doc}, nil
}
