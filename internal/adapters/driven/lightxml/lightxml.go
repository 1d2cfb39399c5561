// Package lightxml implements the canonical XML serialization of light
// requests and responses. The documents are what actually sits in the
// shared cache, so the element names and nesting must stay compatible
// with the other specific-communication implementations of the
// federation.
package lightxml

import (
	"sort"

	"github.com/beevik/etree"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
)

// MarshalRequest serializes a light request. The request is validated
// first; an invalid model never reaches the cache.
func MarshalRequest(request *domain.LightRequest) ([]byte, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	root := doc.CreateElement("lightRequest")
	addText(root, "citizenCountryCode", request.CitizenCountryCode)
	addText(root, "id", request.ID)
	addText(root, "issuer", request.Issuer)
	addText(root, "levelOfAssurance", string(request.LevelOfAssurance))
	addText(root, "nameIdFormat", string(request.NameIDFormat))
	addText(root, "providerName", request.ProviderName)
	addText(root, "spType", string(request.SPType))
	addText(root, "relayState", request.RelayState)
	addText(root, "originCountryCode", request.OriginCountryCode)
	appendAttributes(root, "requestedAttributes", request.RequestedAttributes)
	return doc.WriteToBytes()
}

// UnmarshalRequest parses a light request document.
func UnmarshalRequest(data []byte) (*domain.LightRequest, error) {
	root, err := parseRoot(data, "lightRequest")
	if err != nil {
		return nil, err
	}
	request := &domain.LightRequest{RequestedAttributes: map[string][]string{}}
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "citizenCountryCode":
			request.CitizenCountryCode = child.Text()
		case "id":
			request.ID = child.Text()
		case "issuer":
			request.Issuer = child.Text()
		case "levelOfAssurance":
			request.LevelOfAssurance = domain.LevelOfAssurance(child.Text())
		case "nameIdFormat":
			request.NameIDFormat = domain.NameIDFormat(child.Text())
		case "providerName":
			request.ProviderName = child.Text()
		case "spType":
			request.SPType = domain.ServiceProviderType(child.Text())
		case "relayState":
			request.RelayState = child.Text()
		case "originCountryCode":
			request.OriginCountryCode = child.Text()
		case "requestedAttributes":
			if request.RequestedAttributes, err = parseAttributes(child); err != nil {
				return nil, err
			}
		default:
			return nil, domain.ValidationError("lightRequest: unexpected element %q", child.Tag)
		}
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}
	return request, nil
}

// MarshalResponse serializes a light response.
func MarshalResponse(response *domain.LightResponse) ([]byte, error) {
	if err := response.Validate(); err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	root := doc.CreateElement("lightResponse")
	addText(root, "id", response.ID)
	addText(root, "inResponseToId", response.InResponseToID)
	addText(root, "issuer", response.Issuer)
	addText(root, "ipAddress", response.IPAddress)
	addText(root, "relayState", response.RelayState)
	addText(root, "subject", response.Subject)
	addText(root, "subjectNameIdFormat", string(response.SubjectNameIDFormat))
	addText(root, "levelOfAssurance", string(response.LevelOfAssurance))
	status := root.CreateElement("status")
	failure := "false"
	if response.Status.Failure {
		failure = "true"
	}
	status.CreateElement("failure").SetText(failure)
	addText(status, "statusCode", string(response.Status.StatusCode))
	addText(status, "subStatusCode", string(response.Status.SubStatusCode))
	addText(status, "statusMessage", response.Status.StatusMessage)
	appendAttributes(root, "attributes", response.Attributes)
	return doc.WriteToBytes()
}

// UnmarshalResponse parses a light response document.
func UnmarshalResponse(data []byte) (*domain.LightResponse, error) {
	root, err := parseRoot(data, "lightResponse")
	if err != nil {
		return nil, err
	}
	response := &domain.LightResponse{Attributes: map[string][]string{}}
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "id":
			response.ID = child.Text()
		case "inResponseToId":
			response.InResponseToID = child.Text()
		case "issuer":
			response.Issuer = child.Text()
		case "ipAddress":
			response.IPAddress = child.Text()
		case "relayState":
			response.RelayState = child.Text()
		case "subject":
			response.Subject = child.Text()
		case "subjectNameIdFormat":
			response.SubjectNameIDFormat = domain.NameIDFormat(child.Text())
		case "levelOfAssurance":
			response.LevelOfAssurance = domain.LevelOfAssurance(child.Text())
		case "status":
			if err := parseStatus(child, &response.Status); err != nil {
				return nil, err
			}
		case "attributes":
			if response.Attributes, err = parseAttributes(child); err != nil {
				return nil, err
			}
		default:
			return nil, domain.ValidationError("lightResponse: unexpected element %q", child.Tag)
		}
	}
	if err := response.Validate(); err != nil {
		return nil, err
	}
	return response, nil
}

func parseRoot(data []byte, tag string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, domain.ParseError("malformed light document: %v", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, domain.ParseError("empty light document")
	}
	if root.Tag != tag {
		return nil, domain.ParseError("unexpected root element %q, want %q", root.Tag, tag)
	}
	return root, nil
}

func parseStatus(elm *etree.Element, status *domain.Status) error {
	for _, child := range elm.ChildElements() {
		switch child.Tag {
		case "failure":
			status.Failure = child.Text() == "true"
		case "statusCode":
			status.StatusCode = domain.StatusCode(child.Text())
		case "subStatusCode":
			status.SubStatusCode = domain.SubStatusCode(child.Text())
		case "statusMessage":
			status.StatusMessage = child.Text()
		default:
			return domain.ValidationError("status: unexpected element %q", child.Tag)
		}
	}
	return nil
}

// addText appends a child element only for non-empty values. Absent
// optional fields stay absent on the wire.
func addText(parent *etree.Element, tag, text string) {
	if text == "" {
		return
	}
	parent.CreateElement(tag).SetText(text)
}

// appendAttributes writes the attribute container. Names are sorted so
// the serialization is deterministic.
func appendAttributes(parent *etree.Element, tag string, attributes map[string][]string) {
	container := parent.CreateElement(tag)
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		attribute := container.CreateElement("attribute")
		attribute.CreateElement("definition").SetText(name)
		for _, value := range attributes[name] {
			attribute.CreateElement("value").SetText(value)
		}
	}
}

func parseAttributes(elm *etree.Element) (map[string][]string, error) {
	attributes := make(map[string][]string)
	for _, attribute := range elm.ChildElements() {
		if attribute.Tag != "attribute" {
			return nil, domain.ValidationError("attributes: unexpected element %q", attribute.Tag)
		}
		children := attribute.ChildElements()
		if len(children) == 0 || children[0].Tag != "definition" {
			return nil, domain.ValidationError("attributes: missing definition element")
		}
		name := children[0].Text()
		values := []string{}
		for _, value := range children[1:] {
			if value.Tag != "value" {
				return nil, domain.ValidationError("attributes: unexpected element %q", value.Tag)
			}
			values = append(values, value.Text())
		}
		attributes[name] = values
	}
	return attributes, nil
}
