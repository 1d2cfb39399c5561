package domain

// LevelOfAssurance is the eIDAS level of assurance required to fulfil an
// authentication request.
type LevelOfAssurance string

const (
	LevelOfAssuranceLow         LevelOfAssurance = "http://eidas.europa.eu/LoA/low"
	LevelOfAssuranceSubstantial LevelOfAssurance = "http://eidas.europa.eu/LoA/substantial"
	LevelOfAssuranceHigh        LevelOfAssurance = "http://eidas.europa.eu/LoA/high"
)

// Valid reports whether l is a known level of assurance.
func (l LevelOfAssurance) Valid() bool {
	switch l {
	case LevelOfAssuranceLow, LevelOfAssuranceSubstantial, LevelOfAssuranceHigh:
		return true
	}
	return false
}

// NameIDFormat is the requested format of the subject identifier.
type NameIDFormat string

const (
	NameIDFormatUnspecified NameIDFormat = "urn:oasis:names:tc:SAML:1.1:nameid-format:unspecified"
	NameIDFormatPersistent  NameIDFormat = "urn:oasis:names:tc:SAML:2.0:nameid-format:persistent"
	NameIDFormatTransient   NameIDFormat = "urn:oasis:names:tc:SAML:2.0:nameid-format:transient"
)

// Valid reports whether f is a known name id format.
func (f NameIDFormat) Valid() bool {
	switch f {
	case NameIDFormatUnspecified, NameIDFormatPersistent, NameIDFormatTransient:
		return true
	}
	return false
}

// ServiceProviderType is the sector of the service provider or connector.
type ServiceProviderType string

const (
	ServiceProviderTypePublic  ServiceProviderType = "public"
	ServiceProviderTypePrivate ServiceProviderType = "private"
)

// Valid reports whether t is a known service provider type.
func (t ServiceProviderType) Valid() bool {
	return t == ServiceProviderTypePublic || t == ServiceProviderTypePrivate
}

// StatusCode is a SAML2 top-level status code.
type StatusCode string

const (
	StatusSuccess   StatusCode = "urn:oasis:names:tc:SAML:2.0:status:Success"
	StatusRequester StatusCode = "urn:oasis:names:tc:SAML:2.0:status:Requester"
	StatusResponder StatusCode = "urn:oasis:names:tc:SAML:2.0:status:Responder"
)

// Valid reports whether c is a known status code.
func (c StatusCode) Valid() bool {
	switch c {
	case StatusSuccess, StatusRequester, StatusResponder:
		return true
	}
	return false
}

// SubStatusCode is a SAML2 second-level status code used on failure.
type SubStatusCode string

const (
	SubStatusAuthnFailed            SubStatusCode = "urn:oasis:names:tc:SAML:2.0:status:AuthnFailed"
	SubStatusInvalidAttrNameOrValue SubStatusCode = "urn:oasis:names:tc:SAML:2.0:status:InvalidAttrNameOrValue"
	SubStatusInvalidNameIDPolicy    SubStatusCode = "urn:oasis:names:tc:SAML:2.0:status:InvalidNameIDPolicy"
	SubStatusRequestDenied          SubStatusCode = "urn:oasis:names:tc:SAML:2.0:status:RequestDenied"
	SubStatusRequestUnsupported     SubStatusCode = "urn:oasis:names:tc:SAML:2.0:status:RequestUnsupported"
)

// Valid reports whether c is a known sub status code.
func (c SubStatusCode) Valid() bool {
	switch c {
	case SubStatusAuthnFailed, SubStatusInvalidAttrNameOrValue,
		SubStatusInvalidNameIDPolicy, SubStatusRequestDenied,
		SubStatusRequestUnsupported:
		return true
	}
	return false
}
