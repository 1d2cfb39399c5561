package domain

// LightRequest is the normalized internal representation of an inbound
// authentication request, decoupled from the wire assertion format.
type LightRequest struct {
	// CitizenCountryCode is the ISO 3166-1 alpha-2 code of the citizen's
	// country.
	CitizenCountryCode string

	// ID correlates the eventual response with this request.
	ID string

	// Issuer of the light request. Rewritten to this node's registered
	// issuer before storage.
	Issuer string

	// LevelOfAssurance required to fulfil the request.
	LevelOfAssurance LevelOfAssurance

	// NameIDFormat optionally instructs the identity provider which
	// identifier format is requested.
	NameIDFormat NameIDFormat

	// ProviderName is a free-format identifier of the originating
	// service provider.
	ProviderName string

	// SPType optionally specifies the sector of the service provider.
	SPType ServiceProviderType

	// RelayState is opaque state returned with the paired response.
	RelayState string

	// OriginCountryCode is the code of the requesting country.
	OriginCountryCode string

	// RequestedAttributes maps attribute names to ordered sequences of
	// allowed values. An empty sequence accepts any value.
	RequestedAttributes map[string][]string
}

// Validate checks the light request fields.
func (r *LightRequest) Validate() error {
	if r.CitizenCountryCode == "" || r.ID == "" {
		return ValidationError("light request: citizen country code and id are required")
	}
	if !r.LevelOfAssurance.Valid() {
		return ValidationError("light request: invalid level of assurance %q", r.LevelOfAssurance)
	}
	if r.NameIDFormat != "" && !r.NameIDFormat.Valid() {
		return ValidationError("light request: invalid name id format %q", r.NameIDFormat)
	}
	if r.SPType != "" && !r.SPType.Valid() {
		return ValidationError("light request: invalid sp type %q", r.SPType)
	}
	return validateAttributes(r.RequestedAttributes)
}

// Status carries the outcome reported by the identity provider.
type Status struct {
	// Failure is true when the authentication request has failed.
	Failure bool

	// StatusCode is the SAML2 status code.
	StatusCode StatusCode

	// SubStatusCode refines the status code on failure.
	SubStatusCode SubStatusCode

	// StatusMessage is an optional human-readable message.
	StatusMessage string
}

// Validate checks the status fields.
func (s *Status) Validate() error {
	if s.StatusCode != "" && !s.StatusCode.Valid() {
		return ValidationError("status: invalid status code %q", s.StatusCode)
	}
	if s.SubStatusCode != "" && !s.SubStatusCode.Valid() {
		return ValidationError("status: invalid sub status code %q", s.SubStatusCode)
	}
	return nil
}

// LightResponse is the normalized internal representation of an
// authentication response. Its ID always equals the id of the token that
// references it in the store.
type LightResponse struct {
	// ID keys the stored response; rewritten to the token id at issuance.
	ID string

	// InResponseToID is the id of the paired LightRequest.
	InResponseToID string

	// Issuer of the light response. Rewritten before storage and again
	// before the outbound assertion is built.
	Issuer string

	// IPAddress optionally records the user agent address seen by the
	// identity provider.
	IPAddress string

	// RelayState is the opaque state returned to the consumer.
	RelayState string

	// Subject of the assertion.
	Subject string

	// SubjectNameIDFormat is the format of the subject identifier.
	SubjectNameIDFormat NameIDFormat

	// LevelOfAssurance the authentication fulfilled.
	LevelOfAssurance LevelOfAssurance

	// Status reports success or failure.
	Status Status

	// Attributes holds the returned attribute values on success.
	Attributes map[string][]string
}

// Validate checks the light response fields. Subject, name id format, and
// level of assurance are required only for successful responses.
func (r *LightResponse) Validate() error {
	if err := r.Status.Validate(); err != nil {
		return err
	}
	if r.ID == "" || r.InResponseToID == "" {
		return ValidationError("light response: id and in-response-to id are required")
	}
	if !r.Status.Failure {
		if r.Subject == "" {
			return ValidationError("light response: subject is required on success")
		}
		if !r.SubjectNameIDFormat.Valid() {
			return ValidationError("light response: invalid subject name id format %q", r.SubjectNameIDFormat)
		}
		if !r.LevelOfAssurance.Valid() {
			return ValidationError("light response: invalid level of assurance %q", r.LevelOfAssurance)
		}
	} else {
		if r.SubjectNameIDFormat != "" && !r.SubjectNameIDFormat.Valid() {
			return ValidationError("light response: invalid subject name id format %q", r.SubjectNameIDFormat)
		}
		if r.LevelOfAssurance != "" && !r.LevelOfAssurance.Valid() {
			return ValidationError("light response: invalid level of assurance %q", r.LevelOfAssurance)
		}
	}
	return validateAttributes(r.Attributes)
}

func validateAttributes(attributes map[string][]string) error {
	for name := range attributes {
		if name == "" {
			return ValidationError("attributes: empty attribute name")
		}
	}
	return nil
}
