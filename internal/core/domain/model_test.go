//go:build unit

package domain

import "testing"

func validRequest() *LightRequest {
	return &LightRequest{
		CitizenCountryCode: "FI",
		ID:                 "T1234",
		Issuer:             "issuer",
		LevelOfAssurance:   LevelOfAssuranceSubstantial,
		RequestedAttributes: map[string][]string{
			AttributePersonIdentifier: {},
		},
	}
}

// TestLightRequest_Validate covers the required fields and the
// enumerated value checks.
func TestLightRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LightRequest)
		wantErr bool
	}{
		{"valid", func(r *LightRequest) {}, false},
		{"missing country", func(r *LightRequest) { r.CitizenCountryCode = "" }, true},
		{"missing id", func(r *LightRequest) { r.ID = "" }, true},
		{"missing level of assurance", func(r *LightRequest) { r.LevelOfAssurance = "" }, true},
		{"unknown level of assurance", func(r *LightRequest) { r.LevelOfAssurance = "http://eidas.europa.eu/LoA/medium" }, true},
		{"optional name id format", func(r *LightRequest) { r.NameIDFormat = "" }, false},
		{"known name id format", func(r *LightRequest) { r.NameIDFormat = NameIDFormatPersistent }, false},
		{"unknown name id format", func(r *LightRequest) { r.NameIDFormat = "bogus" }, true},
		{"optional sp type", func(r *LightRequest) { r.SPType = "" }, false},
		{"known sp type", func(r *LightRequest) { r.SPType = ServiceProviderTypePublic }, false},
		{"unknown sp type", func(r *LightRequest) { r.SPType = "municipal" }, true},
		{"empty attribute name", func(r *LightRequest) { r.RequestedAttributes[""] = nil }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := validRequest()
			tt.mutate(request)
			err := request.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func validResponse() *LightResponse {
	return &LightResponse{
		ID:                  "Tabcd",
		InResponseToID:      "request-1",
		Issuer:              "issuer",
		Subject:             "FI/FI/123456",
		SubjectNameIDFormat: NameIDFormatUnspecified,
		LevelOfAssurance:    LevelOfAssuranceHigh,
		Status:              Status{StatusCode: StatusSuccess},
		Attributes: map[string][]string{
			AttributePersonIdentifier: {"FI/FI/123456"},
		},
	}
}

// TestLightResponse_Validate verifies the subject fields are required
// on success only.
func TestLightResponse_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LightResponse)
		wantErr bool
	}{
		{"valid success", func(r *LightResponse) {}, false},
		{"missing id", func(r *LightResponse) { r.ID = "" }, true},
		{"missing in-response-to", func(r *LightResponse) { r.InResponseToID = "" }, true},
		{"success without subject", func(r *LightResponse) { r.Subject = "" }, true},
		{"success without name id format", func(r *LightResponse) { r.SubjectNameIDFormat = "" }, true},
		{"success without level of assurance", func(r *LightResponse) { r.LevelOfAssurance = "" }, true},
		{
			"failure without subject",
			func(r *LightResponse) {
				r.Status = Status{
					Failure:       true,
					StatusCode:    StatusResponder,
					SubStatusCode: SubStatusAuthnFailed,
				}
				r.Subject = ""
				r.SubjectNameIDFormat = ""
				r.LevelOfAssurance = ""
				r.Attributes = nil
			},
			false,
		},
		{"unknown status code", func(r *LightResponse) { r.Status.StatusCode = "urn:bogus" }, true},
		{"unknown sub status code", func(r *LightResponse) { r.Status.SubStatusCode = "urn:bogus" }, true},
		{"empty attribute name", func(r *LightResponse) { r.Attributes[""] = nil }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := validResponse()
			tt.mutate(response)
			err := response.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestStatus_Validate accepts empty codes; the wire layer may carry a
// failure without a refined code.
func TestStatus_Validate(t *testing.T) {
	status := &Status{Failure: true}
	if err := status.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
