//go:build unit

package domain

import (
	"reflect"
	"testing"
)

// TestAdjustRequestedAttributes_Policy verifies the allow-list and
// mandatory injection combine correctly: with allow {A, B} and
// mandatory {B, C}, a request for {A, D} ends up as {A, B, C} with D
// dropped.
func TestAdjustRequestedAttributes_Policy(t *testing.T) {
	request := &LightRequest{
		RequestedAttributes: map[string][]string{
			"A": {"a1"},
			"D": {},
		},
	}
	dropped := request.AdjustRequestedAttributes(
		map[string]bool{"A": true, "B": true},
		[]string{"B", "C"},
	)

	if !reflect.DeepEqual(dropped, []string{"D"}) {
		t.Errorf("dropped = %v, want [D]", dropped)
	}
	want := map[string][]string{
		"A": {"a1"},
		"B": {},
		"C": {},
	}
	if !reflect.DeepEqual(request.RequestedAttributes, want) {
		t.Errorf("attributes = %v, want %v", request.RequestedAttributes, want)
	}
}

// TestAdjustRequestedAttributes_EmptyAllowListPermitsAll verifies an
// empty allow-list keeps every requested attribute.
func TestAdjustRequestedAttributes_EmptyAllowListPermitsAll(t *testing.T) {
	request := &LightRequest{
		RequestedAttributes: map[string][]string{
			AttributePersonIdentifier: {},
			"http://example.org/custom": {"x"},
		},
	}
	if dropped := request.AdjustRequestedAttributes(nil, nil); len(dropped) != 0 {
		t.Errorf("dropped = %v, want none", dropped)
	}
	if len(request.RequestedAttributes) != 2 {
		t.Errorf("attributes = %v, want both kept", request.RequestedAttributes)
	}
}

// TestAdjustRequestedAttributes_MandatoryMinimumDataSet verifies the
// registry's mandatory set is injected into a bare request.
func TestAdjustRequestedAttributes_MandatoryMinimumDataSet(t *testing.T) {
	request := &LightRequest{}
	request.AdjustRequestedAttributes(nil, MandatoryAttributeNames())

	for _, name := range []string{
		AttributePersonIdentifier,
		AttributeFamilyName,
		AttributeGivenName,
		AttributeDateOfBirth,
		AttributeLegalPersonIdentifier,
		AttributeLegalName,
	} {
		values, ok := request.RequestedAttributes[name]
		if !ok {
			t.Errorf("mandatory attribute %s not injected", name)
			continue
		}
		if len(values) != 0 {
			t.Errorf("injected attribute %s has values %v, want none", name, values)
		}
	}
}

// TestAdjustRequestedAttributes_MandatoryNotDuplicated verifies an
// already requested mandatory attribute keeps its values.
func TestAdjustRequestedAttributes_MandatoryNotDuplicated(t *testing.T) {
	request := &LightRequest{
		RequestedAttributes: map[string][]string{
			AttributePersonIdentifier: {"ES/AT/02635542Y"},
		},
	}
	request.AdjustRequestedAttributes(nil, MandatoryAttributeNames())
	if got := request.RequestedAttributes[AttributePersonIdentifier]; len(got) != 1 || got[0] != "ES/AT/02635542Y" {
		t.Errorf("values = %v, want the original value kept", got)
	}
}

// TestMandatoryAttributeNames_Sorted verifies deterministic ordering.
func TestMandatoryAttributeNames_Sorted(t *testing.T) {
	names := MandatoryAttributeNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
	if len(names) != 6 {
		t.Errorf("len = %d, want 6", len(names))
	}
}

// TestFriendlyAttributeName covers registered and unregistered names.
func TestFriendlyAttributeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{AttributeGivenName, "FirstName"},
		{AttributeLegalName, "LegalName"},
		{"http://example.org/attributes/Custom", "Custom"},
		{"Plain", "Plain"},
	}
	for _, tt := range tests {
		if got := FriendlyAttributeName(tt.in); got != tt.want {
			t.Errorf("FriendlyAttributeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
