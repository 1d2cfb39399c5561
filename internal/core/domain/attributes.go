package domain

import (
	"sort"
	"strings"
)

// eIDAS attribute name URI prefixes.
const (
	NaturalPersonPrefix = "http://eidas.europa.eu/attributes/naturalperson/"
	LegalPersonPrefix   = "http://eidas.europa.eu/attributes/legalperson/"
)

// Natural person attributes.
const (
	AttributePersonIdentifier = NaturalPersonPrefix + "PersonIdentifier"
	AttributeFamilyName       = NaturalPersonPrefix + "CurrentFamilyName"
	AttributeGivenName        = NaturalPersonPrefix + "CurrentGivenName"
	AttributeDateOfBirth      = NaturalPersonPrefix + "DateOfBirth"
	AttributeBirthName        = NaturalPersonPrefix + "BirthName"
	AttributePlaceOfBirth     = NaturalPersonPrefix + "PlaceOfBirth"
	AttributeCurrentAddress   = NaturalPersonPrefix + "CurrentAddress"
	AttributeGender           = NaturalPersonPrefix + "Gender"
)

// Legal person attributes.
const (
	AttributeLegalPersonIdentifier = LegalPersonPrefix + "LegalPersonIdentifier"
	AttributeLegalName             = LegalPersonPrefix + "LegalName"
	AttributeLegalAddress          = LegalPersonPrefix + "LegalPersonAddress"
	AttributeVATRegistration       = LegalPersonPrefix + "VATRegistrationNumber"
	AttributeTaxReference          = LegalPersonPrefix + "TaxReference"
	AttributeEORI                  = LegalPersonPrefix + "EORI"
)

// attributeRegistry maps attribute name URIs to their friendly names and
// whether the attribute is part of the mandatory minimum data set. This is
// a pure domain component with no external dependencies.
var attributeRegistry = map[string]struct {
	friendlyName string
	mandatory    bool
}{
	AttributePersonIdentifier:      {"PersonIdentifier", true},
	AttributeFamilyName:            {"FamilyName", true},
	AttributeGivenName:             {"FirstName", true},
	AttributeDateOfBirth:           {"DateOfBirth", true},
	AttributeBirthName:             {"BirthName", false},
	AttributePlaceOfBirth:          {"PlaceOfBirth", false},
	AttributeCurrentAddress:        {"CurrentAddress", false},
	AttributeGender:                {"Gender", false},
	AttributeLegalPersonIdentifier: {"LegalPersonIdentifier", true},
	AttributeLegalName:             {"LegalName", true},
	AttributeLegalAddress:          {"LegalAddress", false},
	AttributeVATRegistration:       {"VATRegistration", false},
	AttributeTaxReference:          {"TaxReference", false},
	AttributeEORI:                  {"EORI", false},
}

// RegisteredAttributeNames returns the names of all registered attributes.
// The result is a fresh set and may be modified by the caller.
func RegisteredAttributeNames() map[string]bool {
	names := make(map[string]bool, len(attributeRegistry))
	for name := range attributeRegistry {
		names[name] = true
	}
	return names
}

// MandatoryAttributeNames returns the names of the mandatory minimum data
// set, sorted. Mandatory attributes are always requested, even when the
// service provider did not ask for them.
func MandatoryAttributeNames() []string {
	var names []string
	for name, info := range attributeRegistry {
		if info.mandatory {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FriendlyAttributeName returns the short name of a registered attribute,
// or the last path segment for unregistered ones.
func FriendlyAttributeName(name string) string {
	if info, ok := attributeRegistry[name]; ok {
		return info.friendlyName
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// AdjustRequestedAttributes applies the attribute policy to the request:
// attributes outside the allow-list are dropped (an empty allow-list
// permits everything), and mandatory attributes missing from the request
// are inserted with an empty value sequence. It returns the names of the
// dropped attributes, sorted.
func (r *LightRequest) AdjustRequestedAttributes(allowed map[string]bool, mandatory []string) []string {
	if r.RequestedAttributes == nil {
		r.RequestedAttributes = make(map[string][]string)
	}
	var dropped []string
	if len(allowed) > 0 {
		for name := range r.RequestedAttributes {
			if !allowed[name] {
				dropped = append(dropped, name)
			}
		}
		for _, name := range dropped {
			delete(r.RequestedAttributes, name)
		}
		sort.Strings(dropped)
	}
	for _, name := range mandatory {
		if _, ok := r.RequestedAttributes[name]; !ok {
			r.RequestedAttributes[name] = []string{}
		}
	}
	return dropped
}
