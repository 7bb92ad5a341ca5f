package validation

import (
	"strings"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/hets"
)

// Enrollment applies the HETS form rules in display order. req is expected to
// be normalized.
func (v *Validator) Enrollment(req hets.Request) Errors {
	var errs Errors
	add := func(msg string) { errs = append(errs, msg) }
	p := req.Provider

	if p.AuthorizedSignatoryName == "" {
		add("Authorized Signatory Name is required")
	}
	if p.Title == "" {
		add("Title is required")
	}
	if p.OrganizationName == "" {
		add("Organization Name is required")
	}
	if p.EmailAddress == "" {
		add("Email Address is required")
	} else if !v.IsEmail(p.EmailAddress) {
		add("Invalid email format")
	}
	if p.AlternateEmailAddress != nil && !v.IsEmail(*p.AlternateEmailAddress) {
		add("Invalid alternate email format")
	}
	if p.PhoneNumber == "" {
		add("Phone Number is required")
	}
	if p.PTAN == "" {
		add("PTAN is required")
	} else if !v.IsPTAN(p.PTAN) {
		add("Invalid PTAN format")
	}
	if p.NPI == "" {
		add("NPI is required")
	} else if !v.IsNPI(p.NPI) {
		add("NPI must be exactly 10 digits")
	}
	if p.TaxID == "" {
		add("Tax ID is required")
	}
	if p.OrganizationType == "" {
		add("Organization Type is required")
	} else if !contains(hets.OrganizationTypes, p.OrganizationType) {
		add("Invalid organization type")
	}

	vendor := req.Vendor
	if vendor.VendorClearinghouseName == "" {
		add("Vendor/Clearinghouse Name is required")
	}
	if vendor.VendorContactEmail != nil && !v.IsEmail(*vendor.VendorContactEmail) {
		add("Invalid vendor contact email format")
	}
	if !contains(hets.RelationshipStatuses, vendor.RelationshipStatus) {
		add("Invalid relationship status")
	}
	if !vendor.TerminationDate.IsZero() && vendor.TerminationDate.Before(vendor.EffectiveDate) {
		add("Termination date cannot be before the effective date")
	}

	if !req.AttestationAgree {
		add("You must agree to the attestation statement")
	}
	if req.AttestedBy == "" {
		add("You must type your name to attest")
	}
	if req.AttestedBy != "" && p.AuthorizedSignatoryName != "" &&
		!strings.EqualFold(strings.TrimSpace(req.AttestedBy), strings.TrimSpace(p.AuthorizedSignatoryName)) {
		add("Attested name must match Authorized Signatory Name")
	}
	return errs
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
