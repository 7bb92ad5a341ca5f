// Package hets models the HETS EDI enrollment form: the provider, its vendor
// or clearinghouse relationship, the signed attestation and the submission
// history.
package hets

import (
	"fmt"
	"strings"
	"time"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/civil"
)

const (
	StatusSubmitted      = "Submitted"
	SubmissionTypeEDI    = "EDI Enrollment"
	RelationshipActive   = "Active"
	SubmittedMessage     = "Enrollment submitted successfully"
	UnknownClientAddress = "system"
)

// OrganizationTypes are the accepted provider organization types.
var OrganizationTypes = []string{
	"Hospital", "Clinic", "Physician Practice", "DME Supplier",
	"Home Health Agency", "Nursing Facility", "Other",
}

// RelationshipStatuses are the accepted vendor relationship states.
var RelationshipStatuses = []string{"Active", "Pending", "Terminated", "Suspended"}

// AttestationStatement is stored verbatim with every attestation.
const AttestationStatement = `I hereby attest that:
1. I am authorized to submit this HETS EDI enrollment on behalf of the organization listed above.
2. All information provided in this form is accurate and complete to the best of my knowledge.
3. I understand that this enrollment is subject to CMS verification and approval.
4. I agree to notify CMS of any changes to the information provided within 30 days.
5. I acknowledge that providing false information may result in termination of HETS access and potential legal consequences.
6. I have read and agree to comply with all HIPAA regulations and CMS requirements for EDI transactions.`

// Provider is one hets_providers row.
type Provider struct {
	ProviderID              int       `json:"provider_id" db:"provider_id"`
	AuthorizedSignatoryName string    `json:"authorized_signatory_name" db:"authorized_signatory_name"`
	Title                   string    `json:"title" db:"title"`
	OrganizationName        string    `json:"organization_name" db:"organization_name"`
	EmailAddress            string    `json:"email_address" db:"email_address"`
	AlternateEmailAddress   *string   `json:"alternate_email_address" db:"alternate_email_address"`
	PhoneNumber             string    `json:"phone_number" db:"phone_number"`
	PTAN                    string    `json:"ptan" db:"ptan"`
	NPI                     string    `json:"npi" db:"npi"`
	TaxID                   string    `json:"tax_id" db:"tax_id"`
	OrganizationType        string    `json:"organization_type" db:"organization_type"`
	CreatedAt               time.Time `json:"created_at" db:"created_at"`
}

// VendorRelationship is one hets_vendor_relationships row.
type VendorRelationship struct {
	RelationshipID             int        `json:"relationship_id" db:"relationship_id"`
	ProviderID                 int        `json:"provider_id" db:"provider_id"`
	VendorClearinghouseName    string     `json:"vendor_clearinghouse_name" db:"vendor_clearinghouse_name"`
	VendorContactName          *string    `json:"vendor_contact_name" db:"vendor_contact_name"`
	VendorContactEmail         *string    `json:"vendor_contact_email" db:"vendor_contact_email"`
	VendorContactPhone         *string    `json:"vendor_contact_phone" db:"vendor_contact_phone"`
	EffectiveDate              civil.Date `json:"effective_date" db:"effective_date"`
	TerminationDate            civil.Date `json:"termination_date" db:"termination_date"`
	OffshoreDataSharingConsent bool       `json:"offshore_data_sharing_consent" db:"offshore_data_sharing_consent"`
	RelationshipStatus         string     `json:"relationship_status" db:"relationship_status"`
}

// Attestation is one hets_attestations row.
type Attestation struct {
	AttestationID    int       `json:"attestation_id" db:"attestation_id"`
	ProviderID       int       `json:"provider_id" db:"provider_id"`
	RelationshipID   int       `json:"relationship_id" db:"relationship_id"`
	AttestationText  string    `json:"attestation_text" db:"attestation_text"`
	AttestedBy       string    `json:"attested_by" db:"attested_by"`
	AttestationDate  time.Time `json:"attestation_date" db:"attestation_date"`
	IPAddress        string    `json:"ip_address" db:"ip_address"`
	SubmissionStatus string    `json:"submission_status" db:"submission_status"`
}

// HistoryEntry is one hets_submission_history row.
type HistoryEntry struct {
	SubmissionID   int       `json:"submission_id" db:"submission_id"`
	ProviderID     int       `json:"provider_id" db:"provider_id"`
	SubmissionDate time.Time `json:"submission_date" db:"submission_date"`
	SubmissionType string    `json:"submission_type" db:"submission_type"`
	Status         string    `json:"status" db:"status"`
	Notes          string    `json:"notes" db:"notes"`
}

// Request is the submitted enrollment form.
type Request struct {
	Provider         Provider           `json:"provider"`
	Vendor           VendorRelationship `json:"vendor"`
	AttestationAgree bool               `json:"attestation_agree"`
	AttestedBy       string             `json:"attested_by"`
}

// Normalize trims text fields, drops blank optional values and applies the
// relationship defaults.
func (r *Request) Normalize() {
	p := &r.Provider
	for _, f := range []*string{
		&p.AuthorizedSignatoryName, &p.Title, &p.OrganizationName, &p.EmailAddress,
		&p.PhoneNumber, &p.PTAN, &p.NPI, &p.TaxID, &p.OrganizationType,
	} {
		*f = strings.TrimSpace(*f)
	}
	p.AlternateEmailAddress = optional(p.AlternateEmailAddress)

	v := &r.Vendor
	v.VendorClearinghouseName = strings.TrimSpace(v.VendorClearinghouseName)
	v.VendorContactName = optional(v.VendorContactName)
	v.VendorContactEmail = optional(v.VendorContactEmail)
	v.VendorContactPhone = optional(v.VendorContactPhone)
	v.RelationshipStatus = strings.TrimSpace(v.RelationshipStatus)
	if v.RelationshipStatus == "" {
		v.RelationshipStatus = RelationshipActive
	}
	if v.EffectiveDate.IsZero() {
		v.EffectiveDate = civil.Today()
	}
	r.AttestedBy = strings.TrimSpace(r.AttestedBy)
}

// Enrollment builds the rows written for r. clientAddr is recorded on the
// attestation.
func (r Request) Enrollment(clientAddr string) Enrollment {
	if strings.TrimSpace(clientAddr) == "" {
		clientAddr = UnknownClientAddress
	}
	return Enrollment{
		Provider: r.Provider,
		Vendor:   r.Vendor,
		Attestation: Attestation{
			AttestationText:  AttestationStatement,
			AttestedBy:       r.AttestedBy,
			IPAddress:        clientAddr,
			SubmissionStatus: StatusSubmitted,
		},
	}
}

// Enrollment is everything written by one submission.
type Enrollment struct {
	Provider    Provider           `json:"provider"`
	Vendor      VendorRelationship `json:"vendor"`
	Attestation Attestation        `json:"attestation"`
}

// InitialHistory is the history row recorded with a new enrollment.
func (e Enrollment) InitialHistory() HistoryEntry {
	return HistoryEntry{
		ProviderID:     e.Provider.ProviderID,
		SubmissionType: SubmissionTypeEDI,
		Status:         StatusSubmitted,
		Notes:          fmt.Sprintf("Initial enrollment submission for %s", e.Provider.OrganizationName),
	}
}

// Record is a stored enrollment with its history.
type Record struct {
	Enrollment
	History []HistoryEntry `json:"history"`
}

// Summary is one row of the enrollment listing. Vendor columns are nullable
// because the listing is a left join.
type Summary struct {
	ProviderID              int        `json:"provider_id" db:"provider_id"`
	AuthorizedSignatoryName string     `json:"authorized_signatory_name" db:"authorized_signatory_name"`
	OrganizationName        string     `json:"organization_name" db:"organization_name"`
	EmailAddress            string     `json:"email_address" db:"email_address"`
	PTAN                    string     `json:"ptan" db:"ptan"`
	NPI                     string     `json:"npi" db:"npi"`
	VendorClearinghouseName *string    `json:"vendor_clearinghouse_name" db:"vendor_clearinghouse_name"`
	EffectiveDate           civil.Date `json:"effective_date" db:"effective_date"`
	RelationshipStatus      *string    `json:"relationship_status" db:"relationship_status"`
	CreatedAt               time.Time  `json:"created_at" db:"created_at"`
}

// Receipt acknowledges a submission.
type Receipt struct {
	ProviderID       int    `json:"provider_id"`
	OrganizationName string `json:"organization_name"`
	Status           string `json:"status"`
	Message          string `json:"message"`
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
