// Package npi models the CMS-10114 NPI Application/Update form.
//
// A submission arrives as five nested sections. The sections are embedded in
// Record so sqlx maps them onto the single flat npi_applications row.
package npi

import (
	"fmt"
	"strings"
	"time"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/civil"
)

// Submission defaults and audit vocabulary.
const (
	StatusSubmitted  = "Submitted"
	DefaultCountry   = "USA"
	ActionSubmitted  = "APPLICATION_SUBMITTED"
	SubmittedMessage = "Application submitted successfully"
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type BasicInformation struct {
	SubmissionReason string  `json:"submission_reason" db:"submission_reason" validate:"required,max=100"`
	EntityType       string  `json:"entity_type" db:"entity_type" validate:"required,max=50"`
	NPI              *string `json:"npi" db:"existing_npi" validate:"omitempty,npi"`
}

type IdentifyingInformation struct {
	NamePrefix *string `json:"name_prefix" db:"name_prefix" validate:"omitempty,max=10"`
	FirstName  *string `json:"first_name" db:"first_name" validate:"omitempty,max=100"`
	MiddleName *string `json:"middle_name" db:"middle_name" validate:"omitempty,max=100"`
	LastName   *string `json:"last_name" db:"last_name" validate:"omitempty,max=100"`
	NameSuffix *string `json:"name_suffix" db:"name_suffix" validate:"omitempty,max=10"`
	Credential *string `json:"credential" db:"credential" validate:"omitempty,max=50"`

	OrganizationName *string `json:"organization_name" db:"organization_name" validate:"omitempty,max=255"`
	OrganizationType *string `json:"organization_type" db:"organization_type" validate:"omitempty,max=100"`

	OtherName             *string    `json:"other_name" db:"other_name" validate:"omitempty,max=255"`
	OtherOrganizationName *string    `json:"other_organization_name" db:"other_organization_name" validate:"omitempty,max=255"`
	SSN                   *string    `json:"ssn" db:"ssn" validate:"omitempty,max=11"`
	EIN                   *string    `json:"ein" db:"ein" validate:"omitempty,max=10"`
	DateOfBirth           civil.Date `json:"date_of_birth" db:"date_of_birth"`
	Gender                *string    `json:"gender" db:"gender" validate:"omitempty,max=20"`
	StateLicenseNumber    *string    `json:"state_license_number" db:"state_license_number" validate:"omitempty,max=50"`
	IssuingState          *string    `json:"issuing_state" db:"issuing_state" validate:"omitempty,len=2"`
}

type BusinessAddress struct {
	MailingAddressLine1 string  `json:"mailing_address_line1" db:"mailing_address_line1" validate:"required,max=255"`
	MailingAddressLine2 *string `json:"mailing_address_line2" db:"mailing_address_line2" validate:"omitempty,max=255"`
	MailingCity         string  `json:"mailing_city" db:"mailing_city" validate:"required,max=100"`
	MailingState        string  `json:"mailing_state" db:"mailing_state" validate:"required,len=2"`
	MailingZip          string  `json:"mailing_zip" db:"mailing_zip" validate:"required,min=5,max=10"`
	MailingCountry      string  `json:"mailing_country" db:"mailing_country" validate:"required,max=50"`
	MailingPhone        string  `json:"mailing_phone" db:"mailing_phone" validate:"required,max=20"`
	MailingFax          *string `json:"mailing_fax" db:"mailing_fax" validate:"omitempty,max=20"`

	PracticeAddressLine1 string  `json:"practice_address_line1" db:"practice_address_line1" validate:"required,max=255"`
	PracticeAddressLine2 *string `json:"practice_address_line2" db:"practice_address_line2" validate:"omitempty,max=255"`
	PracticeCity         string  `json:"practice_city" db:"practice_city" validate:"required,max=100"`
	PracticeState        string  `json:"practice_state" db:"practice_state" validate:"required,len=2"`
	PracticeZip          string  `json:"practice_zip" db:"practice_zip" validate:"required,min=5,max=10"`
	PracticeCountry      string  `json:"practice_country" db:"practice_country" validate:"required,max=50"`
	PracticePhone        string  `json:"practice_phone" db:"practice_phone" validate:"required,max=20"`
	PracticeFax          *string `json:"practice_fax" db:"practice_fax" validate:"omitempty,max=20"`

	EnumerationDate civil.Date `json:"enumeration_date" db:"enumeration_date"`
}

type ContactPerson struct {
	ContactFirstName  string  `json:"contact_first_name" db:"contact_first_name" validate:"required,max=100"`
	ContactMiddleName *string `json:"contact_middle_name" db:"contact_middle_name" validate:"omitempty,max=100"`
	ContactLastName   string  `json:"contact_last_name" db:"contact_last_name" validate:"required,max=100"`
	ContactPhone      string  `json:"contact_phone" db:"contact_phone" validate:"required,max=20"`
	ContactPhoneExt   *string `json:"contact_phone_ext" db:"contact_phone_ext" validate:"omitempty,max=10"`
	ContactEmail      string  `json:"contact_email" db:"contact_email" validate:"required,email,max=255"`
}

type Certification struct {
	AuthorizedOfficialFirstName  string     `json:"authorized_official_first_name" db:"authorized_official_first_name" validate:"required,max=100"`
	AuthorizedOfficialMiddleName *string    `json:"authorized_official_middle_name" db:"authorized_official_middle_name" validate:"omitempty,max=100"`
	AuthorizedOfficialLastName   string     `json:"authorized_official_last_name" db:"authorized_official_last_name" validate:"required,max=100"`
	AuthorizedOfficialTitle      string     `json:"authorized_official_title" db:"authorized_official_title" validate:"required,max=100"`
	AuthorizedOfficialPhone      string     `json:"authorized_official_phone" db:"authorized_official_phone" validate:"required,max=20"`
	AuthorizedOfficialEmail      string     `json:"authorized_official_email" db:"authorized_official_email" validate:"required,email,max=255"`
	Signature                    string     `json:"signature" db:"signature" validate:"required,max=255"`
	CertificationDate            civil.Date `json:"certification_date" db:"certification_date" validate:"required"`
}

// Application is a submitted form.
type Application struct {
	BasicInformation       BasicInformation       `json:"basic_information"`
	IdentifyingInformation IdentifyingInformation `json:"identifying_information"`
	BusinessAddress        BusinessAddress        `json:"business_address"`
	ContactPerson          ContactPerson          `json:"contact_person"`
	Certification          Certification          `json:"certification"`
}

// Normalize trims every field, turns blank optional strings into nil and
// fills the country defaults.
func (a *Application) Normalize() {
	b := &a.BasicInformation
	b.SubmissionReason = strings.TrimSpace(b.SubmissionReason)
	b.EntityType = strings.TrimSpace(b.EntityType)
	b.NPI = optional(b.NPI)

	i := &a.IdentifyingInformation
	for _, p := range []**string{
		&i.NamePrefix, &i.FirstName, &i.MiddleName, &i.LastName, &i.NameSuffix, &i.Credential,
		&i.OrganizationName, &i.OrganizationType, &i.OtherName, &i.OtherOrganizationName,
		&i.SSN, &i.EIN, &i.Gender, &i.StateLicenseNumber, &i.IssuingState,
	} {
		*p = optional(*p)
	}

	ba := &a.BusinessAddress
	for _, p := range []*string{
		&ba.MailingAddressLine1, &ba.MailingCity, &ba.MailingState, &ba.MailingZip, &ba.MailingCountry, &ba.MailingPhone,
		&ba.PracticeAddressLine1, &ba.PracticeCity, &ba.PracticeState, &ba.PracticeZip, &ba.PracticeCountry, &ba.PracticePhone,
	} {
		*p = strings.TrimSpace(*p)
	}
	for _, p := range []**string{&ba.MailingAddressLine2, &ba.MailingFax, &ba.PracticeAddressLine2, &ba.PracticeFax} {
		*p = optional(*p)
	}
	if ba.MailingCountry == "" {
		ba.MailingCountry = DefaultCountry
	}
	if ba.PracticeCountry == "" {
		ba.PracticeCountry = DefaultCountry
	}

	c := &a.ContactPerson
	for _, p := range []*string{&c.ContactFirstName, &c.ContactLastName, &c.ContactPhone, &c.ContactEmail} {
		*p = strings.TrimSpace(*p)
	}
	c.ContactMiddleName = optional(c.ContactMiddleName)
	c.ContactPhoneExt = optional(c.ContactPhoneExt)

	cert := &a.Certification
	for _, p := range []*string{
		&cert.AuthorizedOfficialFirstName, &cert.AuthorizedOfficialLastName, &cert.AuthorizedOfficialTitle,
		&cert.AuthorizedOfficialPhone, &cert.AuthorizedOfficialEmail, &cert.Signature,
	} {
		*p = strings.TrimSpace(*p)
	}
	cert.AuthorizedOfficialMiddleName = optional(cert.AuthorizedOfficialMiddleName)
}

// AuditNote is the note written alongside a new submission.
func (a Application) AuditNote() string {
	return fmt.Sprintf("New %s application submitted", a.BasicInformation.EntityType)
}

// DisplayName is the organization name, falling back to "first last".
func (a Application) DisplayName() string {
	if n := a.IdentifyingInformation.OrganizationName; n != nil {
		return *n
	}
	return deref(a.IdentifyingInformation.FirstName) + " " + deref(a.IdentifyingInformation.LastName)
}

// Record is a stored application.
type Record struct {
	ApplicationID int `json:"application_id" db:"application_id"`

	BasicInformation       `json:"basic_information"`
	IdentifyingInformation `json:"identifying_information"`
	BusinessAddress        `json:"business_address"`
	ContactPerson          `json:"contact_person"`
	Certification          `json:"certification"`

	SubmissionDate time.Time `json:"submission_date" db:"submission_date"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// NewRecord flattens app into a record without database-assigned fields.
func NewRecord(app Application) Record {
	return Record{
		BasicInformation:       app.BasicInformation,
		IdentifyingInformation: app.IdentifyingInformation,
		BusinessAddress:        app.BusinessAddress,
		ContactPerson:          app.ContactPerson,
		Certification:          app.Certification,
	}
}

// Application returns the nested form view of r.
func (r Record) Application() Application {
	return Application{
		BasicInformation:       r.BasicInformation,
		IdentifyingInformation: r.IdentifyingInformation,
		BusinessAddress:        r.BusinessAddress,
		ContactPerson:          r.ContactPerson,
		Certification:          r.Certification,
	}
}

// Summary is one row of the application listing.
type Summary struct {
	ApplicationID    int       `json:"application_id" db:"application_id"`
	SubmissionReason string    `json:"submission_reason" db:"submission_reason"`
	EntityType       string    `json:"entity_type" db:"entity_type"`
	Name             string    `json:"name" db:"name"`
	ExistingNPI      *string   `json:"existing_npi" db:"existing_npi"`
	ContactEmail     string    `json:"contact_email" db:"contact_email"`
	SubmissionDate   time.Time `json:"submission_date" db:"submission_date"`
	Status           string    `json:"status" db:"status"`
}

// Receipt acknowledges a submission.
type Receipt struct {
	ApplicationID  int       `json:"application_id"`
	SubmissionDate time.Time `json:"submission_date"`
	Status         string    `json:"status"`
	Message        string    `json:"message"`
}

// AuditEntry is one npi_audit_log row.
type AuditEntry struct {
	LogID         int       `json:"log_id" db:"log_id"`
	ApplicationID int       `json:"application_id" db:"application_id"`
	Action        string    `json:"action" db:"action"`
	ActionDate    time.Time `json:"action_date" db:"action_date"`
	Notes         string    `json:"notes" db:"notes"`
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

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
