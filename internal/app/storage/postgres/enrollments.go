package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/hets"
)

func (s *Store) CreateEnrollment(ctx context.Context, e hets.Enrollment) (hets.Enrollment, error) {
	err := s.pool.WithTx(ctx, func(tx *sqlx.Tx) error {
		p := &e.Provider
		if err := tx.QueryRowxContext(ctx, fmt.Sprintf(`
			INSERT INTO %s
				(authorized_signatory_name, title, organization_name, email_address,
				 alternate_email_address, phone_number, ptan, npi, tax_id, organization_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING provider_id, created_at
		`, s.table("hets_providers")),
			p.AuthorizedSignatoryName, p.Title, p.OrganizationName, p.EmailAddress,
			p.AlternateEmailAddress, p.PhoneNumber, p.PTAN, p.NPI, p.TaxID, p.OrganizationType,
		).Scan(&p.ProviderID, &p.CreatedAt); err != nil {
			return fmt.Errorf("insert provider: %w", err)
		}

		v := &e.Vendor
		v.ProviderID = p.ProviderID
		if err := tx.QueryRowxContext(ctx, fmt.Sprintf(`
			INSERT INTO %s
				(provider_id, vendor_clearinghouse_name, vendor_contact_name,
				 vendor_contact_email, vendor_contact_phone, effective_date,
				 termination_date, offshore_data_sharing_consent, relationship_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING relationship_id
		`, s.table("hets_vendor_relationships")),
			v.ProviderID, v.VendorClearinghouseName, v.VendorContactName,
			v.VendorContactEmail, v.VendorContactPhone, v.EffectiveDate,
			v.TerminationDate, v.OffshoreDataSharingConsent, v.RelationshipStatus,
		).Scan(&v.RelationshipID); err != nil {
			return fmt.Errorf("insert vendor relationship: %w", err)
		}

		a := &e.Attestation
		a.ProviderID = p.ProviderID
		a.RelationshipID = v.RelationshipID
		if err := tx.QueryRowxContext(ctx, fmt.Sprintf(`
			INSERT INTO %s
				(provider_id, relationship_id, attestation_text, attested_by, ip_address)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING attestation_id, attestation_date, submission_status
		`, s.table("hets_attestations")),
			a.ProviderID, a.RelationshipID, a.AttestationText, a.AttestedBy, a.IPAddress,
		).Scan(&a.AttestationID, &a.AttestationDate, &a.SubmissionStatus); err != nil {
			return fmt.Errorf("insert attestation: %w", err)
		}

		h := e.InitialHistory()
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (provider_id, submission_type, status, notes)
			VALUES ($1, $2, $3, $4)
		`, s.table("hets_submission_history")),
			h.ProviderID, h.SubmissionType, h.Status, h.Notes,
		); err != nil {
			return fmt.Errorf("insert submission history: %w", err)
		}
		return nil
	})
	if err != nil {
		return hets.Enrollment{}, err
	}
	return e, nil
}

func (s *Store) ListEnrollments(ctx context.Context) ([]hets.Summary, error) {
	out := make([]hets.Summary, 0)
	err := s.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &out, fmt.Sprintf(`
			SELECT
				p.provider_id,
				p.authorized_signatory_name,
				p.organization_name,
				p.email_address,
				p.ptan,
				p.npi,
				v.vendor_clearinghouse_name,
				v.effective_date,
				v.relationship_status,
				p.created_at
			FROM %s p
			LEFT JOIN %s v ON p.provider_id = v.provider_id
			ORDER BY p.created_at DESC
		`, s.table("hets_providers"), s.table("hets_vendor_relationships")))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetEnrollment(ctx context.Context, providerID int) (hets.Record, error) {
	var rec hets.Record
	err := s.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		if err := conn.GetContext(ctx, &rec.Provider, fmt.Sprintf(`
			SELECT provider_id, authorized_signatory_name, title, organization_name,
				email_address, alternate_email_address, phone_number, ptan, npi,
				tax_id, organization_type, created_at
			FROM %s
			WHERE provider_id = $1
		`, s.table("hets_providers")), providerID); err != nil {
			return err
		}

		err := conn.GetContext(ctx, &rec.Vendor, fmt.Sprintf(`
			SELECT relationship_id, provider_id, vendor_clearinghouse_name, vendor_contact_name,
				vendor_contact_email, vendor_contact_phone, effective_date, termination_date,
				offshore_data_sharing_consent, relationship_status
			FROM %s
			WHERE provider_id = $1
			ORDER BY relationship_id
			LIMIT 1
		`, s.table("hets_vendor_relationships")), providerID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load vendor relationship: %w", err)
		}

		err = conn.GetContext(ctx, &rec.Attestation, fmt.Sprintf(`
			SELECT attestation_id, provider_id, relationship_id, attestation_text, attested_by,
				attestation_date, ip_address, submission_status
			FROM %s
			WHERE provider_id = $1
			ORDER BY attestation_id
			LIMIT 1
		`, s.table("hets_attestations")), providerID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load attestation: %w", err)
		}

		rec.History = make([]hets.HistoryEntry, 0, 1)
		if err := conn.SelectContext(ctx, &rec.History, fmt.Sprintf(`
			SELECT submission_id, provider_id, submission_date, submission_type, status, notes
			FROM %s
			WHERE provider_id = $1
			ORDER BY submission_date, submission_id
		`, s.table("hets_submission_history")), providerID); err != nil {
			return fmt.Errorf("load submission history: %w", err)
		}
		return nil
	})
	if err != nil {
		return hets.Record{}, notFound(err)
	}
	return rec, nil
}
