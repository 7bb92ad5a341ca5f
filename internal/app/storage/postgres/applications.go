package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/npi"
)

// applicationColumns are the caller-supplied npi_applications columns. Each
// name matches a db tag on npi.Record.
var applicationColumns = []string{
	"submission_reason", "entity_type", "existing_npi",
	"name_prefix", "first_name", "middle_name", "last_name", "name_suffix", "credential",
	"organization_name", "organization_type",
	"other_name", "other_organization_name", "ssn", "ein", "date_of_birth", "gender",
	"state_license_number", "issuing_state",
	"mailing_address_line1", "mailing_address_line2", "mailing_city", "mailing_state",
	"mailing_zip", "mailing_country", "mailing_phone", "mailing_fax",
	"practice_address_line1", "practice_address_line2", "practice_city", "practice_state",
	"practice_zip", "practice_country", "practice_phone", "practice_fax",
	"enumeration_date",
	"contact_first_name", "contact_middle_name", "contact_last_name",
	"contact_phone", "contact_phone_ext", "contact_email",
	"authorized_official_first_name", "authorized_official_middle_name",
	"authorized_official_last_name", "authorized_official_title",
	"authorized_official_phone", "authorized_official_email",
	"signature", "certification_date",
}

const applicationMetaColumns = "submission_date, status, created_at, updated_at"

func (s *Store) CreateApplication(ctx context.Context, app npi.Application) (npi.Record, error) {
	rec := npi.NewRecord(app)

	insert := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (:%s)
		RETURNING application_id, %s
	`, s.table("npi_applications"),
		strings.Join(applicationColumns, ", "),
		strings.Join(applicationColumns, ", :"),
		applicationMetaColumns)

	err := s.pool.WithTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := tx.BindNamed(insert, rec)
		if err != nil {
			return err
		}
		if err := tx.QueryRowxContext(ctx, query, args...).Scan(
			&rec.ApplicationID, &rec.SubmissionDate, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (application_id, action, notes)
			VALUES ($1, $2, $3)
		`, s.table("npi_audit_log")), rec.ApplicationID, npi.ActionSubmitted, app.AuditNote())
		return err
	})
	if err != nil {
		return npi.Record{}, err
	}
	return rec, nil
}

func (s *Store) ListApplications(ctx context.Context, limit, offset int) ([]npi.Summary, error) {
	out := make([]npi.Summary, 0)
	err := s.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &out, fmt.Sprintf(`
			SELECT
				application_id, submission_reason, entity_type,
				COALESCE(organization_name, CONCAT(first_name, ' ', last_name)) AS name,
				existing_npi, contact_email, submission_date, status
			FROM %s
			ORDER BY submission_date DESC
			LIMIT $1 OFFSET $2
		`, s.table("npi_applications")), limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetApplication(ctx context.Context, id int) (npi.Record, error) {
	var rec npi.Record
	err := s.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &rec, fmt.Sprintf(`
			SELECT application_id, %s, %s
			FROM %s
			WHERE application_id = $1
		`, strings.Join(applicationColumns, ", "), applicationMetaColumns, s.table("npi_applications")), id)
	})
	if err != nil {
		return npi.Record{}, notFound(err)
	}
	return rec, nil
}
