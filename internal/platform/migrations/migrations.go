// Package migrations bootstraps the per-app schemas. Every statement is
// idempotent so the set is applied on each start.
package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Execer is satisfied by *sql.DB, *sql.Tx, *sqlx.Tx and *sqlx.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Apply executes stmts in order and stops at the first failure.
func Apply(ctx context.Context, db Execer, stmts ...string) error {
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return nil
}

// NPI returns the statements creating the NPI application tables in schema.
func NPI(schema string) []string {
	return render(schema, npiStatements)
}

// HETS returns the statements creating the HETS enrollment tables in schema.
func HETS(schema string) []string {
	return render(schema, hetsStatements)
}

func render(schema string, templates []string) []string {
	quoted := pq.QuoteIdentifier(schema)
	out := make([]string, 0, len(templates)+1)
	out = append(out, "CREATE SCHEMA IF NOT EXISTS "+quoted)
	for _, tmpl := range templates {
		out = append(out, fmt.Sprintf(tmpl, quoted))
	}
	return out
}

var npiStatements = []string{
	`CREATE TABLE IF NOT EXISTS %[1]s.npi_applications (
		application_id SERIAL PRIMARY KEY,

		submission_reason VARCHAR(100) NOT NULL,
		entity_type VARCHAR(50) NOT NULL,
		existing_npi VARCHAR(10),

		name_prefix VARCHAR(10),
		first_name VARCHAR(100),
		middle_name VARCHAR(100),
		last_name VARCHAR(100),
		name_suffix VARCHAR(10),
		credential VARCHAR(50),

		organization_name VARCHAR(255),
		organization_type VARCHAR(100),

		other_name VARCHAR(255),
		other_organization_name VARCHAR(255),
		ssn VARCHAR(11),
		ein VARCHAR(10),
		date_of_birth DATE,
		gender VARCHAR(20),
		state_license_number VARCHAR(50),
		issuing_state VARCHAR(2),

		mailing_address_line1 VARCHAR(255) NOT NULL,
		mailing_address_line2 VARCHAR(255),
		mailing_city VARCHAR(100) NOT NULL,
		mailing_state VARCHAR(2) NOT NULL,
		mailing_zip VARCHAR(10) NOT NULL,
		mailing_country VARCHAR(50) NOT NULL,
		mailing_phone VARCHAR(20) NOT NULL,
		mailing_fax VARCHAR(20),

		practice_address_line1 VARCHAR(255) NOT NULL,
		practice_address_line2 VARCHAR(255),
		practice_city VARCHAR(100) NOT NULL,
		practice_state VARCHAR(2) NOT NULL,
		practice_zip VARCHAR(10) NOT NULL,
		practice_country VARCHAR(50) NOT NULL,
		practice_phone VARCHAR(20) NOT NULL,
		practice_fax VARCHAR(20),

		enumeration_date DATE,

		contact_first_name VARCHAR(100) NOT NULL,
		contact_middle_name VARCHAR(100),
		contact_last_name VARCHAR(100) NOT NULL,
		contact_phone VARCHAR(20) NOT NULL,
		contact_phone_ext VARCHAR(10),
		contact_email VARCHAR(255) NOT NULL,

		authorized_official_first_name VARCHAR(100) NOT NULL,
		authorized_official_middle_name VARCHAR(100),
		authorized_official_last_name VARCHAR(100) NOT NULL,
		authorized_official_title VARCHAR(100) NOT NULL,
		authorized_official_phone VARCHAR(20) NOT NULL,
		authorized_official_email VARCHAR(255) NOT NULL,
		signature VARCHAR(255) NOT NULL,
		certification_date DATE NOT NULL,

		submission_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		status VARCHAR(50) DEFAULT 'Submitted',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.npi_audit_log (
		log_id SERIAL PRIMARY KEY,
		application_id INTEGER REFERENCES %[1]s.npi_applications(application_id) ON DELETE CASCADE,
		action VARCHAR(50) NOT NULL,
		action_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		notes TEXT
	)`,
}

var hetsStatements = []string{
	`CREATE TABLE IF NOT EXISTS %[1]s.hets_providers (
		provider_id SERIAL PRIMARY KEY,
		authorized_signatory_name VARCHAR(255) NOT NULL,
		title VARCHAR(100),
		organization_name VARCHAR(255),
		email_address VARCHAR(255) NOT NULL,
		alternate_email_address VARCHAR(255),
		phone_number VARCHAR(20),
		ptan VARCHAR(50),
		npi VARCHAR(10),
		tax_id VARCHAR(20),
		organization_type VARCHAR(100),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.hets_vendor_relationships (
		relationship_id SERIAL PRIMARY KEY,
		provider_id INTEGER REFERENCES %[1]s.hets_providers(provider_id) ON DELETE CASCADE,
		vendor_clearinghouse_name VARCHAR(255) NOT NULL,
		vendor_contact_name VARCHAR(255),
		vendor_contact_email VARCHAR(255),
		vendor_contact_phone VARCHAR(20),
		effective_date DATE NOT NULL,
		termination_date DATE,
		offshore_data_sharing_consent BOOLEAN DEFAULT FALSE,
		relationship_status VARCHAR(50) DEFAULT 'Active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.hets_attestations (
		attestation_id SERIAL PRIMARY KEY,
		provider_id INTEGER REFERENCES %[1]s.hets_providers(provider_id) ON DELETE CASCADE,
		relationship_id INTEGER REFERENCES %[1]s.hets_vendor_relationships(relationship_id) ON DELETE CASCADE,
		attestation_text TEXT NOT NULL,
		attested_by VARCHAR(255) NOT NULL,
		attestation_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		ip_address VARCHAR(45),
		submission_status VARCHAR(50) DEFAULT 'Submitted'
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.hets_submission_history (
		submission_id SERIAL PRIMARY KEY,
		provider_id INTEGER REFERENCES %[1]s.hets_providers(provider_id) ON DELETE CASCADE,
		submission_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		submission_type VARCHAR(50),
		status VARCHAR(50),
		notes TEXT
	)`,
}
