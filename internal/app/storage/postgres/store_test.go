package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/civil"
	"github.com/pawansangari/dataconnect-apps/internal/app/domain/hets"
	"github.com/pawansangari/dataconnect-apps/internal/app/domain/npi"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
	"github.com/pawansangari/dataconnect-apps/internal/platform/credentials"
	"github.com/pawansangari/dataconnect-apps/internal/platform/database"
	"github.com/pawansangari/dataconnect-apps/internal/platform/migrations"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	open := func(driverName, _ string) (*sqlx.DB, error) {
		return sqlx.Open(driverName, dsn)
	}
	pool, err := database.NewPool(
		database.Config{Host: "integration", Name: "integration", User: "integration"},
		credentials.NewStatic(""), logger.NewDiscard(), database.WithOpenFunc(open),
	)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	schema := "dataconnect_integration"
	stmts := append(migrations.NPI(schema), migrations.HETS(schema)...)
	if err := pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return migrations.Apply(ctx, conn, stmts...)
	}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := New(pool, schema)
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	org := "Harbor Clinic"
	rec, err := store.CreateApplication(ctx, npi.Application{
		BasicInformation:       npi.BasicInformation{SubmissionReason: "Initial", EntityType: "Organization"},
		IdentifyingInformation: npi.IdentifyingInformation{OrganizationName: &org},
		BusinessAddress: npi.BusinessAddress{
			MailingAddressLine1: "1 Main St", MailingCity: "Austin", MailingState: "TX", MailingZip: "73301",
			MailingCountry: "USA", MailingPhone: "555-0100",
			PracticeAddressLine1: "1 Main St", PracticeCity: "Austin", PracticeState: "TX", PracticeZip: "73301",
			PracticeCountry: "USA", PracticePhone: "555-0100",
		},
		ContactPerson: npi.ContactPerson{ContactFirstName: "Ana", ContactLastName: "Ruiz", ContactPhone: "555-0101", ContactEmail: "ana@example.com"},
		Certification: npi.Certification{
			AuthorizedOfficialFirstName: "Ana", AuthorizedOfficialLastName: "Ruiz", AuthorizedOfficialTitle: "Director",
			AuthorizedOfficialPhone: "555-0101", AuthorizedOfficialEmail: "ana@example.com", Signature: "Ana Ruiz",
			CertificationDate: civil.Today(),
		},
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	got, err := store.GetApplication(ctx, rec.ApplicationID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if got.OrganizationName == nil || *got.OrganizationName != org || got.Status != npi.StatusSubmitted {
		t.Fatalf("unexpected application: %+v", got)
	}

	enrollment, err := store.CreateEnrollment(ctx, hets.Enrollment{
		Provider: hets.Provider{
			AuthorizedSignatoryName: "Ana Ruiz", Title: "Director", OrganizationName: org,
			EmailAddress: "ana@example.com", PhoneNumber: "555-0101", PTAN: "AB12345",
			NPI: "1234567890", TaxID: "12-3456789", OrganizationType: "Clinic",
		},
		Vendor: hets.VendorRelationship{
			VendorClearinghouseName: "Acme", EffectiveDate: civil.Today(), RelationshipStatus: hets.RelationshipActive,
		},
		Attestation: hets.Attestation{AttestationText: hets.AttestationStatement, AttestedBy: "Ana Ruiz", IPAddress: "127.0.0.1"},
	})
	if err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	full, err := store.GetEnrollment(ctx, enrollment.Provider.ProviderID)
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if len(full.History) != 1 || full.Vendor.RelationshipID != enrollment.Vendor.RelationshipID {
		t.Fatalf("unexpected enrollment: %+v", full)
	}

	if _, err := store.GetEnrollment(ctx, -1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
