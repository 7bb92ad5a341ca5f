package applications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/civil"
	"github.com/pawansangari/dataconnect-apps/internal/app/domain/npi"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage"
	"github.com/pawansangari/dataconnect-apps/internal/app/storage/memory"
	"github.com/pawansangari/dataconnect-apps/internal/app/validation"
)

func strPtr(s string) *string { return &s }

func sampleApplication() npi.Application {
	return npi.Application{
		BasicInformation: npi.BasicInformation{SubmissionReason: "Initial Application", EntityType: "Organization"},
		IdentifyingInformation: npi.IdentifyingInformation{
			OrganizationName: strPtr("Harbor Clinic"),
			FirstName:        strPtr("  "),
		},
		BusinessAddress: npi.BusinessAddress{
			MailingAddressLine1: "1 Main St", MailingCity: "Baltimore", MailingState: "MD",
			MailingZip: "21244", MailingPhone: "410-555-0100",
			PracticeAddressLine1: "1 Main St", PracticeCity: "Baltimore", PracticeState: "MD",
			PracticeZip: "21244", PracticePhone: "410-555-0100",
		},
		ContactPerson: npi.ContactPerson{
			ContactFirstName: "Ada", ContactLastName: "Lovelace",
			ContactPhone: "410-555-0101", ContactEmail: " ada@example.com ",
		},
		Certification: npi.Certification{
			AuthorizedOfficialFirstName: "Ada", AuthorizedOfficialLastName: "Lovelace",
			AuthorizedOfficialTitle: "Owner", AuthorizedOfficialPhone: "410-555-0102",
			AuthorizedOfficialEmail: "ada@example.com", Signature: "Ada Lovelace",
			CertificationDate: civil.New(2024, time.March, 1),
		},
	}
}

// countingStore records writes so tests can assert nothing was stored.
type countingStore struct {
	*memory.Store
	creates int
	err     error
}

func (c *countingStore) CreateApplication(ctx context.Context, app npi.Application) (npi.Record, error) {
	c.creates++
	if c.err != nil {
		return npi.Record{}, c.err
	}
	return c.Store.CreateApplication(ctx, app)
}

func TestSubmitNormalisesAndStores(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil)

	receipt, err := svc.Submit(ctx, sampleApplication())
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.ApplicationID)
	assert.Equal(t, npi.StatusSubmitted, receipt.Status)
	assert.Equal(t, npi.SubmittedMessage, receipt.Message)

	rec, err := svc.Get(ctx, receipt.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", rec.ContactEmail)
	assert.Equal(t, npi.DefaultCountry, rec.MailingCountry)
	assert.Nil(t, rec.FirstName, "blank optional values are stored as null")

	audit := store.AuditLog(receipt.ApplicationID)
	require.Len(t, audit, 1)
	assert.Equal(t, "New Organization application submitted", audit[0].Notes)
}

func TestSubmitRejectsBadNPIBeforeWrite(t *testing.T) {
	store := &countingStore{Store: memory.New()}
	svc := New(store, nil)

	app := sampleApplication()
	app.BasicInformation.NPI = strPtr("12345")
	_, err := svc.Submit(context.Background(), app)

	errs, ok := validation.AsErrors(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	assert.Contains(t, errs, "basic_information.npi: NPI must be exactly 10 digits")
	assert.Zero(t, store.creates)
}

func TestSubmitSurfacesStoreErrors(t *testing.T) {
	store := &countingStore{Store: memory.New(), err: errors.New("refresh database credential: token endpoint unavailable")}
	svc := New(store, nil)

	_, err := svc.Submit(context.Background(), sampleApplication())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token endpoint unavailable")
	assert.Equal(t, 1, store.creates)
}

func TestListClampsPaging(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil)
	for i := 0; i < 3; i++ {
		_, err := svc.Submit(ctx, sampleApplication())
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, 0, -5)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := svc.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Harbor Clinic", page[0].Name)

	_, err = svc.Get(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

type pingStore struct {
	*memory.Store
	err error
}

func (p pingStore) Ping(context.Context) error { return p.err }

func TestDatabaseStatus(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, storage.StatusInMemory, New(memory.New(), nil).DatabaseStatus(ctx))
	assert.Equal(t, storage.StatusConnected, New(pingStore{Store: memory.New()}, nil).DatabaseStatus(ctx))
	assert.Equal(t, "error: connection refused",
		New(pingStore{Store: memory.New(), err: errors.New("connection refused")}, nil).DatabaseStatus(ctx))
}
