package tickets

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/goldbuy-backend/internal/ledger"
	"github.com/angelmondragon/goldbuy-backend/internal/lifecycle"
	"github.com/angelmondragon/goldbuy-backend/pkg/db/models"
	"github.com/angelmondragon/goldbuy-backend/pkg/enums"
	"github.com/angelmondragon/goldbuy-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(models.AutoMigrateModels()...))
	return conn
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	ticket := mustAccepted(t)
	addr := "Apt 4"
	ticket.Customer.Address = &types.CustomerAddress{Line1: "1 Main St", Line2: &addr, City: "Reno", State: "NV", PostalCode: "89501"}
	ticket, _, err := ticket.RecordPayment(ledger.PaymentInput{Method: enums.PaymentMethodCash, Amount: d("200")}, "clerk-1", tolerance, testNow)
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, ticket))

	loaded, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.TicketNumber, loaded.TicketNumber)
	assert.Equal(t, enums.TicketStatusAccepted, loaded.Status)
	assert.Equal(t, ticket.Version, loaded.Version)
	require.NotNil(t, loaded.Customer.Address)
	assert.Equal(t, "Apt 4", *loaded.Customer.Address.Line2)
	require.Len(t, loaded.Items, 1)
	assert.True(t, loaded.Items[0].GrossWeight.Equal(d("10")))
	require.NotNil(t, loaded.Snapshot)
	assert.NotNil(t, loaded.Snapshot.CapturedAt)
	assert.True(t, loaded.PayoutDue().Equal(d("542.75")))
	require.Len(t, loaded.Payments, 1)
	assert.True(t, loaded.Payments[0].Amount.Equal(d("200")))
	require.True(t, loaded.Signatures.Customer.IsComplete())
	require.Len(t, loaded.Audit, len(ticket.Audit))
	for i, entry := range loaded.Audit {
		assert.Equal(t, i+1, entry.Seq)
	}

	byNumber, err := repo.FindByNumber(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, byNumber.ID)
}

func TestRepositoryFindMissing(t *testing.T) {
	_, err := NewRepository(newTestDB(t)).FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositorySaveChecksVersionAndAppendsTails(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	ticket := mustAccepted(t)
	require.NoError(t, repo.Create(ctx, ticket))
	storedAudit := len(ticket.Audit)

	payload := lifecycle.PaymentPayload{Payment: &ledger.PaymentInput{Method: enums.PaymentMethodCash, Amount: d("542.75")}}
	paid, err := ticket.Transition(nil, enums.TicketStatusPaid, payload, "clerk-1", tolerance, testNow)
	require.NoError(t, err)
	paid.Version = ticket.Version + 1

	saved, err := repo.Save(ctx, paid, ticket.Version+5)
	require.NoError(t, err)
	assert.False(t, saved, "stale version must not save")

	saved, err = repo.Save(ctx, paid, ticket.Version)
	require.NoError(t, err)
	require.True(t, saved)

	loaded, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TicketStatusPaid, loaded.Status)
	assert.Equal(t, paid.Version, loaded.Version)
	assert.Len(t, loaded.Payments, 1)
	assert.Len(t, loaded.Audit, storedAudit+1)

	entries, err := repo.ListAudit(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, storedAudit+1)
	assert.Equal(t, enums.TicketStatusPaid, entries[len(entries)-1].To)
}

func TestRepositorySaveReplacesItemsOnlyWhenChanged(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	ticket := mustDraft(t)
	require.NoError(t, repo.Create(ctx, ticket))

	withRing, ring, err := ticket.UpsertItem(ringInput(), testNow)
	require.NoError(t, err)
	chain := ringInput()
	chain.Type = "chain"
	withBoth, _, err := withRing.UpsertItem(chain, testNow)
	require.NoError(t, err)
	withBoth.Version = 2
	saved, err := repo.Save(ctx, withBoth, 1)
	require.NoError(t, err)
	require.True(t, saved)

	removed, err := withBoth.RemoveItem(ring.ID, testNow)
	require.NoError(t, err)
	removed.Version = 3
	saved, err = repo.Save(ctx, removed, 2)
	require.NoError(t, err)
	require.True(t, saved)

	loaded, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "chain", loaded.Items[0].Type)

	// A save that did not touch items leaves them alone.
	priced, err := loaded.SetPricing(ringPricing(), testNow)
	require.NoError(t, err)
	priced.Version = 4
	saved, err = repo.Save(ctx, priced, 3)
	require.NoError(t, err)
	require.True(t, saved)

	loaded, err = repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.True(t, loaded.Pricing.LivePricePerGram24k.Equal(d("75")))
}
