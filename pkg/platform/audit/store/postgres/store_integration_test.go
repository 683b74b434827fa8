//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "library/pkg/platform/audit"
	auditpostgres "library/pkg/platform/audit/store/postgres"
	"library/pkg/testutil/containers"
)

func TestPostgresAuditStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pgc := containers.GetManager().GetPostgres(t)
	require.NoError(t, pgc.TruncateTables(ctx, "audit_events"))
	store := auditpostgres.New(pgc.DB)

	base := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	first := audit.Event{
		ID:        uuid.New(),
		Timestamp: base,
		Action:    audit.ActionLoanCreated,
		Subject:   "loan:7",
		Detail:    "book_id=3 customer=fulano",
		RequestID: "req-1",
		ClientIP:  "10.0.0.1",
	}
	second := audit.Event{
		ID:        uuid.New(),
		Timestamp: base.Add(time.Hour),
		Action:    audit.ActionLoanReturned,
		Subject:   "loan:7",
	}

	require.NoError(t, store.Append(ctx, second))
	require.NoError(t, store.Append(ctx, first))

	t.Run("lists oldest first", func(t *testing.T) {
		events, err := store.ListBySubject(ctx, "loan:7")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, first.ID, events[0].ID)
		assert.Equal(t, first.Detail, events[0].Detail)
		assert.Equal(t, first.ClientIP, events[0].ClientIP)
		assert.True(t, first.Timestamp.Equal(events[0].Timestamp))
		assert.Equal(t, audit.ActionLoanReturned, events[1].Action)
	})

	t.Run("replaying an event id is a no-op", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, first))
		events, err := store.ListBySubject(ctx, "loan:7")
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("unknown subject is empty", func(t *testing.T) {
		events, err := store.ListBySubject(ctx, "loan:999")
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
