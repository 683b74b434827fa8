package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "library/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Append(ctx, audit.Event{Action: audit.ActionBookCreated, Subject: "book:1"}))
	require.NoError(t, store.Append(ctx, audit.Event{Action: audit.ActionLoanCreated, Subject: "loan:1"}))
	require.NoError(t, store.Append(ctx, audit.Event{Action: audit.ActionBookUpdated, Subject: "book:1"}))

	t.Run("lists a subject in insertion order", func(t *testing.T) {
		events, err := store.ListBySubject(ctx, "book:1")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, audit.ActionBookCreated, events[0].Action)
		assert.Equal(t, audit.ActionBookUpdated, events[1].Action)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		events, err := store.ListBySubject(ctx, "loan:1")
		require.NoError(t, err)
		events[0].Subject = "changed"

		again, err := store.ListBySubject(ctx, "loan:1")
		require.NoError(t, err)
		assert.Equal(t, "loan:1", again[0].Subject)
	})

	t.Run("clear drops everything", func(t *testing.T) {
		store.Clear()
		events, err := store.ListBySubject(ctx, "book:1")
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
