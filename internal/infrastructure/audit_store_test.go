package infrastructure

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-tool-server/internal/domain"
)

func newTestAuditStore(t *testing.T) *AuditStore {
	t.Helper()

	store, err := NewAuditStore(filepath.Join(t.TempDir(), "nested", "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAuditStore_RecordAndRead(t *testing.T) {
	store := newTestAuditStore(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)
	require.NoError(t, store.RecordInvocation(ctx, domain.InvocationRecord{
		ID:        "inv-1",
		ToolName:  "echo",
		Outcome:   domain.OutcomeSucceeded,
		Message:   "hi",
		Duration:  15 * time.Millisecond,
		CreatedAt: created,
	}))

	records, err := store.RecentInvocations(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "inv-1", rec.ID)
	assert.Equal(t, "echo", rec.ToolName)
	assert.Equal(t, domain.OutcomeSucceeded, rec.Outcome)
	assert.False(t, rec.IsError)
	assert.Equal(t, "hi", rec.Message)
	assert.Equal(t, 15*time.Millisecond, rec.Duration)
	assert.True(t, created.Equal(rec.CreatedAt), "created_at round-trips: %s", rec.CreatedAt)
}

func TestAuditStore_GeneratesIDAndTimestamp(t *testing.T) {
	store := newTestAuditStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordInvocation(ctx, domain.InvocationRecord{ToolName: "echo", Outcome: domain.OutcomeRejected, IsError: true}))

	records, err := store.RecentInvocations(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].CreatedAt.IsZero())
	assert.True(t, records[0].IsError)
}

func TestAuditStore_NewestFirstAndLimit(t *testing.T) {
	store := newTestAuditStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordInvocation(ctx, domain.InvocationRecord{
			ToolName:  fmt.Sprintf("tool-%d", i),
			Outcome:   domain.OutcomeSucceeded,
			CreatedAt: base.Add(time.Duration(i) * 500 * time.Millisecond),
		}))
	}

	records, err := store.RecentInvocations(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "tool-4", records[0].ToolName)
	assert.Equal(t, "tool-3", records[1].ToolName)
	assert.Equal(t, "tool-2", records[2].ToolName)
}

func TestAuditStore_DuplicateID(t *testing.T) {
	store := newTestAuditStore(t)
	ctx := context.Background()

	record := domain.InvocationRecord{ID: "same", ToolName: "echo", Outcome: domain.OutcomeSucceeded}
	require.NoError(t, store.RecordInvocation(ctx, record))
	assert.Error(t, store.RecordInvocation(ctx, record))
}

func TestAuditStore_InMemory(t *testing.T) {
	store, err := NewAuditStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordInvocation(context.Background(), domain.InvocationRecord{ToolName: "echo", Outcome: domain.OutcomeFailed}))

	records, err := store.RecentInvocations(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAuditStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	store, err := NewAuditStore(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordInvocation(ctx, domain.InvocationRecord{ToolName: "echo", Outcome: domain.OutcomeSucceeded}))
	require.NoError(t, store.Close())

	reopened, err := NewAuditStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.RecentInvocations(ctx, "", 5)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAuditStore_FilterByTool(t *testing.T) {
	store := newTestAuditStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordInvocation(ctx, domain.InvocationRecord{
			ID:        fmt.Sprintf("echo-%d", i),
			ToolName:  "echo",
			Outcome:   domain.OutcomeSucceeded,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	for i := 0; i < 25; i++ {
		require.NoError(t, store.RecordInvocation(ctx, domain.InvocationRecord{
			ToolName:  "sleep",
			Outcome:   domain.OutcomeSucceeded,
			CreatedAt: base.Add(time.Minute + time.Duration(i)*time.Second),
		}))
	}

	records, err := store.RecentInvocations(ctx, "echo", 20)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "echo-2", records[0].ID)
	assert.Equal(t, "echo-0", records[2].ID)

	all, err := store.RecentInvocations(ctx, "", 20)
	require.NoError(t, err)
	assert.Len(t, all, 20)
	for _, rec := range all {
		assert.Equal(t, "sleep", rec.ToolName)
	}

	none, err := store.RecentInvocations(ctx, "missing", 20)
	require.NoError(t, err)
	assert.Empty(t, none)
}
