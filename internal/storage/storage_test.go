package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestMigrator_IsIdempotent(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, DriverSQLite)

	pending, err := m.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, m.Migrate(context.Background()))
}

func TestTranscriptRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewTranscriptRepository(openTestDB(t))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, input := range []string{"hi", "what is angina", "how to prevent it"} {
		require.NoError(t, repo.Save(ctx, &Transcript{
			SessionID: "s1",
			UserInput: input,
			Response:  "r",
			Source:    "knowledge",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	other := &Transcript{SessionID: "s2", UserInput: "what is football", Response: "no", Source: "refused"}
	require.NoError(t, repo.Save(ctx, other))
	assert.NotEqual(t, uuid.Nil, other.ID)
	assert.False(t, other.CreatedAt.IsZero())

	all, err := repo.ListBySession(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "hi", all[0].UserInput)
	assert.Equal(t, "how to prevent it", all[2].UserInput)
	assert.True(t, all[1].CreatedAt.Equal(base.Add(time.Minute)))

	recent, err := repo.ListBySession(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "what is angina", recent[0].UserInput)
	assert.Equal(t, "how to prevent it", recent[1].UserInput)

	none, err := repo.ListBySession(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	counts, err := repo.CountBySource(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"knowledge": 3, "refused": 1}, counts)
}
