package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rot-leaderboard/internal/database"
	"rot-leaderboard/internal/domain"
)

func newRepo(t *testing.T) *RefreshRepository {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRefreshRepository(db, zerolog.Nop())
}

func TestRecordAndRecent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 5, 12, 0, 0, 0, time.UTC)

	first := &domain.RefreshRun{
		Generation: 1, Year: "2024", Month: "04", Status: "ok", Players: 60,
		StartedAt: base, FinishedAt: base.Add(time.Second),
	}
	second := &domain.RefreshRun{
		Generation: 2, Year: "2024", Month: "05", Status: "partial", Players: 10,
		FailedChunks: 1, HasSnapshot: true,
		StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute + time.Second),
		Failures: []domain.ChunkFailure{{ChunkIndex: 1, Usernames: []string{"a", "b"}, Error: "boom"}},
	}
	require.NoError(t, repo.Record(ctx, first))
	require.NoError(t, repo.Record(ctx, second))
	assert.NotEmpty(t, first.ID)

	runs, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, "partial", runs[0].Status)
	assert.True(t, runs[0].HasSnapshot)
	assert.Equal(t, uint64(2), runs[0].Generation)
	require.Len(t, runs[0].Failures, 1)
	assert.Equal(t, []string{"a", "b"}, runs[0].Failures[0].Usernames)
	assert.Equal(t, "boom", runs[0].Failures[0].Error)
	assert.True(t, runs[0].StartedAt.Equal(base.Add(time.Minute)))

	assert.Empty(t, runs[1].Failures)

	runs, err = repo.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecentEmpty(t *testing.T) {
	runs, err := newRepo(t).Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
