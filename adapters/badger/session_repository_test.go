package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mezzanine/domain/core"
	"mezzanine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *SessionRepository {
	t.Helper()
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &SessionRepository{db: db}
}

func TestSessionRepository_Sessions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	first := models.NewGameSession(core.NewSessionID().String(), "number", 30, 17)
	first.PriorHash = "abc"
	require.NoError(t, repo.CreateSession(ctx, first))
	assert.True(t, core.IsConfigurationError(repo.CreateSession(ctx, first)))

	second := models.NewGameSession(core.NewSessionID().String(), "triangle", 0, 18)
	second.UpdatedAt = first.UpdatedAt.Add(-time.Hour)
	require.NoError(t, repo.CreateSession(ctx, second))

	stored, err := repo.GetSession(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "number", stored.Game)
	assert.Equal(t, int64(17), stored.Seed)
	assert.Equal(t, "abc", stored.PriorHash)

	sessions, err := repo.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first.ID, sessions[0].ID)

	require.NoError(t, repo.UpdateSessionState(ctx, second.ID, models.SessionStateCertain, "it is even"))
	sessions, err = repo.ListSessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, models.SessionStateCertain, sessions[0].State)
	assert.Equal(t, "it is even", sessions[0].Conclusion)

	missing := core.NewSessionID().String()
	_, err = repo.GetSession(ctx, missing)
	assert.True(t, core.IsNotFoundError(err))
	assert.True(t, core.IsNotFoundError(repo.UpdateSessionState(ctx, missing, models.SessionStateCollapsed, "")))
}

func TestSessionRepository_Observations(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	session := models.NewGameSession(core.NewSessionID().String(), "number", 30, 1)
	require.NoError(t, repo.CreateSession(ctx, session))

	records, err := repo.ListObservations(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	// Keys are zero padded, so seq 10 sorts after seq 9.
	for _, seq := range []int{10, 2, 9, 1} {
		require.NoError(t, repo.AppendObservation(ctx, &models.ObservationRecord{
			SessionID: session.ID,
			Seq:       seq,
			Subject:   models.JSONBRaw(fmt.Sprintf(`{"n":%d}`, seq)),
			Verdict:   seq%2 == 0,
		}))
	}
	err = repo.AppendObservation(ctx, &models.ObservationRecord{SessionID: session.ID, Seq: 2, Subject: models.JSONBRaw(`1`)})
	assert.True(t, core.IsConfigurationError(err))

	records, err = repo.ListObservations(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, records, 4)
	seqs := []int{records[0].Seq, records[1].Seq, records[2].Seq, records[3].Seq}
	assert.Equal(t, []int{1, 2, 9, 10}, seqs)
	assert.JSONEq(t, `{"n":1}`, string(records[0].Subject))
	assert.True(t, records[1].Verdict)
	assert.False(t, records[0].CreatedAt.IsZero())

	missing := core.NewSessionID().String()
	_, err = repo.ListObservations(ctx, missing)
	assert.True(t, core.IsNotFoundError(err))
	err = repo.AppendObservation(ctx, &models.ObservationRecord{SessionID: missing, Seq: 1, Subject: models.JSONBRaw(`1`)})
	assert.True(t, core.IsNotFoundError(err))
}

func TestSessionRepository_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "store")

	db, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	repo := NewSessionRepository(db)
	session := models.NewGameSession(core.NewSessionID().String(), "triangle", 0, 99)
	require.NoError(t, repo.CreateSession(ctx, session))
	require.NoError(t, repo.AppendObservation(ctx, &models.ObservationRecord{SessionID: session.ID, Seq: 1, Subject: models.JSONBRaw(`{"stacks":[]}`), Verdict: true}))
	require.NoError(t, db.Close())

	db, err = Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer db.Close()
	repo = NewSessionRepository(db)
	stored, err := repo.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(99), stored.Seed)
	records, err := repo.ListObservations(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Verdict)
}

func TestOpenNeedsPath(t *testing.T) {
	_, err := Open(Config{})
	assert.True(t, core.IsConfigurationError(err))
}
