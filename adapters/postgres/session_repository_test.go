package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"mezzanine/domain/core"
	"mezzanine/internal/migration"
	"mezzanine/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to MEZZANINE_TEST_DATABASE_URL and migrates it. Tests
// are skipped when it is not set.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("MEZZANINE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MEZZANINE_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(ctx, db))
	return db
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	id := core.NewSessionID().String()
	session := models.NewGameSession(id, "number", 30, 1234567890123)
	require.NoError(t, repo.CreateSession(ctx, session))
	t.Cleanup(func() { db.Exec(`DELETE FROM game_sessions WHERE id = $1`, id) })

	err := repo.CreateSession(ctx, session)
	assert.True(t, core.IsConfigurationError(err), "duplicate sessions are rejected, got %v", err)

	stored, err := repo.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "number", stored.Game)
	assert.Equal(t, int64(1234567890123), stored.Seed)
	assert.Equal(t, models.SessionStateActive, stored.State)

	require.NoError(t, repo.AppendObservation(ctx, &models.ObservationRecord{SessionID: id, Seq: 1, Subject: models.JSONBRaw(`15`), Verdict: false, CreatedAt: time.Now()}))
	require.NoError(t, repo.AppendObservation(ctx, &models.ObservationRecord{SessionID: id, Seq: 2, Subject: models.JSONBRaw(`14`), Verdict: true, CreatedAt: time.Now()}))
	err = repo.AppendObservation(ctx, &models.ObservationRecord{SessionID: id, Seq: 2, Subject: models.JSONBRaw(`14`), Verdict: true, CreatedAt: time.Now()})
	assert.True(t, core.IsConfigurationError(err))

	records, err := repo.ListObservations(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "15", string(records[0].Subject))
	assert.True(t, records[1].Verdict)

	require.NoError(t, repo.UpdateSessionState(ctx, id, models.SessionStateCertain, "it is divisible by 7"))
	stored, err = repo.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStateCertain, stored.State)
	assert.Equal(t, "it is divisible by 7", stored.Conclusion)

	sessions, err := repo.ListSessions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSessionRepository_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	missing := core.NewSessionID().String()

	_, err := repo.GetSession(ctx, missing)
	assert.True(t, core.IsNotFoundError(err))
	assert.True(t, core.IsNotFoundError(repo.UpdateSessionState(ctx, missing, models.SessionStateCollapsed, "")))
	assert.True(t, core.IsNotFoundError(repo.AppendObservation(ctx, &models.ObservationRecord{SessionID: missing, Seq: 1, Subject: models.JSONBRaw(`1`), CreatedAt: time.Now()})))
	_, err = repo.ListObservations(ctx, missing)
	assert.True(t, core.IsNotFoundError(err))
}
