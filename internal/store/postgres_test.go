package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthlens/risk-engine/internal/domain"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	return store, mock
}

func sampleSession(ts time.Time) *domain.AssessmentSession {
	return &domain.AssessmentSession{
		UserID:    "user-1",
		Timestamp: ts,
		Source:    domain.SourceLocal,
		Predictions: map[string]*domain.RiskPrediction{
			"heartdisease": {
				Disease:     domain.DiseaseCardiac,
				Score:       0.625,
				Category:    domain.RiskHigh,
				Confidence:  0.89,
				GeneratedAt: ts,
			},
		},
		Vitality: &domain.VitalityIndex{Score: 45, Category: "Critical"},
	}
}

func TestPostgresStore_Save_UpsertsByUserAndBucket(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.Close()

	ts := time.Date(2026, 8, 27, 10, 5, 0, 0, time.UTC)
	snapshot := &Snapshot{
		UserID:  "user-1",
		Bucket:  ts, // not yet truncated
		Session: sampleSession(ts),
	}

	mock.ExpectQuery("INSERT INTO assessment_snapshots").
		WithArgs("user-1", ts.Truncate(time.Hour), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))

	err := store.Save(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, int64(7), snapshot.ID)
	// Save normalizes the bucket to the hour before writing.
	assert.Equal(t, ts.Truncate(time.Hour), snapshot.Bucket)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Latest(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.Close()

	ts := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	sessionJSON, err := json.Marshal(sampleSession(ts))
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "user_id", "bucket", "session", "created_at", "updated_at"}).
		AddRow(int64(3), "user-1", ts, sessionJSON, time.Now(), time.Now())

	mock.ExpectQuery("SELECT id, user_id, bucket, session, created_at, updated_at").
		WithArgs("user-1").
		WillReturnRows(rows)

	snapshot, err := store.Latest(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, "user-1", snapshot.UserID)
	require.Contains(t, snapshot.Session.Predictions, "heartdisease")
	assert.Equal(t, 0.625, snapshot.Session.Predictions["heartdisease"].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Latest_NoRows(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.Close()

	mock.ExpectQuery("SELECT id, user_id, bucket, session, created_at, updated_at").
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "bucket", "session", "created_at", "updated_at"}))

	snapshot, err := store.Latest(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Nil(t, snapshot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Count(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Latest_CorruptPayload(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.Close()

	rows := sqlmock.NewRows([]string{"id", "user_id", "bucket", "session", "created_at", "updated_at"}).
		AddRow(int64(3), "user-1", time.Now(), []byte("{not json"), time.Now(), time.Now())

	mock.ExpectQuery("SELECT id, user_id, bucket, session, created_at, updated_at").
		WithArgs("user-1").
		WillReturnRows(rows)

	_, err := store.Latest(context.Background(), "user-1")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
