package lock

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLockName(t *testing.T) {
	tests := []struct {
		schema string
		want   string
	}{
		{"sugarcrm", "teamsweep:sweep:sugarcrm"},
		{"crm-prod_2", "teamsweep:sweep:crm-prod_2"},
		{"crm.prod", "teamsweep:sweep:crm_prod"},
		{"a b;c", "teamsweep:sweep:a_b_c"},
		{"", "teamsweep:sweep:"},
	}

	for _, tt := range tests {
		t.Run(tt.schema, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateLockName(tt.schema))
		})
	}
}

func TestNewSweepLock(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewSweepLock(db, "sugarcrm")
	assert.Equal(t, "teamsweep:sweep:sugarcrm", l.LockName())
	assert.False(t, l.IsHeld())
}

func TestAcquireAndRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT GET_LOCK\(\?, \?\)`).
		WithArgs("teamsweep:sweep:sugarcrm", TimeoutShort).
		WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(1))
	mock.ExpectQuery(`SELECT RELEASE_LOCK\(\?\)`).
		WithArgs("teamsweep:sweep:sugarcrm").
		WillReturnRows(sqlmock.NewRows([]string{"release"}).AddRow(1))

	l := NewSweepLock(db, "sugarcrm")
	ctx := context.Background()

	require.NoError(t, l.AcquireOrFail(ctx))
	assert.True(t, l.IsHeld())

	// Re-acquiring a held lock does not hit the database again.
	acquired, err := l.AcquireLock(ctx, TimeoutShort)
	require.NoError(t, err)
	assert.True(t, acquired)

	released, err := l.ReleaseLock(ctx)
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, l.IsHeld())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireOrFail_HeldElsewhere(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT GET_LOCK`).
		WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(0))

	l := NewSweepLock(db, "sugarcrm")
	err = l.AcquireOrFail(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockTimeout))
	assert.False(t, l.IsHeld())
}

func TestAcquireLock_NullAndErrors(t *testing.T) {
	t.Run("null result", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT GET_LOCK`).
			WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(nil))

		_, err = NewSweepLock(db, "x").TryAcquire(context.Background())
		assert.Error(t, err)
	})

	t.Run("query error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT GET_LOCK`).WillReturnError(errors.New("connection reset"))

		_, err = NewSweepLock(db, "x").TryAcquire(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("unexpected value", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT GET_LOCK`).
			WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(7))

		_, err = NewSweepLock(db, "x").TryAcquire(context.Background())
		assert.Error(t, err)
	})
}

func TestReleaseLock_NotHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	released, err := NewSweepLock(db, "sugarcrm").ReleaseLock(context.Background())
	require.NoError(t, err)
	assert.False(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT GET_LOCK`).
		WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(1))
	mock.ExpectQuery(`SELECT RELEASE_LOCK`).
		WillReturnRows(sqlmock.NewRows([]string{"release"}).AddRow(1))

	l := NewSweepLock(db, "sugarcrm")
	ran := false
	err = l.WithLock(context.Background(), TimeoutShort, func() error {
		ran = true
		assert.True(t, l.IsHeld())
		return errors.New("sweep failed")
	})

	require.Error(t, err)
	assert.Equal(t, "sweep failed", err.Error())
	assert.True(t, ran)
	assert.False(t, l.IsHeld())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLock_Contended(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT GET_LOCK`).
		WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(0))

	ran := false
	err = NewSweepLock(db, "sugarcrm").WithLock(context.Background(), TimeoutImmediate, func() error {
		ran = true
		return nil
	})

	assert.True(t, errors.Is(err, ErrLockTimeout))
	assert.False(t, ran)
}
