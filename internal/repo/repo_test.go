package repo

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spycat/internal/db"
	"spycat/internal/domain"
	"spycat/internal/migrate"
)

func newMockRepo(t *testing.T) (Repo, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return Repo{DB: conn, Dialect: db.Postgres}, mock
}

func withTx(ctx context.Context, r Repo, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func TestPostgresInsertCatUsesReturning(t *testing.T) {
	r, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO cats(name,experience_years,breed,salary) VALUES ($1,$2,$3,$4) RETURNING id")).
		WithArgs("Tom", 3, "Siamese", 1500.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	var got domain.Cat
	err := withTx(ctx, r, func(tx *sql.Tx) error {
		var err error
		got, err = r.InsertCat(ctx, tx, domain.Cat{Name: "Tom", ExperienceYears: 3, Breed: "Siamese", Salary: 1500})
		return err
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLockMissionSelectsForUpdate(t *testing.T) {
	r, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,cat_id,completed FROM missions WHERE id=$1 FOR UPDATE")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cat_id", "completed"}).AddRow(4, nil, false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,mission_id,name,country,notes,completed FROM targets WHERE mission_id=$1 ORDER BY id ASC")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "mission_id", "name", "country", "notes", "completed"}).
			AddRow(1, 4, "Viper", "PT", "", false))
	mock.ExpectRollback()

	err := withTx(ctx, r, func(tx *sql.Tx) error {
		m, err := r.LockMission(ctx, tx, 4)
		if err != nil {
			return err
		}
		assert.Nil(t, m.CatID)
		assert.Len(t, m.Targets, 1)
		return errors.New("stop")
	})
	assert.EqualError(t, err, "stop")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLockCatNotFound(t *testing.T) {
	r, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,name,experience_years,breed,salary FROM cats WHERE id=$1 FOR UPDATE")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "experience_years", "breed", "salary"}))
	mock.ExpectRollback()

	err := withTx(ctx, r, func(tx *sql.Tx) error {
		_, err := r.LockCat(ctx, tx, 9)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMissionClearsCat(t *testing.T) {
	r, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE missions SET cat_id=$1, completed=$2 WHERE id=$3")).
		WithArgs(nil, true, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := withTx(ctx, r, func(tx *sql.Tx) error {
		return r.UpdateMission(ctx, tx, domain.Mission{ID: 2, Completed: true})
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteMissingCat(t *testing.T) {
	r, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cats WHERE id=$1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := withTx(ctx, r, func(tx *sql.Tx) error {
		return r.DeleteCat(ctx, tx, 3)
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newSQLiteRepo(t *testing.T) Repo {
	t.Helper()
	conn, dialect, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn, dialect))
	return Repo{DB: conn, Dialect: dialect}
}

func TestSQLiteMissionRoundTrip(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	var mission domain.Mission
	err := withTx(ctx, r, func(tx *sql.Tx) error {
		cat, err := r.InsertCat(ctx, tx, domain.Cat{Name: "Tom", ExperienceYears: 2, Breed: "Siamese", Salary: 10})
		if err != nil {
			return err
		}
		mission, err = r.InsertMission(ctx, tx, domain.Mission{CatID: &cat.ID})
		if err != nil {
			return err
		}
		for _, name := range []string{"Viper", "Cobra"} {
			if _, err := r.InsertTarget(ctx, tx, domain.Target{MissionID: mission.ID, Name: name, Country: "PT"}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var got domain.Mission
	var all []domain.Mission
	require.NoError(t, withTx(ctx, r, func(tx *sql.Tx) error {
		var err error
		if got, err = r.GetMissionTx(ctx, tx, mission.ID); err != nil {
			return err
		}
		all, err = r.ListMissionsTx(ctx, tx)
		return err
	}))
	require.NotNil(t, got.CatID)
	assert.Len(t, got.Targets, 2)
	assert.Equal(t, "Viper", got.Targets[0].Name)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Targets, 2)

	// Deleting the mission takes its targets with it.
	err = withTx(ctx, r, func(tx *sql.Tx) error { return r.DeleteMission(ctx, tx, mission.ID) })
	require.NoError(t, err)
	err = withTx(ctx, r, func(tx *sql.Tx) error {
		_, err := r.LockTarget(ctx, tx, got.Targets[0].ID)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteOneActiveMissionPerCat(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	var catID int64
	require.NoError(t, withTx(ctx, r, func(tx *sql.Tx) error {
		cat, err := r.InsertCat(ctx, tx, domain.Cat{Name: "Tom", Breed: "Siamese"})
		catID = cat.ID
		if err != nil {
			return err
		}
		_, err = r.InsertMission(ctx, tx, domain.Mission{CatID: &catID})
		return err
	}))

	err := withTx(ctx, r, func(tx *sql.Tx) error {
		_, err := r.InsertMission(ctx, tx, domain.Mission{CatID: &catID})
		return err
	})
	assert.Error(t, err)

	// A completed mission does not count against the cat.
	err = withTx(ctx, r, func(tx *sql.Tx) error {
		_, err := r.InsertMission(ctx, tx, domain.Mission{CatID: &catID, Completed: true})
		return err
	})
	assert.NoError(t, err)

	err = withTx(ctx, r, func(tx *sql.Tx) error {
		m, err := r.ActiveMissionForCat(ctx, tx, catID)
		if err != nil {
			return err
		}
		assert.False(t, m.Completed)
		return nil
	})
	assert.NoError(t, err)
}
