package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sipeta/internal/model"
	"sipeta/internal/repository"
)

func TestUserPostgres_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("u-1", "ani@example.com", "hash", "Ani").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "created_at"}).
			AddRow("u-1", "ani@example.com", "hash", "Ani", now))

	u, err := repo.CreateUser(context.Background(), &model.User{
		ID: "u-1", Email: "Ani@Example.com", PasswordHash: "hash", FullName: "Ani",
	})
	require.NoError(t, err)
	assert.Equal(t, "ani@example.com", u.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_FindUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	cols := []string{"id", "email", "password_hash", "full_name", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ani@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u-1", "ani@example.com", "hash", "Ani", time.Now()))
	u, err := repo.FindUserByEmail(ctx, " ANI@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	u, err = repo.FindUserByID(ctx, "missing")
	assert.True(t, repository.IsNoRowsError(err))
	assert.Nil(t, u)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_Profiles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO profiles").
		WithArgs("u-1", "ani@example.com", "Ani", "3201010101010001", "user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.CreateProfile(ctx, &model.Profile{
		ID: "u-1", Email: "ani@example.com", FullName: "Ani", NIK: "3201010101010001",
	}))

	mock.ExpectExec("INSERT INTO profiles").
		WithArgs("u-2", "budi@example.com", "Budi", nil, "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.CreateProfile(ctx, &model.Profile{
		ID: "u-2", Email: "budi@example.com", FullName: "Budi", Role: "admin",
	}))

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE nik = $1")).
		WithArgs("3201010101010001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "nik", "role", "created_at"}).
			AddRow("u-1", "ani@example.com", "Ani", "3201010101010001", "user", time.Now()))
	p, err := repo.FindProfileByNIK(ctx, "3201010101010001")
	require.NoError(t, err)
	assert.Equal(t, "ani@example.com", p.Email)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs("u-9").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindProfileByID(ctx, "u-9")
	assert.True(t, repository.IsNoRowsError(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
