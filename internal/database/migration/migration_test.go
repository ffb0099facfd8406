package migration

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sipeta/internal/category"
)

func smallRegistry() *category.Registry {
	return category.NewRegistry([]category.Category{
		{
			Key:   "surat-masuk",
			Table: "surat_masuk",
			Fields: []category.Field{
				{Name: "nomor_surat", Type: category.Text, Required: true},
				{Name: "tanggal_surat", Type: category.Date, Required: true},
			},
			UniqueColumns: []string{"nomor_surat"},
			Deletable:     true,
		},
		{
			Key:    "arsip-a",
			Table:  "arsip_dokumen_lain",
			Fields: []category.Field{{Name: "nominal", Type: category.Number}},
		},
		{
			Key:   "arsip-b",
			Table: "arsip_dokumen_lain",
		},
	}, nil)
}

func TestTableSteps(t *testing.T) {
	reg := smallRegistry()
	c, err := reg.Lookup("surat-masuk")
	require.NoError(t, err)

	steps := TableSteps(c)
	require.Len(t, steps, 3)

	ddl := steps[0].SQL
	assert.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "surat_masuk"`)
	assert.Contains(t, ddl, `"nomor_surat" TEXT NOT NULL`)
	assert.Contains(t, ddl, `"tanggal_surat" DATE NOT NULL`)
	assert.Contains(t, ddl, "deleting_at TIMESTAMPTZ")
	assert.Contains(t, ddl, "file_url   TEXT        NOT NULL")
	assert.Equal(t, "create_unique_surat_masuk_nomor_surat", steps[2].Name)

	arsip, err := reg.Lookup("arsip-a")
	require.NoError(t, err)
	ddl = TableSteps(arsip)[0].SQL
	assert.Contains(t, ddl, `"nominal" NUMERIC(18,2),`)
	assert.NotContains(t, ddl, "deleting_at")
}

func TestPlansDeduplicateSharedTables(t *testing.T) {
	plans := Plans(smallRegistry())
	tables := make([]string, 0, len(plans))
	for _, p := range plans {
		tables = append(tables, p.Table)
	}
	assert.Equal(t, []string{"users", "profiles", "surat_masuk", "arsip_dokumen_lain"}, tables)
}

func expectExists(mock sqlmock.Sqlmock, table string, exists bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT to_regclass($1) IS NOT NULL")).
		WithArgs("public." + table).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func TestEnsureMigrated(t *testing.T) {
	ctx := context.Background()
	reg := smallRegistry()

	t.Run("all tables present", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		for _, table := range []string{"users", "profiles", "surat_masuk", "arsip_dokumen_lain"} {
			expectExists(mock, table, true)
		}

		var buf bytes.Buffer
		require.NoError(t, EnsureMigrated(ctx, db, reg, zerolog.New(&buf), "db.local"))
		assert.Contains(t, buf.String(), "db_migration_skip")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates only missing tables", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		expectExists(mock, "users", true)
		expectExists(mock, "profiles", false)
		expectExists(mock, "surat_masuk", true)
		expectExists(mock, "arsip_dokumen_lain", true)

		mock.ExpectExec(regexp.QuoteMeta(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS profiles")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		var buf bytes.Buffer
		require.NoError(t, EnsureMigrated(ctx, db, reg, zerolog.New(&buf), "db.local"))
		assert.Contains(t, buf.String(), "db_migration_success")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("step failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		expectExists(mock, "users", false)
		expectExists(mock, "profiles", true)
		expectExists(mock, "surat_masuk", true)
		expectExists(mock, "arsip_dokumen_lain", true)
		mock.ExpectExec("CREATE EXTENSION").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("permission denied"))

		err = EnsureMigrated(ctx, db, reg, zerolog.Nop(), "db.local")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create_table_users")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("check failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("to_regclass").WillReturnError(errors.New("connection refused"))

		err = EnsureMigrated(ctx, db, reg, zerolog.Nop(), "db.local")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check table users")
	})
}
