package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"sipeta/internal/category"
)

// Step is one idempotent DDL statement.
type Step struct {
	Name string
	SQL  string
}

const usersDDL = `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  email         TEXT        NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL,
  full_name     TEXT        NOT NULL DEFAULT '',
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const profilesDDL = `CREATE TABLE IF NOT EXISTS profiles (
  id         UUID        PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
  email      TEXT        NOT NULL,
  full_name  TEXT        NOT NULL DEFAULT '',
  nik        TEXT        UNIQUE,
  role       TEXT        NOT NULL DEFAULT 'user',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

func columnType(t category.FieldType) string {
	switch t {
	case category.Date:
		return "DATE"
	case category.Number:
		return "NUMERIC(18,2)"
	default:
		return "TEXT"
	}
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// TableSteps renders the DDL of one category table and its indexes.
func TableSteps(c *category.Category) []Step {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", quote(c.Table))
	b.WriteString("  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),\n")
	for _, f := range c.Fields {
		null := ""
		if f.Required {
			null = " NOT NULL"
		}
		fmt.Fprintf(&b, "  %s %s%s,\n", quote(f.Name), columnType(f.Type), null)
	}
	b.WriteString("  file_url   TEXT        NOT NULL,\n")
	b.WriteString("  file_name  TEXT        NOT NULL,\n")
	b.WriteString("  file_path  TEXT        NOT NULL,\n")
	b.WriteString("  created_by UUID        REFERENCES users(id) ON DELETE SET NULL,\n")
	if c.Deletable {
		b.WriteString("  deleting_at TIMESTAMPTZ,\n")
	}
	b.WriteString("  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),\n")
	b.WriteString("  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()\n);")

	steps := []Step{
		{Name: "create_table_" + c.Table, SQL: b.String()},
		{
			Name: "create_index_" + c.Table + "_created_at",
			SQL: fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (created_at DESC);",
				quote("idx_"+c.Table+"_created_at"), quote(c.Table)),
		},
	}
	for _, col := range c.UniqueColumns {
		idx := "uq_" + c.Table + "_" + col
		steps = append(steps, Step{
			Name: "create_unique_" + c.Table + "_" + col,
			SQL:  fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s);", quote(idx), quote(c.Table), quote(col)),
		})
	}
	return steps
}

// Plan lists the steps for a table name, keyed so missing tables can be created selectively.
type Plan struct {
	Table string
	Steps []Step
}

// Plans returns the identity tables followed by one plan per category table.
// Categories sharing a table are planned once.
func Plans(reg *category.Registry) []Plan {
	plans := []Plan{
		{Table: "users", Steps: []Step{{Name: "create_table_users", SQL: usersDDL}}},
		{Table: "profiles", Steps: []Step{
			{Name: "create_table_profiles", SQL: profilesDDL},
		}},
	}
	seen := map[string]bool{}
	for _, c := range reg.All() {
		if seen[c.Table] {
			continue
		}
		seen[c.Table] = true
		plans = append(plans, Plan{Table: c.Table, Steps: TableSteps(c)})
	}
	return plans
}

// EnsureMigrated creates every table that does not exist yet. Existing tables are
// left untouched.
func EnsureMigrated(ctx context.Context, db *sql.DB, reg *category.Registry, log zerolog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With().Str("component", "database").Str("db_host", dbHost).Logger()

	log.Info().Str("event", "db_migration_check").Str("status", "starting").Msg("")

	var pending []Plan
	for _, p := range Plans(reg) {
		var exists bool
		err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+p.Table).Scan(&exists)
		if err != nil {
			log.Error().
				Str("event", "db_migration_failed").
				Str("status", "error").
				Str("table", p.Table).
				Err(err).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Msg("failed to check table")
			return fmt.Errorf("failed to check table %s: %w", p.Table, err)
		}
		if !exists {
			pending = append(pending, p)
		}
	}

	if len(pending) == 0 {
		log.Info().
			Str("event", "db_migration_skip").
			Str("status", "success").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Str("status", "in_progress").Int("tables", len(pending)).Msg("")

	steps := []Step{{Name: "create_extension_uuid_ossp", SQL: `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`}}
	for _, p := range pending {
		steps = append(steps, p.Steps...)
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().
				Str("event", "db_migration_failed").
				Str("status", "error").
				Str("migration_step", step.Name).
				Err(err).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Msg("")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info().
			Str("event", "db_migration_step").
			Str("status", "success").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Msg("")
	}

	log.Info().
		Str("event", "db_migration_success").
		Str("status", "success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("")
	return nil
}
