package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"sipeta/internal/category"
	"sipeta/internal/model"
	"sipeta/internal/repository"
)

// RecordPostgres implements repository.RecordRepository over one table per category.
// Table and column names come from the category registry and are always quoted.
type RecordPostgres struct {
	db *sql.DB
}

// NewRecordPostgres creates a new RecordPostgres repository.
func NewRecordPostgres(db *sql.DB) *RecordPostgres {
	return &RecordPostgres{db: db}
}

var _ repository.RecordRepository = (*RecordPostgres)(nil)

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func liveFilter(c *category.Category) string {
	if c.Deletable {
		return category.ColDeletingAt + " IS NULL"
	}
	return "TRUE"
}

// Insert writes the schema fields present in rec.Fields plus the file reference.
func (r *RecordPostgres) Insert(ctx context.Context, c *category.Category, rec *model.Record) (*model.Record, error) {
	cols := []string{category.ColID}
	args := []any{rec.ID}
	for _, name := range c.Columns() {
		v, ok := rec.Fields[name]
		if !ok {
			continue
		}
		cols = append(cols, name)
		args = append(args, v)
	}

	var createdBy any
	if rec.CreatedBy != "" {
		createdBy = rec.CreatedBy
	}
	cols = append(cols, category.ColFileURL, category.ColFileName, category.ColFilePath, category.ColCreatedBy)
	args = append(args, rec.FileURL, rec.FileName, rec.FilePath, createdBy)

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = ident(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		ident(c.Table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	recs, err := r.query(ctx, c, q, args...)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &recs[0], nil
}

// List filters by ILIKE over the search columns when q.Search is set.
func (r *RecordPostgres) List(ctx context.Context, c *category.Category, lq repository.ListQuery) ([]model.Record, error) {
	where := []string{liveFilter(c)}
	var args []any

	if s := strings.TrimSpace(lq.Search); s != "" && len(c.SearchColumns) > 0 {
		args = append(args, "%"+escapeLike(s)+"%")
		ors := make([]string, 0, len(c.SearchColumns))
		for _, col := range c.SearchColumns {
			ors = append(ors, fmt.Sprintf("%s::text ILIKE $1", ident(col)))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	q := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY created_at DESC, id DESC",
		ident(c.Table), strings.Join(where, " AND "))
	if lq.Limit > 0 {
		args = append(args, lq.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.query(ctx, c, q, args...)
}

// FindByID fetches a single live row.
func (r *RecordPostgres) FindByID(ctx context.Context, c *category.Category, id string) (*model.Record, error) {
	q := fmt.Sprintf("SELECT * FROM %s WHERE id = $1 AND %s", ident(c.Table), liveFilter(c))
	recs, err := r.query(ctx, c, q, id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &recs[0], nil
}

// Count returns the number of live rows.
func (r *RecordPostgres) Count(ctx context.Context, c *category.Category) (int, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", ident(c.Table), liveFilter(c))
	var n int
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Probe selects one id. An empty table is reachable.
func (r *RecordPostgres) Probe(ctx context.Context, c *category.Category) error {
	q := fmt.Sprintf("SELECT id FROM %s LIMIT 1", ident(c.Table))
	var id string
	err := r.db.QueryRowContext(ctx, q).Scan(&id)
	if err != nil && !repository.IsNoRowsError(err) {
		return err
	}
	return nil
}

// MarkDeleting sets deleting_at on a live row.
func (r *RecordPostgres) MarkDeleting(ctx context.Context, c *category.Category, id string, at time.Time) error {
	q := fmt.Sprintf("UPDATE %s SET deleting_at = $2 WHERE id = $1 AND deleting_at IS NULL", ident(c.Table))
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ClearDeleting resets deleting_at.
func (r *RecordPostgres) ClearDeleting(ctx context.Context, c *category.Category, id string) error {
	q := fmt.Sprintf("UPDATE %s SET deleting_at = NULL WHERE id = $1", ident(c.Table))
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// Delete removes a row by ID.
func (r *RecordPostgres) Delete(ctx context.Context, c *category.Category, id string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = $1", ident(c.Table))
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// ListDeleting returns tombstones older than before, oldest first.
func (r *RecordPostgres) ListDeleting(ctx context.Context, c *category.Category, before time.Time) ([]model.Record, error) {
	if !c.Deletable {
		return nil, nil
	}
	q := fmt.Sprintf("SELECT * FROM %s WHERE deleting_at IS NOT NULL AND deleting_at < $1 ORDER BY deleting_at",
		ident(c.Table))
	return r.query(ctx, c, q, before)
}

func (r *RecordPostgres) query(ctx context.Context, c *category.Category, q string, args ...any) ([]model.Record, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	items := make([]model.Record, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		items = append(items, recordFromRow(c, cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func recordFromRow(c *category.Category, cols []string, vals []any) model.Record {
	rec := model.Record{Category: c.Key, Fields: make(map[string]any, len(cols))}
	for i, col := range cols {
		v := vals[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		switch col {
		case category.ColID:
			rec.ID = asString(v)
		case category.ColFileURL:
			rec.FileURL = asString(v)
		case category.ColFileName:
			rec.FileName = asString(v)
		case category.ColFilePath:
			rec.FilePath = asString(v)
		case category.ColCreatedBy:
			rec.CreatedBy = asString(v)
		case category.ColCreatedAt:
			if t, ok := v.(time.Time); ok {
				rec.CreatedAt = t
			}
		case category.ColUpdatedAt, category.ColDeletingAt:
		default:
			if v != nil {
				rec.Fields[col] = v
			}
		}
	}
	return rec
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
