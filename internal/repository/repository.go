// Package repository declares the persistence contracts of the archive.
// Implementations live in subpackages (postgres) and contain no business rules.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sipeta/internal/category"
	"sipeta/internal/model"
)

// ListQuery narrows a category listing.
type ListQuery struct {
	// Search is matched case-insensitively as a substring of the category's search columns.
	Search string
	// Limit caps the number of rows; zero means no cap.
	Limit int
}

// RecordRepository reads and writes rows of the per-category tables.
// Every method takes the category so the table and columns come from its schema.
type RecordRepository interface {
	// Insert stores one row and returns it as the database saw it.
	Insert(ctx context.Context, c *category.Category, rec *model.Record) (*model.Record, error)

	// List returns live rows newest first.
	List(ctx context.Context, c *category.Category, q ListQuery) ([]model.Record, error)

	// FindByID returns a live row or sql.ErrNoRows.
	FindByID(ctx context.Context, c *category.Category, id string) (*model.Record, error)

	// Count returns the number of live rows.
	Count(ctx context.Context, c *category.Category) (int, error)

	// Probe reads at most one id, checking that the table is reachable.
	Probe(ctx context.Context, c *category.Category) error

	// MarkDeleting tombstones a live row. sql.ErrNoRows when it is missing or already tombstoned.
	MarkDeleting(ctx context.Context, c *category.Category, id string, at time.Time) error

	// ClearDeleting lifts the tombstone.
	ClearDeleting(ctx context.Context, c *category.Category, id string) error

	// Delete removes the row. Removing a missing row is not an error.
	Delete(ctx context.Context, c *category.Category, id string) error

	// ListDeleting returns rows tombstoned before the cutoff.
	ListDeleting(ctx context.Context, c *category.Category, before time.Time) ([]model.Record, error)
}

// UserRepository stores identity records.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByID(ctx context.Context, id string) (*model.User, error)
}

// ProfileRepository stores the NIK and display data linked to a user.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, p *model.Profile) error
	FindProfileByNIK(ctx context.Context, nik string) (*model.Profile, error)
	FindProfileByID(ctx context.Context, id string) (*model.Profile, error)
}

// IsNoRowsError reports whether err means the row does not exist.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
