package postgres

import (
	"context"
	"database/sql"
	"strings"

	"sipeta/internal/model"
	"sipeta/internal/repository"
)

// UserPostgres stores users and their profiles.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var (
	_ repository.UserRepository    = (*UserPostgres)(nil)
	_ repository.ProfileRepository = (*UserPostgres)(nil)
)

// CreateUser inserts the identity row. Emails are stored lower-cased.
func (r *UserPostgres) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, email, password_hash, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, full_name, created_at
	`
	var out model.User
	err := r.db.QueryRowContext(ctx, q, u.ID, strings.ToLower(u.Email), u.PasswordHash, u.FullName).
		Scan(&out.ID, &out.Email, &out.PasswordHash, &out.FullName, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserPostgres) findUser(ctx context.Context, where string, arg any) (*model.User, error) {
	q := `SELECT id, email, password_hash, full_name, created_at FROM users WHERE ` + where
	var u model.User
	if err := r.db.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByEmail looks a user up case-insensitively.
func (r *UserPostgres) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findUser(ctx, "email = $1", strings.ToLower(strings.TrimSpace(email)))
}

// FindUserByID looks a user up by id.
func (r *UserPostgres) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.findUser(ctx, "id = $1", id)
}

// CreateProfile inserts the profile row. An empty NIK is stored as NULL.
func (r *UserPostgres) CreateProfile(ctx context.Context, p *model.Profile) error {
	const q = `
		INSERT INTO profiles (id, email, full_name, nik, role)
		VALUES ($1, $2, $3, $4, $5)
	`
	var nik any
	if p.NIK != "" {
		nik = p.NIK
	}
	role := p.Role
	if role == "" {
		role = "user"
	}
	_, err := r.db.ExecContext(ctx, q, p.ID, strings.ToLower(p.Email), p.FullName, nik, role)
	return err
}

func (r *UserPostgres) findProfile(ctx context.Context, where string, arg any) (*model.Profile, error) {
	q := `SELECT id, email, full_name, COALESCE(nik, ''), role, created_at FROM profiles WHERE ` + where
	var p model.Profile
	if err := r.db.QueryRowContext(ctx, q, arg).
		Scan(&p.ID, &p.Email, &p.FullName, &p.NIK, &p.Role, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindProfileByNIK resolves the alternate login key.
func (r *UserPostgres) FindProfileByNIK(ctx context.Context, nik string) (*model.Profile, error) {
	return r.findProfile(ctx, "nik = $1", strings.TrimSpace(nik))
}

// FindProfileByID returns the profile of a user.
func (r *UserPostgres) FindProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	return r.findProfile(ctx, "id = $1", id)
}
