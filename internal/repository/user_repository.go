package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// User mirrors the 'users' table.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	DisplayName  sql.NullString
	PhotoURL     sql.NullString
	Federated    bool
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,display_name,photo_url,federated,disabled,created_at,updated_at"

// NormalizeEmail lower-cases and trims an address the way every query does.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a password account and returns its ID.  The hash is
// computed by the caller.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash) VALUES (?,?)",
		NormalizeEmail(email), passwordHash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UpsertFederated creates or refreshes an account signed in through the
// federated provider and returns the stored row.  Profile fields are only
// filled when the local row has none, so edits made here survive later
// federated sign-ins.
func (r *UserRepo) UpsertFederated(ctx context.Context, email, name, photo string) (User, error) {
	email = NormalizeEmail(email)
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, display_name, photo_url, federated)
		 VALUES (?, '', NULLIF(?, ''), NULLIF(?, ''), 1)
		 ON DUPLICATE KEY UPDATE
		   federated = 1,
		   display_name = COALESCE(display_name, VALUES(display_name)),
		   photo_url = COALESCE(photo_url, VALUES(photo_url))`,
		email, name, photo)
	if err != nil {
		return User{}, err
	}
	return r.GetByEmail(ctx, email)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// UpdateProfile replaces the display name and photo.  A nil photo clears it.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name string, photo *string) error {
	var p sql.NullString
	if photo != nil {
		p = sql.NullString{String: *photo, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET display_name=?, photo_url=?, updated_at=NOW() WHERE id=?",
		name, p, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// SetPassword stores a new bcrypt hash for the user.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=NOW() WHERE id=?",
		passwordHash, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg any) (User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.PhotoURL,
		&u.Federated, &u.Disabled, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicate reports a MySQL unique-key violation (error 1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
