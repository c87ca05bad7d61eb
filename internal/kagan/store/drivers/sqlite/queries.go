package sqlite

import (
	"context"
	"database/sql"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same queries run inside
// and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries { return &queries{db: db} }

// userRow mirrors the users table.
type userRow struct {
	ID           string
	Username     string
	DisplayName  string
	PasswordHash string
	Role         string
	Email        sql.NullString
	Phone        sql.NullString
	IsActive     bool
	CreatedAt    string
	UpdatedAt    string

	FailedLogins      int64
	LastFailedLoginAt sql.NullString
}

const insertColumns = `id, username, display_name, password_hash, role, email, phone, is_active, created_at, updated_at`

const userColumns = insertColumns + `, failed_logins, last_failed_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (userRow, error) {
	var r userRow
	err := s.Scan(
		&r.ID,
		&r.Username,
		&r.DisplayName,
		&r.PasswordHash,
		&r.Role,
		&r.Email,
		&r.Phone,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.FailedLogins,
		&r.LastFailedLoginAt,
	)
	return r, err
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *queries) GetUserByID(ctx context.Context, id string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *queries) GetUserByUsername(ctx context.Context, username string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const createUser = `INSERT INTO users (` + insertColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *queries) CreateUser(ctx context.Context, r userRow) error {
	_, err := q.db.ExecContext(ctx, createUser,
		r.ID,
		r.Username,
		r.DisplayName,
		r.PasswordHash,
		r.Role,
		r.Email,
		r.Phone,
		r.IsActive,
		r.CreatedAt,
		r.UpdatedAt,
	)
	return err
}

const updateUserPasswordHash = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

func (q *queries) UpdateUserPasswordHash(ctx context.Context, id, hash, now string) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateUserPasswordHash, hash, now, id))
}

const updateLoginFailures = `UPDATE users SET failed_logins = ?, last_failed_login_at = ? WHERE id = ?`

func (q *queries) UpdateLoginFailures(ctx context.Context, id string, failures int64, at sql.NullString) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateLoginFailures, failures, at, id))
}

const updateUserProfile = `UPDATE users SET display_name = ?, email = ?, phone = ?, updated_at = ? WHERE id = ?`

func (q *queries) UpdateUserProfile(
	ctx context.Context,
	id, displayName string,
	email, phone sql.NullString,
	now string,
) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateUserProfile, displayName, email, phone, now, id))
}

const setUserActive = `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`

func (q *queries) SetUserActive(ctx context.Context, id string, active bool, now string) (int64, error) {
	return affected(q.db.ExecContext(ctx, setUserActive, active, now, id))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

func (q *queries) ListUsers(ctx context.Context) ([]userRow, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []userRow
	for rows.Next() {
		r, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
