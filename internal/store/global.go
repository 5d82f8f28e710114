package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smsystem2000/sm-auth-services/internal/model"
)

// Global is the central store holding schools, global admins, school-admin
// identities and the email registry.
type Global struct {
	pool *pgxpool.Pool
}

func NewGlobal(pool *pgxpool.Pool) *Global {
	return &Global{pool: pool}
}

func (g *Global) GetSchool(ctx context.Context, schoolID string) (model.School, error) {
	var school model.School
	row := g.pool.QueryRow(ctx, `
		SELECT school_id, name, db_name, status
		FROM schools
		WHERE school_id = $1
	`, schoolID)
	err := row.Scan(&school.SchoolID, &school.Name, &school.DBName, &school.Status)
	return school, normalize(err)
}

func (g *Global) GetAdminByUsername(ctx context.Context, username string) (model.Admin, error) {
	var admin model.Admin
	row := g.pool.QueryRow(ctx, `
		SELECT admin_id, username, email, password_hash, role, status, created_at
		FROM admins
		WHERE username = $1
	`, username)
	err := row.Scan(
		&admin.AdminID,
		&admin.Username,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Role,
		&admin.Status,
		&admin.CreatedAt,
	)
	return admin, normalize(err)
}

// HighestAdminID returns the current highest admin id, or "" when no
// admins exist yet.
func (g *Global) HighestAdminID(ctx context.Context) (string, error) {
	var adminID string
	row := g.pool.QueryRow(ctx, `
		SELECT admin_id
		FROM admins
		ORDER BY admin_id DESC
		LIMIT 1
	`)
	if err := row.Scan(&adminID); err != nil {
		if errors.Is(normalize(err), ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return adminID, nil
}

// CreateAdmin inserts the admin and its email registry entry in one
// transaction. The unique constraints on admin_id and username back up
// the allocator's serialization.
func (g *Global) CreateAdmin(ctx context.Context, admin model.Admin) error {
	tx, err := g.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO admins (admin_id, username, email, password_hash, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, admin.AdminID, admin.Username, admin.Email, admin.PasswordHash, admin.Role, admin.Status, admin.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO email_registry (email, role, school_id, user_id, status)
		VALUES ($1, $2, NULL, $3, $4)
	`, admin.Email, admin.Role, admin.AdminID, admin.Status)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetSchoolAdminByEmail looks up a school-admin identity. These live in
// the global users collection, not in the school's own store.
func (g *Global) GetSchoolAdminByEmail(ctx context.Context, email string) (model.TenantUser, error) {
	var user model.TenantUser
	row := g.pool.QueryRow(ctx, `
		SELECT user_id, email, password_hash, first_name, last_name, role, status
		FROM users
		WHERE email = $1
	`, email)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.Status,
	)
	return user, normalize(err)
}

func (g *Global) LookupEmail(ctx context.Context, email string) (model.EmailRecord, error) {
	var record model.EmailRecord
	row := g.pool.QueryRow(ctx, `
		SELECT email, role, COALESCE(school_id, ''), user_id, status
		FROM email_registry
		WHERE email = $1
	`, email)
	err := row.Scan(&record.Email, &record.Role, &record.SchoolID, &record.UserID, &record.Status)
	return record, normalize(err)
}
