package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smsystem2000/sm-auth-services/internal/model"
	"github.com/smsystem2000/sm-auth-services/internal/schema"
)

// TenantStore is a live handle to one school's isolated database.
type TenantStore struct {
	pool *pgxpool.Pool
}

func NewTenantStore(pool *pgxpool.Pool) *TenantStore {
	return &TenantStore{pool: pool}
}

// FindUserByEmail looks up an identity in the collection the role schema
// names. Table and column names come from the static schema registry,
// never from request input.
func (t *TenantStore) FindUserByEmail(ctx context.Context, sc schema.RoleSchema, email string) (model.TenantUser, error) {
	var user model.TenantUser
	query := fmt.Sprintf(`
		SELECT %s, email, password_hash, first_name, last_name, status
		FROM %s
		WHERE email = $1
	`, sc.IDColumn, sc.Table)
	row := t.pool.QueryRow(ctx, query, email)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Status,
	)
	return user, normalize(err)
}

func (t *TenantStore) Close() {
	t.pool.Close()
}
