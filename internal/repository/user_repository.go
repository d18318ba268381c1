package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/emr-service/internal/domain"
)

// Unique constraints on users, as named by PostgreSQL for the column-level UNIQUE
// clauses in migrations/0001_users.sql.
const (
	UsernameConstraint  = "users_username_key"
	UserEmailConstraint = "users_user_email_key"
)

// UserRepository defines persistence access for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, offset, limit int) ([]domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `user_id, username, user_first_name, user_middle_initial, user_last_name,
        user_date_of_birth, user_email, facility_id, user_enabled, user_hashed_password,
        user_street_address, user_city, user_state, user_country, user_phone_number, user_date_created`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.MiddleInitial,
		&user.LastName,
		&user.DateOfBirth,
		&user.Email,
		&user.FacilityID,
		&user.Enabled,
		&user.PasswordHash,
		&user.StreetAddress,
		&user.City,
		&user.State,
		&user.Country,
		&user.PhoneNumber,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, user_first_name, user_middle_initial, user_last_name,
            user_date_of_birth, user_email, facility_id, user_enabled, user_hashed_password,
            user_street_address, user_city, user_state, user_country, user_phone_number)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING user_id, user_date_created`

	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.FirstName,
		user.MiddleInitial,
		user.LastName,
		user.DateOfBirth,
		user.Email,
		user.FacilityID,
		user.Enabled,
		user.PasswordHash,
		user.StreetAddress,
		user.City,
		user.State,
		user.Country,
		user.PhoneNumber,
	).Scan(&user.ID, &user.CreatedAt)
	return mapWriteError(err)
}

func (r *userRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	const query = `UPDATE users SET user_enabled=$1 WHERE user_id=$2`

	cmd, err := r.db.Exec(ctx, query, enabled, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	return scanUser(r.db.QueryRow(ctx, query, username))
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY user_id OFFSET $1 LIMIT $2`

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
