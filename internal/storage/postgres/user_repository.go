package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

const userColumns = `id, full_name, email, password_hash, role, description, profile_image_url, version, created_at, updated_at`

type userRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт PostgreSQL-реализацию UserRepository.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{db: store.DB()}
}

func (r *userRepository) Create(user domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		user.ID, user.FullName, string(user.Email), string(user.PasswordHash), string(user.Role),
		user.Description, user.ProfileImageURL, user.Version, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == "users_email_key" {
				return domain.NewError(domain.ErrEmailTaken, "email %s is already registered", user.Email)
			}
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) Find(id string) (domain.User, bool, error) {
	return r.findOne(`WHERE id = $1`, id)
}

func (r *userRepository) FindByEmail(email domain.Email) (domain.User, bool, error) {
	return r.findOne(`WHERE email = $1`, string(email))
}

func (r *userRepository) Save(user domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET full_name = $1,
		    email = $2,
		    password_hash = $3,
		    description = $4,
		    profile_image_url = $5,
		    version = version + 1,
		    updated_at = $6
		WHERE id = $7
		  AND version = $8
	`,
		user.FullName, string(user.Email), string(user.PasswordHash), user.Description,
		user.ProfileImageURL, user.UpdatedAt, user.ID, user.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.ErrEmailTaken, "email %s is already registered", user.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return versionedUpdateResult(ctx, r.db, res, "users", user.ID, domain.ErrUserNotFound)
}

func (r *userRepository) findOne(where string, arg any) (domain.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, fmt.Errorf("select user: %w", err)
	}
	return user, true, nil
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user              domain.User
		email, hash, role string
	)
	if err := row.Scan(
		&user.ID, &user.FullName, &email, &hash, &role, &user.Description,
		&user.ProfileImageURL, &user.Version, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return domain.User{}, err
	}
	user.Email = domain.Email(email)
	user.PasswordHash = domain.PasswordHash(hash)
	user.Role = domain.UserRole(role)
	return user, nil
}

// versionedUpdateResult различает отсутствие строки и конфликт версий после UPDATE ... WHERE version = $n.
func versionedUpdateResult(ctx context.Context, q queryer, res sql.Result, table, id string, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check %s exists: %w", table, err)
	}
	if !exists {
		return notFound
	}
	return domain.ErrVersionConflict
}

// queryer покрывает *sql.DB и *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ domain.UserRepository = (*userRepository)(nil)
