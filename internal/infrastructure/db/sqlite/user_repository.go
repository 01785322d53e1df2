package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/searchblog/blog-auth/internal/core/domain"
)

// UserRepository implements ports.UserRepository on SQLite.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, username, password, created_at, activated) VALUES (?, ?, ?, ?, ?)`,
		user.Email, user.Name, user.PasswordHash, user.CreatedAt.UTC().UnixMicro(), user.Activated,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &domain.DuplicateEmailError{Email: user.Email}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	for _, role := range user.Roles {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`, id, string(role),
		); err != nil {
			return nil, fmt.Errorf("insert user role: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit user: %w", err)
	}

	saved := *user
	saved.ID = strconv.FormatInt(id, 10)
	saved.Roles = append([]domain.Role(nil), user.Roles...)
	saved.CreatedAt = time.UnixMicro(user.CreatedAt.UTC().UnixMicro()).UTC()
	return &saved, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, username, password, created_at, activated FROM users WHERE email = ?`, email)
	return r.scanUser(ctx, row, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, &domain.NotFoundError{Resource: "user", Key: id}
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, username, password, created_at, activated FROM users WHERE id = ?`, n)
	return r.scanUser(ctx, row, id)
}

func (r *UserRepository) scanUser(ctx context.Context, row *sql.Row, key string) (*domain.User, error) {
	var (
		id        int64
		u         domain.User
		name      sql.NullString
		password  sql.NullString
		createdAt int64
	)
	if err := row.Scan(&id, &u.Email, &name, &password, &createdAt, &u.Activated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "user", Key: key}
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.ID = strconv.FormatInt(id, 10)
	u.Name = name.String
	u.PasswordHash = password.String
	u.CreatedAt = time.UnixMicro(createdAt).UTC()

	roles, err := r.loadRoles(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

func (r *UserRepository) loadRoles(ctx context.Context, userID int64) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("load user roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		if role, err := domain.ParseRole(s); err == nil {
			roles = append(roles, role)
		}
	}
	return roles, rows.Err()
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
