package pgshipments

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"shipdesk/internal/models"
)

const userCols = `id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Storage) CreateUser(ctx context.Context, in models.UserCreateInput, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	row := s.db.QueryRow(ctx, `
INSERT INTO users (email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,TRUE,$6,$6)
RETURNING `+userCols, in.Email, passwordHash, in.FirstName, in.LastName, in.Role, now)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "insert user")
	}
	return u, nil
}

// GetUserByEmail returns (nil, nil) when no such user exists.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select user by email")
	}
	return u, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select user by id")
	}
	return u, nil
}

// GetUsersByIDs is the batch fetch behind the user relation loader.
func (s *Storage) GetUsersByIDs(ctx context.Context, ids []uint64) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	rows, err := s.db.Query(ctx, `SELECT `+userCols+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	defer rows.Close()

	out := make([]*models.User, 0, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
