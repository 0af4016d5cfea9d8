package postgres

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/paydash/payment-dashboard/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(username string) (string, int64, string, error) {
	var passwordHash string
	var userID int64
	var role string
	query := `SELECT id, password_hash, role FROM users WHERE username = ?`

	row := r.db.Raw(query, username).Row()
	if err := row.Scan(&userID, &passwordHash, &role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, "", auth.ErrUserNotFound
		}
		return "", 0, "", err
	}
	return passwordHash, userID, role, nil
}

func (r *Repository) GetUserByID(userID int64) (*auth.User, error) {
	var user auth.User
	query := `SELECT id, username, role FROM users WHERE id = ?`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Username, &user.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
