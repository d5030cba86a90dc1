package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
)

var errUserNotFound = apperr.WithMessage(apperr.ErrNotFound, "user not found")

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (*fields.User, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	user := &fields.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    s.clock(),
	}
	stmt := s.DB.Rebind("INSERT INTO users(id, email, password_hash, created_at) VALUES(?, ?, ?, ?)")
	if _, err := db.ExecContext(ctx, stmt, user.ID, user.Email, user.PasswordHash, user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(err, apperr.ErrConflict, "email already registered")
		}
		return nil, dbError(err, nil, "create user")
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*fields.User, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	stmt := s.DB.Rebind("SELECT id, email, password_hash, created_at FROM users WHERE email = ?")
	var user fields.User
	if err := db.GetContext(ctx, &user, stmt, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, dbError(err, errUserNotFound, "get user")
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*fields.User, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	stmt := s.DB.Rebind("SELECT id, email, password_hash, created_at FROM users WHERE id = ?")
	var user fields.User
	if err := db.GetContext(ctx, &user, stmt, id); err != nil {
		return nil, dbError(err, errUserNotFound, "get user")
	}
	return &user, nil
}

// ListUserIDs returns the ids of users owning at least one goods.
func (s *Store) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	ids := []uuid.UUID{}
	if err := db.SelectContext(ctx, &ids, "SELECT DISTINCT user_id FROM goods"); err != nil {
		return nil, dbError(err, nil, "list users")
	}
	return ids, nil
}
