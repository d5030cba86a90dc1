// Package consumer serves account endpoints: sign up, sign in and the
// authenticated user's profile.
package consumer

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/fields"
)

// Auther issues and verifies access tokens.
type Auther interface {
	VerifyJWT(token string) (*gateway.TokenClaims, error)
	GenerateJWT(userID uuid.UUID, email string) (string, error)
}

// UserStore is the slice of the store the account endpoints need.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*fields.User, error)
	GetUserByEmail(ctx context.Context, email string) (*fields.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*fields.User, error)
}

type Service struct {
	Store  UserStore
	Logger *logrus.Logger
	Auth   Auther
}
