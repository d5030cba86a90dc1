package consumer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
)

// dummyHash keeps sign in timing similar for unknown emails.
var dummyHash, _ = gateway.HashPassword("warung-timing-placeholder")

// Signup registers a new account.
func (s *Service) Signup(c *fiber.Ctx) error {
	var req fields.UserSign
	if err := gateway.BindJSON(c, &req); err != nil {
		return err
	}
	hash, err := gateway.HashPassword(req.Password)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "")
	}
	user, err := s.Store.CreateUser(c.UserContext(), req.Email, hash)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return apperr.WithMessage(apperr.ErrConflict, "Email already registered")
		}
		return err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": user.ID, "request_id": gateway.RequestIDFromCtx(c)}).Info("user signed up")
	return c.Status(http.StatusCreated).JSON(fields.SignUpResponse{Message: "User created successfully"})
}

// Signin exchanges email and password for a bearer token. Unknown emails and
// wrong passwords produce the same error.
func (s *Service) Signin(c *fiber.Ctx) error {
	var req fields.UserSign
	if err := gateway.BindJSON(c, &req); err != nil {
		return err
	}
	user, err := s.Store.GetUserByEmail(c.UserContext(), req.Email)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		gateway.CheckPassword(dummyHash, req.Password)
		return apperr.ErrInvalidCredentials
	}
	if !gateway.CheckPassword(user.PasswordHash, req.Password) {
		s.Logger.WithField("user_id", user.ID).Warn("wrong password entered")
		return apperr.ErrInvalidCredentials
	}
	token, err := s.Auth.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "")
	}
	return c.Status(http.StatusOK).JSON(fields.SignInResponse{
		Message: "Login successful",
		Data:    fields.TokenResponse{AccessToken: token, TokenType: "bearer"},
	})
}

// Me returns the authenticated user.
func (s *Service) Me(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	user, err := s.Store.GetUserByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.WithMessage(apperr.ErrUnauthorized, "user no longer exists")
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(fields.UserIn{ID: user.ID, Email: user.Email})
}

// Refresh issues a fresh token for a still valid one.
func (s *Service) Refresh(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	token, err := s.Auth.GenerateJWT(userID, gateway.Email(c))
	if err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "")
	}
	return c.Status(http.StatusOK).JSON(fields.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Routes mounts the account endpoints on r.
func (s *Service) Routes(r fiber.Router, auth fiber.Handler) {
	r.Post("/signup", s.Signup)
	r.Post("/signin", s.Signin)
	r.Get("/me", auth, s.Me)
	r.Post("/refresh", auth, s.Refresh)
}
