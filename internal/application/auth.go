package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// AuthResult is what a successful login hands back to the client.
type AuthResult struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	Image     string    `json:"image,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticate checks email/password and issues a session token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, wrapKind(ErrUnauthorized, msgBadCreds, nil)
	}
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, repo.ErrNotFound) || (err == nil && u == nil) {
		return nil, wrapKind(ErrUnauthorized, msgBadCreds, nil)
	}
	if err != nil {
		helpers.LogError(s.Logger, "authenticate: lookup failed", err, nil)
		return nil, wrapKind(ErrStoreFailure, "Could not load user", err)
	}
	if u.Deleted || !u.ValidPassword(password) {
		return nil, wrapKind(ErrUnauthorized, msgBadCreds, nil)
	}

	token, exp, err := s.JWT.IssueToken(u.ID, u.Username)
	if err != nil {
		helpers.LogError(s.Logger, "issue token failed", err, logrus.Fields{"user_id": u.ID})
		return nil, err
	}
	return &AuthResult{
		Username:  u.Username,
		Email:     u.Email,
		Token:     token,
		Image:     u.Image,
		ExpiresAt: exp,
	}, nil
}

// ChangePassword replaces the password of user id after verifying current.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	if id == "" {
		return invalidArg(msgNoID)
	}
	if next == "" {
		return invalidArg(msgPasswordReq)
	}
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil || u == nil || u.Deleted {
		return wrapKind(ErrNotFound, msgNoUser, err)
	}
	if !u.ValidPassword(current) {
		return wrapKind(ErrUnauthorized, msgBadCreds, nil)
	}
	if err := checkPasswordRules(u.Email, u.Username, next); err != nil {
		return err
	}
	if err := u.SetPassword(next); err != nil {
		return err
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		helpers.LogError(s.Logger, "change password: save failed", err, logrus.Fields{"user_id": id})
		return wrapKind(ErrStoreFailure, msgCouldNotSave, err)
	}
	return nil
}
