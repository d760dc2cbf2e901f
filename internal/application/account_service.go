package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

const (
	msgNoID          = "No id passed"
	msgNoArgs        = "No arguments passed"
	msgNoUser        = "No user found"
	msgCouldNotSave  = "Could not save user"
	msgBadCreds      = "invalid credentials"
	msgPwInEmail     = "Invalid args. Password is invalid. Password cannot be part of your email."
	msgPwInUsername  = "Invalid args. Password is invalid. Password cannot be part of your username."
	msgEmailInvalid  = "Invalid args. Email is invalid."
	msgUserInvalid   = "Invalid args. Username is invalid."
	msgPasswordReq   = "Invalid args. Password is required."
	defaultListLimit = 10
)

// JobPublisher enqueues background jobs (email notifications).
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Service is the account service: the only entry point that mutates users.
type Service struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger

	Jobs        JobPublisher
	MailEnabled bool
	Mail        MailInfo

	GCS       *storage.Client
	GCSBucket string

	ES           *elasticsearch.Client
	ESUsersIndex string

	now func() time.Time
}

// MailInfo is the branding passed to notification templates.
type MailInfo struct {
	AppName     string
	CompanyName string
	SupportURL  string
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger) *Service {
	return &Service{Repo: r, JWT: jwt, Logger: logger, now: time.Now}
}

// CreateUserInput carries the raw registration fields. An empty string is missing.
type CreateUserInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Image    string `json:"image"`
}

// Get returns the user with id, or nil when no such record exists.
func (s *Service) Get(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, invalidArg(msgNoID)
	}
	u, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create validates in and persists a new active user.
func (s *Service) Create(ctx context.Context, in *CreateUserInput) (*entity.User, error) {
	if in == nil {
		return nil, invalidArg(msgNoArgs)
	}
	if msg := missingFieldsMessage(in.Email, in.Username, in.Password); msg != "" {
		return nil, invalidArg(msg)
	}
	if err := checkPasswordRules(in.Email, in.Username, in.Password); err != nil {
		return nil, err
	}
	if err := validation.Var(in.Email, validation.BasicEmailTag); err != nil {
		return nil, wrapKind(ErrInvalidArgument, msgEmailInvalid, err)
	}
	if err := validation.Var(in.Username, "alphanum"); err != nil {
		return nil, wrapKind(ErrInvalidArgument, msgUserInvalid, err)
	}

	u := &entity.User{
		Email:    strings.ToLower(in.Email),
		Username: strings.ToLower(in.Username),
		Image:    in.Image,
	}
	if err := u.SetPassword(in.Password); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.indexUser(ctx, u)
	s.notify(ctx, welcomeTemplate, u)
	return u, nil
}

// Delete soft-deletes the user with id and returns the updated record.
func (s *Service) Delete(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, invalidArg(msgNoID)
	}
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil || u == nil {
		if err == nil {
			err = repo.ErrNotFound
		}
		helpers.LogError(s.Logger, "delete user: lookup failed", err, logrus.Fields{"user_id": id})
		return nil, wrapKind(ErrNotFound, msgNoUser, err)
	}

	u.Deleted = true
	if err := s.Repo.Update(ctx, u); err != nil {
		helpers.LogError(s.Logger, "delete user: save failed", err, logrus.Fields{"user_id": id})
		return nil, wrapKind(ErrStoreFailure, msgCouldNotSave, err)
	}

	s.indexUser(ctx, u)
	s.notify(ctx, accountDeletedTemplate, u)
	return u, nil
}

// missingFieldsMessage reports the first applicable missing-field message, or "".
func missingFieldsMessage(email, username, password string) string {
	noEmail, noUser, noPw := email == "", username == "", password == ""
	switch {
	case noEmail && noPw:
		return "Invalid args. Email and password are required."
	case noUser && noPw:
		return "Invalid args. Username and password are required."
	case noUser && noEmail:
		return "Invalid args. Username and email are required."
	case noEmail:
		return "Invalid args. Email is required."
	case noUser:
		return "Invalid args. Username is required."
	case noPw:
		return msgPasswordReq
	}
	return ""
}

// checkPasswordRules rejects passwords built from the email local part or the username.
func checkPasswordRules(email, username, password string) error {
	local, _, _ := strings.Cut(email, "@")
	if derivedFrom(password, local) {
		return invalidArg(msgPwInEmail)
	}
	if derivedFrom(password, username) {
		return invalidArg(msgPwInUsername)
	}
	return nil
}

func derivedFrom(password, s string) bool {
	lower := strings.ToLower(s)
	return password == s || password == lower ||
		strings.Contains(password, s) || strings.Contains(password, lower)
}
