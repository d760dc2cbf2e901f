package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/container"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/internal/router"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// seed creates demo accounts through the account service so the same
// validation and hashing apply as for HTTP sign-ups.
func main() {
	count := flag.Int("n", 5, "number of demo users to create")
	password := flag.String("password", "Seeded-9xq", "password for every demo user")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx := context.Background()
	closeStore, err := router.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("user store unavailable")
	}
	defer closeStore()

	jwtManager, err := helpers.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.WithError(err).Fatal("jwt")
	}
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetJWT(jwtManager)

	repo, err := router.BuildUserRepository(ctx)
	if err != nil {
		logger.WithError(err).Fatal("build repository")
	}
	// no mail or search side effects for seeded accounts
	svc := application.NewService(repo, jwtManager, logger)

	created := 0
	for i := 1; i <= *count; i++ {
		in := &application.CreateUserInput{
			Email:    fmt.Sprintf("demo%02d@example.com", i),
			Username: fmt.Sprintf("demo%02d", i),
			Password: *password,
		}
		u, err := svc.Create(ctx, in)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			logger.WithField("username", in.Username).Info("already seeded")
		case err != nil:
			logger.WithError(err).WithField("username", in.Username).Fatal("seed user")
		default:
			created++
			logger.WithFields(logrus.Fields{"id": u.ID, "username": u.Username, "email": u.Email}).Info("seeded user")
		}
	}
	logger.WithFields(logrus.Fields{"created": created, "requested": *count}).Info("seed finished")
}
