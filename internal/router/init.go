package router

import (
	"context"
	"fmt"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/container"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/internal/infrastructure/cache"
	"github.com/oksasatya/go-account-service/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/go-account-service/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/router/modules"
)

type UserModuleDeps struct {
	Repo    repository.UserRepository
	Service *application.Service
	Handler *handlers.UserHandler
}

// BuildUserRepository picks the configured store and wraps it in the Redis cache when available.
func BuildUserRepository(ctx context.Context) (repository.UserRepository, error) {
	cfg := container.GetConfig()

	var repo repository.UserRepository
	switch cfg.StoreDriver {
	case config.StorePostgres:
		repo = pginfra.NewUserRepository(container.GetPGPool())
	case config.StoreMongo:
		mrepo, err := mongodb.NewUserRepository(ctx, container.GetMongoDB())
		if err != nil {
			return nil, err
		}
		repo = mrepo
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStore, cfg.StoreDriver)
	}

	if rdb := container.GetRedis(); rdb != nil && cfg.UserCacheTTL > 0 {
		repo = cache.NewUserRepository(repo, rdb, cfg.UserCacheTTL, container.GetLogger())
	}
	return repo, nil
}

// BuildService assembles the account service from the container.
func BuildService(repo repository.UserRepository) *application.Service {
	cfg := container.GetConfig()
	svc := application.NewService(repo, container.GetJWT(), container.GetLogger())

	if pub := container.GetRabbitPub(); pub != nil {
		svc.Jobs = pub
	}
	svc.MailEnabled = cfg.MailSendEnabled
	svc.Mail = application.MailInfo{AppName: cfg.AppName, CompanyName: cfg.CompanyName, SupportURL: cfg.SupportURL}
	svc.GCS, svc.GCSBucket = container.GetGCS(), cfg.GCSBucket
	svc.ES, svc.ESUsersIndex = container.GetES(), cfg.ESUsersIndex
	return svc
}

func buildUserDeps(ctx context.Context) (UserModuleDeps, error) {
	repo, err := BuildUserRepository(ctx)
	if err != nil {
		return UserModuleDeps{}, err
	}
	service := BuildService(repo)
	handler := handlers.NewUserHandler(
		service,
		container.GetLogger(),
		container.GetConfig().CookieDomain,
		container.GetConfig().CookieSecure,
	)
	return UserModuleDeps{Repo: repo, Service: service, Handler: handler}, nil
}

// InitModules wires every module and adds it to the registry. Call once at startup.
func InitModules(ctx context.Context, r *Registry) error {
	userDeps, err := buildUserDeps(ctx)
	if err != nil {
		return err
	}
	r.Report(container.GetConfig().StoreDriver, true)
	r.Report("redis", container.GetRedis() != nil)
	r.Report("rabbitmq", container.GetRabbitPub() != nil)
	r.Report("elasticsearch", container.GetES() != nil)
	r.Report("gcs", container.GetGCS() != nil)

	r.Add(modules.NewUserModule(userDeps.Handler, container.GetJWT(), container.GetRedis()))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis()))
	}
	return nil
}
