package account

import (
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/meridianlabs/accounthub/internal/audit"
	"github.com/meridianlabs/accounthub/internal/config"
	"github.com/meridianlabs/accounthub/internal/database"
	"github.com/meridianlabs/accounthub/internal/session"
)

// NewModule returns the account module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(manager *database.Manager) Repository {
					return NewRepository(manager.DB())
				},
			),
			// Provide service
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger, repo Repository, recorder audit.Recorder) *Service {
					return NewService(&config.Auth, log, repo, recorder)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, issuer *session.Issuer, log *zap.Logger) *Handler {
					return NewHandler(svc, issuer, log, os.Getenv("APP_ENV") != "production")
				},
			),
		),
	)
}

var _ Repository = (*repository)(nil)
